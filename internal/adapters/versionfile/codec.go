package versionfile

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// codec reads and writes one version file format.
type codec struct {
	name      string
	unmarshal func(data []byte, v any) error
	marshal   func(v any) ([]byte, error)

	// patch, when set, rewrites an existing file in place instead of
	// re-encoding its decoded properties.
	patch func(data []byte, version string, includeSchema bool) ([]byte, error)
}

var (
	jsonCodec = codec{
		name: "json",
		unmarshal: func(data []byte, v any) error {
			dec := json.NewDecoder(bytes.NewReader(data))
			dec.UseNumber()
			return dec.Decode(v)
		},
		marshal: func(v any) ([]byte, error) {
			var buf bytes.Buffer
			enc := json.NewEncoder(&buf)
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			if err := enc.Encode(v); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
	}

	yamlCodec = codec{
		name:      "yaml",
		unmarshal: yaml.Unmarshal,
		marshal: func(v any) ([]byte, error) {
			var buf bytes.Buffer
			enc := yaml.NewEncoder(&buf)
			enc.SetIndent(2)
			if err := enc.Encode(v); err != nil {
				return nil, err
			}
			if err := enc.Close(); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
		patch: patchYAML,
	}

	// go-toml/v2 has no document model, so TOML comments are lost on save.
	tomlCodec = codec{
		name:      "toml",
		unmarshal: toml.Unmarshal,
		marshal:   toml.Marshal,
	}
)

// FileNames lists the version file names searched in each directory, in priority order.
var FileNames = []string{"version.json", "version.yaml", "version.yml", "version.toml"}

// DefaultFileName is the file created when a directory has no version file.
const DefaultFileName = "version.json"

func codecFor(path string) (codec, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return jsonCodec, true
	case ".yaml", ".yml":
		return yamlCodec, true
	case ".toml":
		return tomlCodec, true
	default:
		return codec{}, false
	}
}
