package versionfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/MyCarrier-DevOps/prepare-release/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, map[string]interface{}) {}

func newTestStore() *Store {
	return NewStore(nopLogger{})
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		wantVer  string
		wantOpts domain.ReleaseOptions
	}{
		{
			name:    "json minimal",
			file:    "version.json",
			content: `{"version": "1.0-alpha"}`,
			wantVer: "1.0-alpha",
		},
		{
			name: "json with release settings",
			file: "version.json",
			content: `{
  "$schema": "https://example.com/schema.json",
  "version": "2.3.4",
  "release": {
    "branchName": "release/v{version}",
    "versionIncrement": "build",
    "firstUnstableTag": "beta"
  }
}`,
			wantVer: "2.3.4",
			wantOpts: domain.ReleaseOptions{
				BranchName:       "release/v{version}",
				VersionIncrement: domain.IncrementBuild,
				FirstUnstableTag: "beta",
			},
		},
		{
			name:    "yaml",
			file:    "version.yaml",
			content: "version: 1.2-beta\nrelease:\n  versionIncrement: major\n",
			wantVer: "1.2-beta",
			wantOpts: domain.ReleaseOptions{
				VersionIncrement: domain.IncrementMajor,
			},
		},
		{
			name:    "yml",
			file:    "version.yml",
			content: "version: '3.0'\n",
			wantVer: "3.0",
		},
		{
			name:    "toml",
			file:    "version.toml",
			content: "version = \"0.9-rc\"\n\n[release]\nbranchName = \"rel-{version}\"\n",
			wantVer: "0.9-rc",
			wantOpts: domain.ReleaseOptions{
				BranchName: "rel-{version}",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, tt.file)
			writeFile(t, path, tt.content)

			opts, err := newTestStore().Load(context.Background(), dir)

			require.NoError(t, err)
			require.NotNil(t, opts)
			assert.Equal(t, tt.wantVer, opts.Version.String())
			assert.Equal(t, tt.wantOpts, opts.Release)
			assert.Equal(t, path, opts.Path)
		})
	}
}

func TestLoad_SearchesParentDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	writeFile(t, filepath.Join(root, "version.json"), `{"version": "1.0"}`)
	sub := filepath.Join(root, "src", "lib")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	opts, err := newTestStore().Load(context.Background(), sub)

	require.NoError(t, err)
	require.NotNil(t, opts)
	assert.Equal(t, filepath.Join(root, "version.json"), opts.Path)
}

func TestLoad_NearestFileWins(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "version.json"), `{"version": "1.0"}`)
	writeFile(t, filepath.Join(root, "pkg", "version.yaml"), "version: '5.0'\n")

	opts, err := newTestStore().Load(context.Background(), filepath.Join(root, "pkg"))

	require.NoError(t, err)
	require.NotNil(t, opts)
	assert.Equal(t, "5.0", opts.Version.String())
}

func TestLoad_JSONPreferredInSameDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "version.toml"), "version = \"2.0\"\n")
	writeFile(t, filepath.Join(dir, "version.json"), `{"version": "1.0"}`)

	opts, err := newTestStore().Load(context.Background(), dir)

	require.NoError(t, err)
	assert.Equal(t, "1.0", opts.Version.String())
}

func TestLoad_StopsAtRepositoryRoot(t *testing.T) {
	outer := t.TempDir()
	writeFile(t, filepath.Join(outer, "version.json"), `{"version": "1.0"}`)
	repo := filepath.Join(outer, "repo")
	require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0o755))

	opts, err := newTestStore().Load(context.Background(), repo)

	require.NoError(t, err)
	assert.Nil(t, opts)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed json", content: `{"version": `},
		{name: "missing version", content: `{"release": {}}`},
		{name: "bad version", content: `{"version": "1"}`},
		{name: "bad increment", content: `{"version": "1.0", "release": {"versionIncrement": "patch"}}`},
		{name: "bad unstable tag", content: `{"version": "1.0", "release": {"firstUnstableTag": "a b"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, "version.json"), tt.content)

			opts, err := newTestStore().Load(context.Background(), dir)

			assert.Nil(t, opts)
			assert.ErrorIs(t, err, domain.ErrInvalidVersionFile)
		})
	}
}

func TestSave_PreservesOtherProperties(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "version.json")
	writeFile(t, path, `{
  "version": "1.0-alpha",
  "publicReleaseRefSpec": ["^refs/heads/main$"],
  "buildNumberOffset": 12,
  "release": {"branchName": "v{version}"}
}`)
	store := newTestStore()
	opts, err := store.Load(context.Background(), dir)
	require.NoError(t, err)

	opts.Version = domain.MustParseSemanticVersion("1.1-alpha")
	saved, err := store.Save(context.Background(), dir, opts, false)

	require.NoError(t, err)
	assert.Equal(t, path, saved)

	var raw map[string]any
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "1.1-alpha", raw["version"])
	assert.Equal(t, []any{"^refs/heads/main$"}, raw["publicReleaseRefSpec"])
	assert.Equal(t, float64(12), raw["buildNumberOffset"])
	assert.Equal(t, map[string]any{"branchName": "v{version}"}, raw["release"])
	assert.NotContains(t, raw, "$schema")
	assert.Contains(t, string(data), `"buildNumberOffset": 12`)
}

func TestSave_SchemaProperty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "version.json")
	writeFile(t, path, `{"$schema": "old", "version": "1.0"}`)
	store := newTestStore()
	opts, err := store.Load(context.Background(), dir)
	require.NoError(t, err)

	_, err = store.Save(context.Background(), dir, opts, true)
	require.NoError(t, err)
	var raw map[string]any
	data, _ := os.ReadFile(path)
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, SchemaURL, raw["$schema"])

	_, err = store.Save(context.Background(), dir, opts, false)
	require.NoError(t, err)
	data, _ = os.ReadFile(path)
	raw = nil
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "$schema")
}

func TestSave_CreatesDefaultFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	opts := &domain.VersionOptions{
		Version: domain.MustParseSemanticVersion("1.0-beta"),
		Release: domain.ReleaseOptions{FirstUnstableTag: "beta"},
	}

	path, err := newTestStore().Save(context.Background(), dir, opts, true)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultFileName), path)

	reloaded, err := newTestStore().Load(context.Background(), dir)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.Equal(t, "1.0-beta", reloaded.Version.String())
	assert.Equal(t, "beta", reloaded.Release.FirstUnstableTag)
}

func TestSave_YAMLAndTOML(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		before string
		decode func([]byte, any) error
	}{
		{
			name:   "yaml",
			file:   "version.yaml",
			before: "version: '1.0'\nnotes: keep me\n",
			decode: yaml.Unmarshal,
		},
		{
			name:   "toml",
			file:   "version.toml",
			before: "version = \"1.0\"\nnotes = \"keep me\"\n",
			decode: toml.Unmarshal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, tt.file)
			writeFile(t, path, tt.before)
			store := newTestStore()
			opts, err := store.Load(context.Background(), dir)
			require.NoError(t, err)

			opts.Version = domain.MustParseSemanticVersion("1.1-alpha")
			_, err = store.Save(context.Background(), dir, opts, true)
			require.NoError(t, err)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			raw := map[string]any{}
			require.NoError(t, tt.decode(data, &raw))
			assert.Equal(t, "1.1-alpha", raw["version"])
			assert.Equal(t, "keep me", raw["notes"])
			assert.Equal(t, SchemaURL, raw["$schema"])

			reloaded, err := store.Load(context.Background(), dir)
			require.NoError(t, err)
			assert.Equal(t, "1.1-alpha", reloaded.Version.String())
		})
	}
}

func TestSave_YAMLKeepsCommentsAndOrder(t *testing.T) {
	tests := []struct {
		name          string
		before        string
		includeSchema bool
		wantContains  []string
		wantAbsent    []string
		wantOrder     []string
	}{
		{
			name: "comments and order kept",
			before: `# Versioning for the payments service.
version: 1.0-alpha # bumped by the release job
release:
  branchName: release/{version} # one branch per minor
notes: keep me
`,
			wantContains: []string{
				"# Versioning for the payments service.",
				"# bumped by the release job",
				"# one branch per minor",
			},
			wantAbsent: []string{"$schema"},
			wantOrder:  []string{"version:", "release:", "notes:"},
		},
		{
			name:          "schema added first",
			before:        "# header\nversion: '1.0-alpha'\nnotes: keep me\n",
			includeSchema: true,
			wantContains:  []string{"# header", "$schema: " + SchemaURL, "version: '1.1-alpha'"},
			wantOrder:     []string{"$schema:", "version:", "notes:"},
		},
		{
			name:         "schema removed",
			before:       "$schema: old\nversion: '1.0-alpha' # current\n",
			wantContains: []string{"# current"},
			wantAbsent:   []string{"$schema"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "version.yaml")
			writeFile(t, path, tt.before)
			store := newTestStore()
			opts, err := store.Load(context.Background(), dir)
			require.NoError(t, err)

			opts.Version = domain.MustParseSemanticVersion("1.1-alpha")
			_, err = store.Save(context.Background(), dir, opts, tt.includeSchema)
			require.NoError(t, err)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			text := string(data)
			for _, want := range tt.wantContains {
				assert.Contains(t, text, want)
			}
			for _, absent := range tt.wantAbsent {
				assert.NotContains(t, text, absent)
			}
			last := -1
			for _, key := range tt.wantOrder {
				idx := strings.Index(text, key)
				require.GreaterOrEqual(t, idx, 0, key)
				assert.Greater(t, idx, last, key)
				last = idx
			}

			reloaded, err := store.Load(context.Background(), dir)
			require.NoError(t, err)
			assert.Equal(t, "1.1-alpha", reloaded.Version.String())
			assert.Equal(t, opts.Release.BranchName, reloaded.Release.BranchName)
		})
	}
}

func TestSave_YAMLQuotesNumericLookingVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "version.yaml")
	writeFile(t, path, "version: 1.0-alpha\n")
	store := newTestStore()
	opts, err := store.Load(context.Background(), dir)
	require.NoError(t, err)

	opts.Version = domain.MustParseSemanticVersion("1.0")
	_, err = store.Save(context.Background(), dir, opts, false)
	require.NoError(t, err)

	reloaded, err := store.Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "1.0", reloaded.Version.String())
}

func TestSave_RequiresVersion(t *testing.T) {
	_, err := newTestStore().Save(context.Background(), t.TempDir(), &domain.VersionOptions{}, false)
	assert.Error(t, err)
}
