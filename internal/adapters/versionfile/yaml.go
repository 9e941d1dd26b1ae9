package versionfile

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// patchYAML sets version and $schema in an existing YAML document through its
// node tree, so comments and key order are kept.
func patchYAML(data []byte, version string, includeSchema bool) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		doc = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
		}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("top level of YAML document is not a mapping")
	}
	root := doc.Content[0]

	setYAMLString(root, "version", version)
	if includeSchema {
		if _, val := yamlEntry(root, schemaKey); val != nil {
			setYAMLString(root, schemaKey, SchemaURL)
		} else {
			root.Content = append([]*yaml.Node{yamlString(schemaKey), yamlString(SchemaURL)}, root.Content...)
		}
	} else {
		deleteYAMLKey(root, schemaKey)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// yamlEntry returns the index and value node of key in a mapping node.
func yamlEntry(m *yaml.Node, key string) (int, *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return i, m.Content[i+1]
		}
	}
	return -1, nil
}

// setYAMLString replaces the value of key with a string scalar, appending the
// key when missing. The existing quoting style is kept.
func setYAMLString(m *yaml.Node, key, value string) {
	_, val := yamlEntry(m, key)
	if val == nil {
		m.Content = append(m.Content, yamlString(key), yamlString(value))
		return
	}
	if val.Kind != yaml.ScalarNode {
		val.Style = 0
	}
	val.Kind = yaml.ScalarNode
	val.Tag = "!!str"
	val.Value = value
	val.Content = nil
}

func deleteYAMLKey(m *yaml.Node, key string) {
	if i, _ := yamlEntry(m, key); i >= 0 {
		m.Content = append(m.Content[:i], m.Content[i+2:]...)
	}
}

func yamlString(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}
