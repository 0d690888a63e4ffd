package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadParamsFile reads a YAML configuration file into raw parameters for
// Resolve. Unlike the strict loaders elsewhere, unknown keys are kept so that
// Resolve can report them; only unreadable or structurally broken files fail.
func LoadParamsFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	params, err := ParseParams(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return params, nil
}

// ParseParams decodes a YAML document whose top level is a mapping. Keys are
// taken verbatim as strings, so integer mixing keys ("0: 50,25,25") survive.
func ParseParams(data []byte) (map[string]any, error) {
	params := make(map[string]any)

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return params, nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return params, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: top level must be a mapping", root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: keys must be scalars", keyNode.Line)
		}
		var value any
		if err := valueNode.Decode(&value); err != nil {
			return nil, fmt.Errorf("line %d: %w", valueNode.Line, err)
		}
		params[keyNode.Value] = value
	}
	return params, nil
}
