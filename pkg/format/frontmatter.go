// SPDX-License-Identifier: MPL-2.0

package format

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"promptscript-cli/pkg/document"
)

// frontmatter renders a `---` delimited YAML header with keys in the given
// order. Keys missing from props are skipped; an empty selection yields nil.
func frontmatter(keys []string, props map[string]document.Value) ([]byte, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		v, ok := props[k]
		if !ok {
			continue
		}
		node.Content = append(node.Content, scalarString(k), valueNode(v))
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	body, err := yaml.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("marshaling frontmatter: %w", err)
	}
	return append(append([]byte("---\n"), body...), []byte("---\n")...), nil
}

func valueNode(v document.Value) *yaml.Node {
	switch v.Kind {
	case document.StringValue, document.TextValue:
		return scalarString(v.Str)
	case document.NumberValue:
		tag := "!!float"
		if v.Num == math.Trunc(v.Num) {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.StringForm()}
	case document.BoolValue:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: v.StringForm()}
	case document.ArrayValue:
		node := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range v.Items {
			node.Content = append(node.Content, valueNode(item))
		}
		return node
	case document.MapValue:
		node := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range sortedKeys(v.Props) {
			node.Content = append(node.Content, scalarString(k), valueNode(v.Props[k]))
		}
		return node
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}

func scalarString(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}
