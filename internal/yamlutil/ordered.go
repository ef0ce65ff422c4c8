package yamlutil

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/inputfilter/internal/maputil"
)

// DecodeOrdered decodes one YAML (or JSON) document. Mappings become
// *maputil.OrderedMap so that key order survives, sequences become []any and
// scalars get their natural Go type. An empty document decodes to nil.
func DecodeOrdered(data []byte) (any, error) {
	var n yaml.Node
	if err := yaml.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	if n.Kind == 0 {
		return nil, nil
	}

	return fromNode(&n)
}

// DecodeMap decodes one document into plain maps. A document whose root is
// not a mapping is an error; an empty document yields an empty map.
func DecodeMap(data []byte) (map[string]any, error) {
	v, err := DecodeOrdered(data)
	if err != nil {
		return nil, err
	}

	if v == nil {
		return map[string]any{}, nil
	}

	m, ok := maputil.ToPlain(v).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document root is %T, expected a mapping", v)
	}

	return m, nil
}

func fromNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}

		return fromNode(n.Content[0])
	case yaml.MappingNode:
		m := maputil.NewOrderedMap()

		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", k.Line)
			}

			if _, dup := m.Get(k.Value); dup {
				return nil, fmt.Errorf("line %d: duplicate key %q", k.Line, k.Value)
			}

			val, err := fromNode(v)
			if err != nil {
				return nil, err
			}

			m.Set(k.Value, val)
		}

		return m, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))

		for _, item := range n.Content {
			val, err := fromNode(item)
			if err != nil {
				return nil, err
			}

			out = append(out, val)
		}

		return out, nil
	case yaml.AliasNode:
		return fromNode(n.Alias)
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}

		return v, nil
	}
}
