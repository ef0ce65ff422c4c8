package output

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/BurntSushi/toml"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/hupe1980/inputfilter/internal/maputil"
)

// SerializeYAML converts v to YAML with alphabetically sorted map keys.
// Nil values and empty maps are dropped.
func SerializeYAML(v any) ([]byte, error) {
	out, err := sigsyaml.Marshal(canonicalize(v))
	if err != nil {
		return nil, fmt.Errorf("serializing YAML: %w", err)
	}

	return ensureNewline(out), nil
}

// SerializeJSON converts v to indented JSON with sorted keys.
func SerializeJSON(v any, indent string) ([]byte, error) {
	if indent == "" {
		indent = "  "
	}

	out, err := json.MarshalIndent(canonicalize(v), "", indent)
	if err != nil {
		return nil, fmt.Errorf("serializing JSON: %w", err)
	}

	return ensureNewline(out), nil
}

// SerializeTOML converts v to TOML. The top level of v must be a mapping.
func SerializeTOML(v any) ([]byte, error) {
	m, ok := canonicalize(v).(map[string]any)
	if !ok {
		m = map[string]any{}
	}

	var buf bytes.Buffer

	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return nil, fmt.Errorf("serializing TOML: %w", err)
	}

	return ensureNewline(buf.Bytes()), nil
}

// canonicalize converts ordered maps to plain maps and removes nil values
// and empty maps, leaving a tree every encoder handles the same way.
func canonicalize(v any) any {
	plain := maputil.ToPlain(v)

	cleaned := deepCleanValue(plain)
	if _, isMap := plain.(map[string]any); isMap && cleaned == nil {
		return map[string]any{}
	}

	return cleaned
}

// deepCleanMap recursively cleans a map by removing nil values.
func deepCleanMap(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))

	for k, v := range m {
		cleaned := deepCleanValue(v)
		if cleaned != nil {
			result[k] = cleaned
		}
	}

	return result
}

func deepCleanValue(v any) any {
	if v == nil {
		return nil
	}

	switch val := v.(type) {
	case map[string]any:
		cleaned := deepCleanMap(val)
		if len(cleaned) == 0 {
			return nil
		}

		return cleaned
	case []any:
		result := make([]any, 0, len(val))
		for _, item := range val {
			if cleaned := deepCleanValue(item); cleaned != nil {
				result = append(result, cleaned)
			}
		}

		return result
	case []string:
		result := make([]any, 0, len(val))
		for _, s := range val {
			result = append(result, s)
		}

		return result
	default:
		return v
	}
}

func ensureNewline(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] != '\n' {
		b = append(b, '\n')
	}

	return b
}
