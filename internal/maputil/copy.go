// Package maputil provides helpers for the loosely typed configuration trees
// (map[string]any, []any and OrderedMap) that input filter specs are read
// from.
package maputil

// DeepCopyMap performs a deep copy of a map[string]any.
func DeepCopyMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))

	for k, v := range src {
		dst[k] = DeepCopyValue(v)
	}

	return dst
}

// DeepCopySlice performs a deep copy of a []any.
func DeepCopySlice(src []any) []any {
	if src == nil {
		return nil
	}

	dst := make([]any, len(src))

	for i, v := range src {
		dst[i] = DeepCopyValue(v)
	}

	return dst
}

// DeepCopyValue copies maps, slices and ordered maps recursively and returns
// every other value unchanged.
func DeepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return DeepCopyMap(val)
	case []any:
		return DeepCopySlice(val)
	case *OrderedMap:
		return val.DeepCopy()
	default:
		return v
	}
}
