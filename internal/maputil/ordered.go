package maputil

import "sort"

// OrderedMap is a string-keyed map that remembers insertion order. The spec
// loader produces it so that field declaration order survives decoding.
type OrderedMap struct {
	keys   []string
	values map[string]any
}

// NewOrderedMap creates an empty OrderedMap.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]any)}
}

// Set stores value under key. A new key is appended; an existing key keeps
// its position.
func (m *OrderedMap) Set(key string, value any) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}

	m.values[key] = value
}

// Get returns the value stored under key.
func (m *OrderedMap) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}

	v, ok := m.values[key]

	return v, ok
}

// Keys returns a copy of the keys in insertion order.
func (m *OrderedMap) Keys() []string {
	if m == nil {
		return nil
	}

	out := make([]string, len(m.keys))
	copy(out, m.keys)

	return out
}

// Len returns the number of keys.
func (m *OrderedMap) Len() int {
	if m == nil {
		return 0
	}

	return len(m.keys)
}

// ToMap converts m, recursively, into plain maps. Order is lost.
func (m *OrderedMap) ToMap() map[string]any {
	if m == nil {
		return nil
	}

	out := make(map[string]any, len(m.keys))
	for _, k := range m.keys {
		out[k] = ToPlain(m.values[k])
	}

	return out
}

// DeepCopy returns an independent copy of m.
func (m *OrderedMap) DeepCopy() *OrderedMap {
	if m == nil {
		return nil
	}

	out := NewOrderedMap()
	for _, k := range m.keys {
		out.Set(k, DeepCopyValue(m.values[k]))
	}

	return out
}

// ToPlain replaces every *OrderedMap inside v with a plain map.
func ToPlain(v any) any {
	switch val := v.(type) {
	case *OrderedMap:
		return val.ToMap()
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = ToPlain(item)
		}

		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = ToPlain(item)
		}

		return out
	default:
		return v
	}
}

// KeyValue is one entry produced by Entries.
type KeyValue struct {
	Key   string
	Value any
}

// Entries returns the entries of a map-like value in a deterministic order:
// insertion order for *OrderedMap, sorted keys for map[string]any. ok is
// false for any other type.
func Entries(v any) (entries []KeyValue, ok bool) {
	switch val := v.(type) {
	case *OrderedMap:
		entries = make([]KeyValue, 0, val.Len())
		for _, k := range val.keys {
			entries = append(entries, KeyValue{Key: k, Value: val.values[k]})
		}

		return entries, true
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		entries = make([]KeyValue, 0, len(keys))
		for _, k := range keys {
			entries = append(entries, KeyValue{Key: k, Value: val[k]})
		}

		return entries, true
	default:
		return nil, false
	}
}

// Lookup returns key from a map-like value.
func Lookup(v any, key string) (any, bool) {
	switch val := v.(type) {
	case *OrderedMap:
		return val.Get(key)
	case map[string]any:
		out, ok := val[key]
		return out, ok
	default:
		return nil, false
	}
}

// IsMap reports whether v is a map-like value understood by Entries.
func IsMap(v any) bool {
	switch v.(type) {
	case *OrderedMap, map[string]any:
		return true
	default:
		return false
	}
}
