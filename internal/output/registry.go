package output

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Encoder serializes a value into one output format.
type Encoder func(v any) ([]byte, error)

// Registry maps format names to encoders.
type Registry struct {
	mu       sync.RWMutex
	encoders map[string]Encoder
}

// NewRegistry creates an empty format registry.
func NewRegistry() *Registry {
	return &Registry{
		encoders: make(map[string]Encoder),
	}
}

// Register adds an encoder under the given format name.
// Existing entries for the same name are overwritten.
func (r *Registry) Register(name string, enc Encoder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.encoders[strings.ToLower(name)] = enc
}

// Encoder returns the encoder for the given format, or an error if not found.
func (r *Registry) Encoder(name string) (Encoder, error) {
	r.mu.RLock()
	enc, ok := r.encoders[strings.ToLower(name)]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown output format %q (available: %s)", name, r.AvailableFormats())
	}

	return enc, nil
}

// Encode serializes v in the named format.
func (r *Registry) Encode(format string, v any) ([]byte, error) {
	enc, err := r.Encoder(format)
	if err != nil {
		return nil, err
	}

	return enc(v)
}

// Formats returns the sorted list of registered format names.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.encoders))
	for name := range r.encoders {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// AvailableFormats returns a comma-separated string of registered format names.
func (r *Registry) AvailableFormats() string {
	formats := r.Formats()
	if len(formats) == 0 {
		return "none"
	}

	return strings.Join(formats, ", ")
}

// Built-in format names.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatTOML = "toml"
)

// DefaultRegistry returns a registry pre-populated with the built-in
// formats: yaml, json, toml.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(FormatYAML, SerializeYAML)
	r.Register(FormatJSON, func(v any) ([]byte, error) { return SerializeJSON(v, "") })
	r.Register(FormatTOML, SerializeTOML)

	return r
}
