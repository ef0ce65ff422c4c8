// Package container defines the service lookup contract the input filter
// factory needs and a small map-backed implementation of it.
package container

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotFound is returned by Get for unknown service names.
var ErrNotFound = errors.New("service not found")

// Container fetches named services.
type Container interface {
	// Has reports whether a service is registered under name.
	Has(name string) bool

	// Get returns the service registered under name or an error wrapping
	// ErrNotFound.
	Get(name string) (any, error)
}

// Services is a concurrency-safe map of named services.
type Services struct {
	mu       sync.RWMutex
	services map[string]any
}

// New creates an empty service map.
func New() *Services {
	return &Services{services: make(map[string]any)}
}

// Set registers service under name, replacing any previous value.
func (s *Services) Set(name string, service any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.services[name] = service
}

// Has implements Container.
func (s *Services) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.services[name]

	return ok
}

// Get implements Container.
func (s *Services) Get(name string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.services[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	return v, nil
}

// Names returns the sorted registered service names.
func (s *Services) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.services))
	for n := range s.services {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

// Compile-time interface check.
var _ Container = (*Services)(nil)
