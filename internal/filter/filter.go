package filter

import (
	"fmt"

	"github.com/hupe1980/inputfilter/internal/plugin"
)

// Filter transforms a value. Filters are pure: they do not validate and they
// do not keep state between calls.
type Filter interface {
	// Filter returns the transformed value.
	Filter(value any) (any, error)
}

// Func adapts a plain function to the Filter interface.
type Func func(value any) (any, error)

// Filter implements Filter.
func (f Func) Filter(value any) (any, error) { return f(value) }

// Manager is the plugin registry for filters.
type Manager = plugin.Registry[Filter]

// ManagerName is the registry name and the conventional container service
// name for the filter manager.
const ManagerName = "FilterManager"

// Chain applies multiple filters sequentially, passing the output of each
// filter as input to the next.
type Chain struct {
	*plugin.Chain[Filter]
}

// NewChain creates an empty chain bound to registry.
func NewChain(registry plugin.Resolver[Filter]) *Chain {
	return &Chain{Chain: plugin.NewChain(registry)}
}

// BuildChain resolves specs through registry and returns the ordered chain.
func BuildChain(registry plugin.Resolver[Filter], specs []plugin.Spec) (*Chain, error) {
	c, err := plugin.BuildChain(registry, specs)
	if err != nil {
		return nil, err
	}

	return &Chain{Chain: c}, nil
}

// Filter runs value through every filter in priority order.
func (c *Chain) Filter(value any) (any, error) {
	if c == nil || c.Chain == nil {
		return value, nil
	}

	current := value

	for _, e := range c.Entries() {
		out, err := e.Plugin.Filter(current)
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", e.Name, err)
		}

		current = out
	}

	return current, nil
}

// Compile-time interface checks.
var (
	_ Filter = Func(nil)
	_ Filter = (*Chain)(nil)
)
