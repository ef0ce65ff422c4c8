package plugin

import (
	"fmt"
	"sort"
)

// DefaultPriority is the priority of chain entries whose spec leaves it
// unset.
const DefaultPriority = 1

// Spec describes one plugin of a chain.
type Spec struct {
	// Name is the plugin name resolved through the chain's registry.
	Name string

	// Options are handed to the plugin factory.
	Options Options

	// Priority orders the chain (higher first). Nil means DefaultPriority.
	Priority *int

	// BreakChainOnFailure stops a validator chain after this entry fails.
	BreakChainOnFailure bool
}

// EffectivePriority returns the priority, or DefaultPriority when unset.
func (s Spec) EffectivePriority() int {
	if s.Priority == nil {
		return DefaultPriority
	}

	return *s.Priority
}

// Entry is a resolved plugin within a Chain.
type Entry[T any] struct {
	Name                string
	Plugin              T
	Priority            int
	BreakChainOnFailure bool
}

// Chain is a priority-ordered sequence of plugins together with the
// resolver that produced them.
type Chain[T any] struct {
	registry Resolver[T]
	entries  []Entry[T]
}

// NewChain creates an empty chain bound to registry.
func NewChain[T any](registry Resolver[T]) *Chain[T] {
	return &Chain[T]{registry: registry}
}

// BuildChain resolves every spec through registry and returns the ordered
// chain. A single failed resolution fails the whole build.
func BuildChain[T any](registry Resolver[T], specs []Spec) (*Chain[T], error) {
	c := NewChain(registry)

	for i, s := range specs {
		p, err := registry.Resolve(s.Name, s.Options)
		if err != nil {
			return nil, fmt.Errorf("resolving chain entry %d (%s): %w", i, s.Name, err)
		}

		c.entries = append(c.entries, Entry[T]{
			Name:                s.Name,
			Plugin:              p,
			Priority:            s.EffectivePriority(),
			BreakChainOnFailure: s.BreakChainOnFailure,
		})
	}

	c.sort()

	return c, nil
}

// Attach appends an already resolved plugin and re-establishes priority
// order. Entries of equal priority keep their insertion order.
func (c *Chain[T]) Attach(e Entry[T]) {
	c.entries = append(c.entries, e)
	c.sort()
}

// AttachByName resolves s through the chain's registry and attaches it.
func (c *Chain[T]) AttachByName(s Spec) error {
	p, err := c.registry.Resolve(s.Name, s.Options)
	if err != nil {
		return err
	}

	c.Attach(Entry[T]{
		Name:                s.Name,
		Plugin:              p,
		Priority:            s.EffectivePriority(),
		BreakChainOnFailure: s.BreakChainOnFailure,
	})

	return nil
}

// Plugin fetches name from the chain's registry. With a shared scope this
// returns the same instance the chain holds.
func (c *Chain[T]) Plugin(name string, opts Options) (T, error) {
	return c.registry.Resolve(name, opts)
}

// Registry returns the resolver the chain was built with.
func (c *Chain[T]) Registry() Resolver[T] { return c.registry }

// Len returns the number of entries.
func (c *Chain[T]) Len() int { return len(c.entries) }

// Entries returns a copy of the entries in execution order.
func (c *Chain[T]) Entries() []Entry[T] {
	out := make([]Entry[T], len(c.entries))
	copy(out, c.entries)

	return out
}

func (c *Chain[T]) sort() {
	sort.SliceStable(c.entries, func(i, j int) bool {
		return c.entries[i].Priority > c.entries[j].Priority
	})
}
