package validator

import (
	"github.com/hupe1980/inputfilter/internal/plugin"
)

// Validator checks a single value.
type Validator interface {
	// IsValid reports whether value passes the check.
	IsValid(value any) bool

	// Messages returns the failure messages of the last IsValid call.
	Messages() []string
}

// ContextValidator is implemented by validators that compare a value against
// sibling values of the same input filter.
type ContextValidator interface {
	Validator

	IsValidWithContext(value any, context map[string]any) bool
}

// Manager is the plugin registry for validators.
type Manager = plugin.Registry[Validator]

// ManagerName is the registry name and the conventional container service
// name for the validator manager.
const ManagerName = "ValidatorManager"

// Chain runs validators in priority order. A Chain records the messages of
// its last run and is not safe for concurrent IsValid calls.
type Chain struct {
	*plugin.Chain[Validator]

	messages []string
}

// NewChain creates an empty chain bound to registry.
func NewChain(registry plugin.Resolver[Validator]) *Chain {
	return &Chain{Chain: plugin.NewChain(registry)}
}

// BuildChain resolves specs through registry and returns the ordered chain.
func BuildChain(registry plugin.Resolver[Validator], specs []plugin.Spec) (*Chain, error) {
	c, err := plugin.BuildChain(registry, specs)
	if err != nil {
		return nil, err
	}

	return &Chain{Chain: c}, nil
}

// IsValid runs every validator against value. context carries the raw values
// of the enclosing input filter for validators that need them and may be nil.
func (c *Chain) IsValid(value any, context map[string]any) bool {
	if c == nil || c.Chain == nil {
		return true
	}

	c.messages = nil
	valid := true

	for _, e := range c.Entries() {
		if check(e.Plugin, value, context) {
			continue
		}

		valid = false
		c.messages = append(c.messages, e.Plugin.Messages()...)

		if e.BreakChainOnFailure {
			break
		}
	}

	return valid
}

// Messages returns the messages collected by the last IsValid call.
func (c *Chain) Messages() []string {
	if c == nil {
		return nil
	}

	out := make([]string, len(c.messages))
	copy(out, c.messages)

	return out
}

func check(v Validator, value any, context map[string]any) bool {
	if cv, ok := v.(ContextValidator); ok {
		return cv.IsValidWithContext(value, context)
	}

	return v.IsValid(value)
}
