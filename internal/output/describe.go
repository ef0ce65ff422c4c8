package output

import (
	"github.com/hupe1980/inputfilter/internal/filter"
	"github.com/hupe1980/inputfilter/internal/inputfilter"
	"github.com/hupe1980/inputfilter/internal/plugin"
	"github.com/hupe1980/inputfilter/internal/validator"
)

// Describe returns a serializable tree of f. Entries keep their declaration
// order; the build ID is left out so that two builds of the same
// configuration describe identically.
func Describe(name string, f *inputfilter.InputFilter) map[string]any {
	return map[string]any{
		"name":   name,
		"type":   "input_filter",
		"inputs": describeEntries(f),
	}
}

func describeEntries(f *inputfilter.InputFilter) []any {
	entries := make([]any, 0, f.Len())

	for _, name := range f.Names() {
		e, _ := f.Get(name)

		switch entry := e.(type) {
		case *inputfilter.Input:
			entries = append(entries, describeInput(name, entry))
		case *inputfilter.InputFilter:
			entries = append(entries, Describe(name, entry))
		}
	}

	return entries
}

func describeInput(name string, in *inputfilter.Input) map[string]any {
	d := map[string]any{
		"name":              name,
		"type":              "input",
		"required":          in.Required(),
		"allow_empty":       in.AllowEmpty(),
		"continue_if_empty": in.ContinueIfEmpty(),
		"break_on_failure":  in.BreakOnFailure(),
		"filters":           describeFilters(in.FilterChain()),
		"validators":        describeValidators(in.ValidatorChain()),
	}

	if msg := in.ErrorMessage(); msg != "" {
		d["error_message"] = msg
	}

	if v, ok := in.FallbackValue(); ok {
		d["fallback_value"] = v
	}

	return d
}

func describeFilters(c *filter.Chain) []any {
	if c == nil || c.Chain == nil {
		return []any{}
	}

	return describeChain(c.Entries(), false)
}

func describeValidators(c *validator.Chain) []any {
	if c == nil || c.Chain == nil {
		return []any{}
	}

	return describeChain(c.Entries(), true)
}

func describeChain[T any](entries []plugin.Entry[T], validators bool) []any {
	out := make([]any, 0, len(entries))

	for _, e := range entries {
		d := map[string]any{
			"name":     e.Name,
			"priority": e.Priority,
		}

		if validators {
			d["break_chain_on_failure"] = e.BreakChainOnFailure
		}

		out = append(out, d)
	}

	return out
}
