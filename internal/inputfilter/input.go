package inputfilter

import (
	"github.com/hupe1980/inputfilter/internal/filter"
	"github.com/hupe1980/inputfilter/internal/validator"
)

// Entry is an element of an InputFilter: either *Input or *InputFilter.
type Entry interface {
	isEntry()
}

// Input is a leaf entry. It owns one filter chain and one validator chain.
//
// An Input keeps the value of the last SetValue call together with the
// result of the last validation, so a single Input must not be validated
// from several goroutines at once.
type Input struct {
	name            string
	required        bool
	allowEmpty      bool
	continueIfEmpty bool
	breakOnFailure  bool
	errorMessage    string
	fallback        any
	hasFallback     bool

	filters    *filter.Chain
	validators *validator.Chain

	raw             any
	hasValue        bool
	fallbackApplied bool
	messages        []string
}

// NewInput creates an optional input with empty chains.
func NewInput(name string) *Input {
	return &Input{
		name:       name,
		filters:    filter.NewChain(filter.NewManager()),
		validators: validator.NewChain(validator.NewManager()),
	}
}

func (*Input) isEntry() {}

// Name returns the key of the input within its input filter.
func (i *Input) Name() string { return i.name }

// Required reports whether a value must be present.
func (i *Input) Required() bool { return i.required }

// AllowEmpty reports whether an empty value passes without validation.
func (i *Input) AllowEmpty() bool { return i.allowEmpty }

// ContinueIfEmpty reports whether validators run for empty values.
func (i *Input) ContinueIfEmpty() bool { return i.continueIfEmpty }

// BreakOnFailure reports whether a failure of this input stops validation of
// the remaining entries.
func (i *Input) BreakOnFailure() bool { return i.breakOnFailure }

// ErrorMessage returns the message that replaces validator messages, or "".
func (i *Input) ErrorMessage() string { return i.errorMessage }

// FallbackValue returns the value used in place of a missing or invalid
// value, if one is configured.
func (i *Input) FallbackValue() (any, bool) { return i.fallback, i.hasFallback }

// FilterChain returns the filter chain.
func (i *Input) FilterChain() *filter.Chain { return i.filters }

// ValidatorChain returns the validator chain.
func (i *Input) ValidatorChain() *validator.Chain { return i.validators }

// SetValue stores the raw value and clears the last validation result.
func (i *Input) SetValue(v any) {
	i.raw = v
	i.hasValue = true
	i.fallbackApplied = false
	i.messages = nil
}

// ClearValue forgets the raw value.
func (i *Input) ClearValue() {
	i.raw = nil
	i.hasValue = false
	i.fallbackApplied = false
	i.messages = nil
}

// HasValue reports whether a value was set.
func (i *Input) HasValue() bool { return i.hasValue }

// RawValue returns the unfiltered value.
func (i *Input) RawValue() any { return i.raw }

// Value returns the filtered value, or the fallback value after a failed
// validation replaced it.
func (i *Input) Value() (any, error) {
	if i.fallbackApplied {
		return i.fallback, nil
	}

	return i.filters.Filter(i.raw)
}

// IsValid validates the filtered value. context holds the raw values of the
// enclosing input filter and is handed to context-aware validators.
func (i *Input) IsValid(context map[string]any) bool {
	i.fallbackApplied = false
	i.messages = nil

	if !i.hasValue {
		if i.hasFallback {
			i.fallbackApplied = true
			return true
		}

		if !i.required {
			return true
		}

		return i.fail([]string{validator.MsgIsEmpty})
	}

	value, err := i.filters.Filter(i.raw)
	if err != nil {
		return i.fail([]string{err.Error()})
	}

	if filter.IsEmpty(value) && !i.continueIfEmpty {
		if !i.required || i.allowEmpty {
			return true
		}

		return i.fail([]string{validator.MsgIsEmpty})
	}

	if i.validators.IsValid(value, context) {
		return true
	}

	if i.hasFallback {
		i.fallbackApplied = true
		return true
	}

	return i.fail(i.validators.Messages())
}

// Messages returns the messages of the last failed IsValid call.
func (i *Input) Messages() []string {
	out := make([]string, len(i.messages))
	copy(out, i.messages)

	return out
}

func (i *Input) fail(messages []string) bool {
	if i.errorMessage != "" {
		messages = []string{i.errorMessage}
	}

	i.messages = messages

	return false
}
