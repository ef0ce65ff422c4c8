package inputfilter

import (
	"fmt"

	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/hupe1980/inputfilter/internal/filter"
	"github.com/hupe1980/inputfilter/internal/plugin"
	"github.com/hupe1980/inputfilter/internal/spec"
	"github.com/hupe1980/inputfilter/internal/validator"
)

// ReferenceResolver builds the input filter a field refers to by name. path
// locates the referring field for error reporting.
type ReferenceResolver func(path *field.Path, name string) (*InputFilter, error)

// Deps are the registries an input filter is built against.
type Deps struct {
	Filters    plugin.Resolver[filter.Filter]
	Validators plugin.Resolver[validator.Validator]

	// References resolves fields whose type names another input filter.
	// When nil such fields are rejected as invalid.
	References ReferenceResolver
}

// BuildInputFilter builds an input filter from a parsed spec. Entries are
// added in spec order. path locates s for error reporting.
func BuildInputFilter(path *field.Path, s *spec.InputFilterSpec, deps Deps) (*InputFilter, error) {
	f := New()

	if s == nil {
		return f, nil
	}

	for _, fs := range s.Fields {
		e, err := BuildInput(path.Child(fs.Name), fs, deps)
		if err != nil {
			return nil, err
		}

		f.Add(fs.Name, e)
	}

	return f, nil
}

// BuildInput translates one field spec into an entry: a nested
// *InputFilter for inline children and references, an *Input otherwise.
// No partial entry is returned on failure.
func BuildInput(path *field.Path, fs spec.FieldSpec, deps Deps) (Entry, error) {
	if fs.IsNested() {
		return BuildInputFilter(path.Child(spec.KeyInputFilter), fs.Children, deps)
	}

	if ref := fs.Reference(); ref != "" {
		if deps.References == nil {
			return nil, spec.NewInvalidSpecError(field.ErrorList{
				field.NotFound(path.Child(spec.KeyType), ref),
			})
		}

		return deps.References(path, ref)
	}

	filters, err := filter.BuildChain(deps.Filters, fs.Filters)
	if err != nil {
		return nil, fmt.Errorf("%s: building filter chain: %w", path, err)
	}

	validators, err := validator.BuildChain(deps.Validators, fs.Validators)
	if err != nil {
		return nil, fmt.Errorf("%s: building validator chain: %w", path, err)
	}

	return &Input{
		name:            fs.Name,
		required:        fs.Required,
		allowEmpty:      fs.AllowEmpty,
		continueIfEmpty: fs.ContinueIfEmpty,
		breakOnFailure:  fs.BreakOnFailure,
		errorMessage:    fs.ErrorMessage,
		fallback:        fs.FallbackValue,
		hasFallback:     fs.HasFallback,
		filters:         filters,
		validators:      validators,
	}, nil
}
