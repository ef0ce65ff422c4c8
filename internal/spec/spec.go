package spec

import (
	"fmt"
	"slices"

	"github.com/spf13/cast"
	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/hupe1980/inputfilter/internal/maputil"
	"github.com/hupe1980/inputfilter/internal/plugin"
)

// Field spec keys.
const (
	KeyName            = "name"
	KeyType            = "type"
	KeyRequired        = "required"
	KeyAllowEmpty      = "allow_empty"
	KeyContinueIfEmpty = "continue_if_empty"
	KeyBreakOnFailure  = "break_on_failure"
	KeyErrorMessage    = "error_message"
	KeyFallbackValue   = "fallback_value"
	KeyFilters         = "filters"
	KeyValidators      = "validators"
	KeyInputFilter     = "input_filter"
)

// Plugin spec keys.
const (
	KeyOptions             = "options"
	KeyPriority            = "priority"
	KeyBreakChainOnFailure = "break_chain_on_failure"
)

// Field types. Any other type value names another configured input filter.
const (
	TypeInput       = "input"
	TypeInputFilter = "input_filter"
)

var (
	fieldKeys = []string{
		KeyAllowEmpty, KeyBreakOnFailure, KeyContinueIfEmpty, KeyErrorMessage,
		KeyFallbackValue, KeyFilters, KeyInputFilter, KeyName, KeyRequired,
		KeyType, KeyValidators,
	}
	filterKeys    = []string{KeyName, KeyOptions, KeyPriority}
	validatorKeys = []string{KeyBreakChainOnFailure, KeyName, KeyOptions, KeyPriority}
)

// InputFilterSpec is the parsed spec of one input filter.
type InputFilterSpec struct {
	Fields []FieldSpec
}

// Len returns the number of fields.
func (s *InputFilterSpec) Len() int {
	if s == nil {
		return 0
	}

	return len(s.Fields)
}

// FieldSpec is the parsed spec of one entry of an input filter.
type FieldSpec struct {
	Name            string
	Type            string
	Required        bool
	AllowEmpty      bool
	ContinueIfEmpty bool
	BreakOnFailure  bool
	ErrorMessage    string
	FallbackValue   any
	HasFallback     bool
	Filters         []plugin.Spec
	Validators      []plugin.Spec

	// Children is set for nested input filters declared inline.
	Children *InputFilterSpec
}

// IsNested reports whether the field is an inline nested input filter.
func (f FieldSpec) IsNested() bool { return f.Children != nil }

// Reference returns the name of the configured input filter the field
// points at, or "" for inputs and inline nested input filters.
func (f FieldSpec) Reference() string {
	switch f.Type {
	case "", TypeInput, TypeInputFilter:
		return ""
	default:
		return f.Type
	}
}

// Parse parses the field specs of one input filter. raw may be nil (no
// fields), a map of field name to field spec, or a list of field specs that
// carry their own name. path locates raw in the configuration and prefixes
// every reported error.
func Parse(path *field.Path, raw any) (*InputFilterSpec, error) {
	s, errs := parseInputFilter(path, raw)
	if err := NewInvalidSpecError(errs); err != nil {
		return nil, err
	}

	return s, nil
}

func parseInputFilter(path *field.Path, raw any) (*InputFilterSpec, field.ErrorList) {
	var (
		s    = &InputFilterSpec{}
		errs field.ErrorList
		seen = make(map[string]bool)
	)

	add := func(p *field.Path, f FieldSpec, fieldErrs field.ErrorList) {
		errs = append(errs, fieldErrs...)
		if len(fieldErrs) > 0 {
			return
		}

		if seen[f.Name] {
			errs = append(errs, field.Duplicate(p.Child(KeyName), f.Name))
			return
		}

		seen[f.Name] = true
		s.Fields = append(s.Fields, f)
	}

	switch val := raw.(type) {
	case nil:
	case []any:
		for i, item := range val {
			// A null list item names no field and is skipped.
			if item == nil {
				continue
			}

			p := path.Index(i)
			f, fieldErrs := parseField(p, "", item)
			add(p, f, fieldErrs)
		}
	default:
		entries, ok := maputil.Entries(raw)
		if !ok {
			return nil, field.ErrorList{field.TypeInvalid(path, raw, "must be a mapping or a list of field specs")}
		}

		for _, e := range entries {
			p := path.Child(e.Key)
			f, fieldErrs := parseField(p, e.Key, e.Value)
			add(p, f, fieldErrs)
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return s, nil
}

func parseField(path *field.Path, key string, raw any) (FieldSpec, field.ErrorList) {
	f := FieldSpec{Name: key}

	// "email:" with no value declares an optional input without chains.
	if raw == nil {
		if key == "" {
			return f, field.ErrorList{field.Required(path.Child(KeyName), "")}
		}

		return f, nil
	}

	entries, ok := maputil.Entries(raw)
	if !ok {
		return f, field.ErrorList{field.TypeInvalid(path, raw, "field spec must be a mapping")}
	}

	var (
		errs        field.ErrorList
		children    any
		hasChildren bool
		badName     bool
	)

	for _, e := range entries {
		p := path.Child(e.Key)

		switch e.Key {
		case KeyName:
			name, ok := e.Value.(string)
			if !ok || name == "" {
				errs = append(errs, field.Invalid(p, e.Value, "must be a non-empty string"))
				badName = true

				continue
			}

			f.Name = name
		case KeyType:
			t, ok := e.Value.(string)
			if !ok {
				errs = append(errs, field.Invalid(p, e.Value, "must be a string"))
				continue
			}

			f.Type = t
		case KeyRequired:
			f.Required, errs = parseBool(p, e.Value, errs)
		case KeyAllowEmpty:
			f.AllowEmpty, errs = parseBool(p, e.Value, errs)
		case KeyContinueIfEmpty:
			f.ContinueIfEmpty, errs = parseBool(p, e.Value, errs)
		case KeyBreakOnFailure:
			f.BreakOnFailure, errs = parseBool(p, e.Value, errs)
		case KeyErrorMessage:
			msg, ok := e.Value.(string)
			if !ok {
				errs = append(errs, field.Invalid(p, e.Value, "must be a string"))
				continue
			}

			f.ErrorMessage = msg
		case KeyFallbackValue:
			f.FallbackValue = maputil.ToPlain(e.Value)
			f.HasFallback = true
		case KeyFilters:
			specs, pluginErrs := parsePlugins(p, e.Value, filterKeys)
			f.Filters = specs
			errs = append(errs, pluginErrs...)
		case KeyValidators:
			specs, pluginErrs := parsePlugins(p, e.Value, validatorKeys)
			f.Validators = specs
			errs = append(errs, pluginErrs...)
		case KeyInputFilter:
			children, hasChildren = e.Value, true
		default:
			errs = append(errs, field.NotSupported(p, e.Key, fieldKeys))
		}
	}

	if f.Name == "" && !badName {
		errs = append(errs, field.Required(path.Child(KeyName), ""))
	}

	if hasChildren && f.Type != "" && f.Type != TypeInputFilter {
		errs = append(errs, field.Invalid(path.Child(KeyType), f.Type,
			fmt.Sprintf("must be empty or %q when %s is set", TypeInputFilter, KeyInputFilter)))
	}

	if hasChildren || f.Type == TypeInputFilter {
		nested, nestedErrs := parseInputFilter(path.Child(KeyInputFilter), children)
		errs = append(errs, nestedErrs...)
		f.Type = TypeInputFilter
		f.Children = nested
	}

	if f.Children != nil || f.Reference() != "" {
		if len(f.Filters) > 0 {
			errs = append(errs, field.Forbidden(path.Child(KeyFilters), "not allowed on input filter entries"))
		}

		if len(f.Validators) > 0 {
			errs = append(errs, field.Forbidden(path.Child(KeyValidators), "not allowed on input filter entries"))
		}
	}

	return f, errs
}

// ParsePlugins parses a list of plugin specs. Each item is either a plugin
// name or a mapping with name, options, and priority keys; validator specs
// additionally accept break_chain_on_failure.
func ParsePlugins(path *field.Path, raw any, validators bool) ([]plugin.Spec, error) {
	keys := filterKeys
	if validators {
		keys = validatorKeys
	}

	specs, errs := parsePlugins(path, raw, keys)
	if err := NewInvalidSpecError(errs); err != nil {
		return nil, err
	}

	return specs, nil
}

func parsePlugins(path *field.Path, raw any, keys []string) ([]plugin.Spec, field.ErrorList) {
	if raw == nil {
		return nil, nil
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, field.ErrorList{field.TypeInvalid(path, raw, "must be a list of plugin specs")}
	}

	var (
		specs = make([]plugin.Spec, 0, len(list))
		errs  field.ErrorList
	)

	for i, item := range list {
		s, itemErrs := parsePlugin(path.Index(i), item, keys)
		if len(itemErrs) > 0 {
			errs = append(errs, itemErrs...)
			continue
		}

		specs = append(specs, s)
	}

	return specs, errs
}

func parsePlugin(path *field.Path, raw any, keys []string) (plugin.Spec, field.ErrorList) {
	if name, ok := raw.(string); ok {
		if name == "" {
			return plugin.Spec{}, field.ErrorList{field.Required(path.Child(KeyName), "")}
		}

		return plugin.Spec{Name: name}, nil
	}

	entries, ok := maputil.Entries(raw)
	if !ok {
		return plugin.Spec{}, field.ErrorList{field.TypeInvalid(path, raw, "plugin spec must be a name or a mapping")}
	}

	var (
		s    plugin.Spec
		errs field.ErrorList
	)

	for _, e := range entries {
		p := path.Child(e.Key)

		if !slices.Contains(keys, e.Key) {
			errs = append(errs, field.NotSupported(p, e.Key, keys))
			continue
		}

		switch e.Key {
		case KeyName:
			name, ok := e.Value.(string)
			if !ok {
				errs = append(errs, field.Invalid(p, e.Value, "must be a string"))
				continue
			}

			s.Name = name
		case KeyOptions:
			if e.Value == nil {
				continue
			}

			opts, ok := maputil.ToPlain(e.Value).(map[string]any)
			if !ok {
				errs = append(errs, field.TypeInvalid(p, e.Value, "must be a mapping"))
				continue
			}

			s.Options = plugin.Options(opts)
		case KeyPriority:
			if _, isBool := e.Value.(bool); isBool {
				errs = append(errs, field.Invalid(p, e.Value, "must be an integer"))
				continue
			}

			prio, err := cast.ToIntE(e.Value)
			if err != nil {
				errs = append(errs, field.Invalid(p, e.Value, "must be an integer"))
				continue
			}

			s.Priority = &prio
		case KeyBreakChainOnFailure:
			s.BreakChainOnFailure, errs = parseBool(p, e.Value, errs)
		}
	}

	if s.Name == "" && len(errs) == 0 {
		errs = append(errs, field.Required(path.Child(KeyName), ""))
	}

	return s, errs
}

func parseBool(path *field.Path, v any, errs field.ErrorList) (bool, field.ErrorList) {
	if v == nil {
		return false, errs
	}

	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, append(errs, field.Invalid(path, v, "must be a boolean"))
	}

	return b, errs
}
