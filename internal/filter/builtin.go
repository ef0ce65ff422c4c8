package filter

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/spf13/cast"

	"github.com/hupe1980/inputfilter/internal/plugin"
)

// Builtin filter names.
const (
	NameStringTrim     = "string_trim"
	NameStringToLower  = "string_to_lower"
	NameStringToUpper  = "string_to_upper"
	NameStripNewLines  = "strip_new_lines"
	NameToInt          = "to_int"
	NameToFloat        = "to_float"
	NameBoolean        = "boolean"
	NameNull           = "null"
	NameDigits         = "digits"
	NamePatternReplace = "pattern_replace"
)

// NewManager returns a filter manager pre-populated with the builtin
// filters.
func NewManager(opts ...plugin.Option) *Manager {
	m := plugin.NewRegistry[Filter](ManagerName, opts...)
	RegisterBuiltins(m)

	return m
}

// RegisterBuiltins registers the builtin filter factories on m.
func RegisterBuiltins(m *Manager) {
	m.RegisterFactory(NameStringTrim, newStringTrim)
	m.RegisterFactory(NameStringToLower, stringFunc(NameStringToLower, strings.ToLower))
	m.RegisterFactory(NameStringToUpper, stringFunc(NameStringToUpper, strings.ToUpper))
	m.RegisterFactory(NameStripNewLines, stringFunc(NameStripNewLines, func(s string) string {
		return strings.NewReplacer("\r", "", "\n", "").Replace(s)
	}))
	m.RegisterFactory(NameDigits, stringFunc(NameDigits, func(s string) string {
		return strings.Map(func(r rune) rune {
			if unicode.IsDigit(r) {
				return r
			}

			return -1
		}, s)
	}))
	m.RegisterFactory(NameToInt, noOptions(NameToInt, Func(toInt)))
	m.RegisterFactory(NameToFloat, noOptions(NameToFloat, Func(toFloat)))
	m.RegisterFactory(NameBoolean, noOptions(NameBoolean, Func(toBool)))
	m.RegisterFactory(NameNull, noOptions(NameNull, Func(toNull)))
	m.RegisterFactory(NamePatternReplace, newPatternReplace)
}

// ---------------------------------------------------------------------------
// StringTrim
// ---------------------------------------------------------------------------

// StringTrim removes leading and trailing characters from strings. Without
// a charlist it trims Unicode white space.
type StringTrim struct {
	Charlist string `mapstructure:"charlist"`
}

func newStringTrim(opts plugin.Options) (Filter, error) {
	f := &StringTrim{}
	if err := plugin.DecodeOptions(opts, f); err != nil {
		return nil, fmt.Errorf("%s: %w", NameStringTrim, err)
	}

	return f, nil
}

// Filter implements Filter. Non-string values pass through unchanged.
func (f *StringTrim) Filter(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}

	if f.Charlist == "" {
		return strings.TrimSpace(s), nil
	}

	return strings.Trim(s, f.Charlist), nil
}

// ---------------------------------------------------------------------------
// PatternReplace
// ---------------------------------------------------------------------------

// PatternReplace replaces every match of a regular expression in string
// values.
type PatternReplace struct {
	Pattern     string `mapstructure:"pattern"`
	Replacement string `mapstructure:"replacement"`

	re *regexp.Regexp
}

func newPatternReplace(opts plugin.Options) (Filter, error) {
	f := &PatternReplace{}
	if err := plugin.DecodeOptions(opts, f); err != nil {
		return nil, fmt.Errorf("%s: %w", NamePatternReplace, err)
	}

	if f.Pattern == "" {
		return nil, fmt.Errorf("%s: option pattern is required", NamePatternReplace)
	}

	re, err := regexp.Compile(f.Pattern)
	if err != nil {
		return nil, fmt.Errorf("%s: compiling pattern %q: %w", NamePatternReplace, f.Pattern, err)
	}

	f.re = re

	return f, nil
}

// Filter implements Filter.
func (f *PatternReplace) Filter(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}

	return f.re.ReplaceAllString(s, f.Replacement), nil
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// stringFunc builds an option-less factory for a filter that only touches
// string values.
func stringFunc(name string, fn func(string) string) plugin.Factory[Filter] {
	return noOptions(name, Func(func(value any) (any, error) {
		s, ok := value.(string)
		if !ok {
			return value, nil
		}

		return fn(s), nil
	}))
}

// noOptions returns a factory that creates a fresh wrapper around f on each
// call and rejects any options.
func noOptions(name string, f Func) plugin.Factory[Filter] {
	return func(opts plugin.Options) (Filter, error) {
		if len(opts) > 0 {
			return nil, fmt.Errorf("filter %s takes no options", name)
		}

		return &funcFilter{fn: f}, nil
	}
}

// funcFilter gives function filters pointer identity so that a shared
// registry scope is observable.
type funcFilter struct {
	fn Func
}

func (f *funcFilter) Filter(value any) (any, error) { return f.fn(value) }

func toInt(value any) (any, error) {
	if !isScalar(value) {
		return value, nil
	}

	in := value
	if s, ok := value.(string); ok {
		in = strings.TrimSpace(s)
	}

	i, err := cast.ToIntE(in)
	if err != nil {
		return value, nil
	}

	return i, nil
}

func toFloat(value any) (any, error) {
	if !isScalar(value) {
		return value, nil
	}

	f, err := cast.ToFloat64E(value)
	if err != nil {
		return value, nil
	}

	return f, nil
}

func toBool(value any) (any, error) {
	if value == nil {
		return false, nil
	}

	if s, ok := value.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "", "0", "false", "no", "off":
			return false, nil
		case "1", "true", "yes", "on":
			return true, nil
		}
	}

	b, err := cast.ToBoolE(value)
	if err != nil {
		return value, nil
	}

	return b, nil
}

// toNull converts empty values (empty string, empty slice or map) to nil.
func toNull(value any) (any, error) {
	if IsEmpty(value) {
		return nil, nil
	}

	return value, nil
}

// IsEmpty reports whether value is nil, an empty string, or an empty slice
// or map.
func IsEmpty(value any) bool {
	if value == nil {
		return true
	}

	switch v := value.(type) {
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

func isScalar(value any) bool {
	switch value.(type) {
	case string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}
