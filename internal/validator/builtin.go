package validator

import (
	"fmt"
	"net/mail"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/hupe1980/inputfilter/internal/filter"
	"github.com/hupe1980/inputfilter/internal/plugin"
)

// Builtin validator names.
const (
	NameNotEmpty     = "not_empty"
	NameStringLength = "string_length"
	NameRegex        = "regex"
	NameDigits       = "digits"
	NameEmailAddress = "email_address"
	NameBetween      = "between"
	NameInArray      = "in_array"
	NameUUID         = "uuid"
	NameSemver       = "semver"
	NameIdentical    = "identical"
)

// Failure messages of the builtin validators.
const (
	MsgIsEmpty          = "Value is required and can't be empty"
	MsgInvalidType      = "Invalid type given"
	MsgTooShort         = "The input is less than %d characters long"
	MsgTooLong          = "The input is more than %d characters long"
	MsgRegexNotMatch    = "The input does not match against pattern '%s'"
	MsgNotDigits        = "The input must contain only digits"
	MsgInvalidEmail     = "The input is not a valid email address"
	MsgNotBetween       = "The input is not between '%v' and '%v', inclusively"
	MsgNotBetweenStrict = "The input is not strictly between '%v' and '%v'"
	MsgNotInArray       = "The input was not found in the haystack"
	MsgInvalidUUID      = "The input does not match the format of a UUID"
	MsgInvalidSemver    = "The input is not a valid semantic version"
	MsgSemverConstraint = "The input does not satisfy constraint '%s'"
	MsgNotSame          = "The two given tokens do not match"
)

// NewManager returns a validator manager pre-populated with the builtin
// validators.
func NewManager(opts ...plugin.Option) *Manager {
	m := plugin.NewRegistry[Validator](ManagerName, opts...)
	RegisterBuiltins(m)

	return m
}

// RegisterBuiltins registers the builtin validator factories on m.
func RegisterBuiltins(m *Manager) {
	m.RegisterFactory(NameNotEmpty, decoded(NameNotEmpty, func() Validator { return &NotEmpty{} }))
	m.RegisterFactory(NameStringLength, decoded(NameStringLength, func() Validator { return &StringLength{} }))
	m.RegisterFactory(NameRegex, decoded(NameRegex, func() Validator { return &Regex{} }))
	m.RegisterFactory(NameDigits, decoded(NameDigits, func() Validator { return &Digits{} }))
	m.RegisterFactory(NameEmailAddress, decoded(NameEmailAddress, func() Validator { return &EmailAddress{} }))
	m.RegisterFactory(NameBetween, decoded(NameBetween, func() Validator { return &Between{Inclusive: true} }))
	m.RegisterFactory(NameInArray, decoded(NameInArray, func() Validator { return &InArray{} }))
	m.RegisterFactory(NameUUID, decoded(NameUUID, func() Validator { return &UUID{} }))
	m.RegisterFactory(NameSemver, decoded(NameSemver, func() Validator { return &Semver{} }))
	m.RegisterFactory(NameIdentical, decoded(NameIdentical, func() Validator { return &Identical{Strict: true} }))
}

// initializer is implemented by validators that check or compile their
// options after decoding.
type initializer interface {
	init() error
}

func decoded(name string, newFn func() Validator) plugin.Factory[Validator] {
	return func(opts plugin.Options) (Validator, error) {
		v := newFn()
		if err := plugin.DecodeOptions(opts, v); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		if i, ok := v.(initializer); ok {
			if err := i.init(); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
		}

		return v, nil
	}
}

// base stores the messages of the last check.
type base struct {
	messages []string
}

// Messages implements Validator.
func (b *base) Messages() []string {
	out := make([]string, len(b.messages))
	copy(out, b.messages)

	return out
}

func (b *base) reset() { b.messages = nil }

func (b *base) fail(format string, args ...any) bool {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	b.messages = append(b.messages, msg)

	return false
}

// ---------------------------------------------------------------------------
// NotEmpty
// ---------------------------------------------------------------------------

// NotEmpty rejects nil, blank strings, and empty collections.
type NotEmpty struct {
	base
}

// IsValid implements Validator.
func (v *NotEmpty) IsValid(value any) bool {
	v.reset()

	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return v.fail(MsgIsEmpty)
	}

	if filter.IsEmpty(value) {
		return v.fail(MsgIsEmpty)
	}

	return true
}

// ---------------------------------------------------------------------------
// StringLength
// ---------------------------------------------------------------------------

// StringLength checks the rune count of a string. A zero Max means no upper
// bound.
type StringLength struct {
	base

	Min int `mapstructure:"min"`
	Max int `mapstructure:"max"`
}

func (v *StringLength) init() error {
	if v.Min < 0 || v.Max < 0 {
		return fmt.Errorf("min and max must not be negative")
	}

	if v.Max > 0 && v.Min > v.Max {
		return fmt.Errorf("min %d is greater than max %d", v.Min, v.Max)
	}

	return nil
}

// IsValid implements Validator.
func (v *StringLength) IsValid(value any) bool {
	v.reset()

	s, ok := value.(string)
	if !ok {
		return v.fail(MsgInvalidType + ". String expected")
	}

	n := utf8.RuneCountInString(s)

	switch {
	case n < v.Min:
		return v.fail(MsgTooShort, v.Min)
	case v.Max > 0 && n > v.Max:
		return v.fail(MsgTooLong, v.Max)
	}

	return true
}

// ---------------------------------------------------------------------------
// Regex
// ---------------------------------------------------------------------------

// Regex matches scalar values against a regular expression.
type Regex struct {
	base

	Pattern string `mapstructure:"pattern"`

	re *regexp.Regexp
}

func (v *Regex) init() error {
	if v.Pattern == "" {
		return fmt.Errorf("option pattern is required")
	}

	re, err := regexp.Compile(v.Pattern)
	if err != nil {
		return fmt.Errorf("compiling pattern %q: %w", v.Pattern, err)
	}

	v.re = re

	return nil
}

// IsValid implements Validator.
func (v *Regex) IsValid(value any) bool {
	v.reset()

	s, ok := scalarString(value)
	if !ok {
		return v.fail(MsgInvalidType + ". String, integer or float expected")
	}

	if !v.re.MatchString(s) {
		return v.fail(MsgRegexNotMatch, v.Pattern)
	}

	return true
}

// ---------------------------------------------------------------------------
// Digits
// ---------------------------------------------------------------------------

// Digits accepts non-empty values made of decimal digits only.
type Digits struct {
	base
}

// IsValid implements Validator.
func (v *Digits) IsValid(value any) bool {
	v.reset()

	s, ok := scalarString(value)
	if !ok {
		return v.fail(MsgInvalidType + ". String, integer or float expected")
	}

	if s == "" {
		return v.fail(MsgNotDigits)
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return v.fail(MsgNotDigits)
		}
	}

	return true
}

// ---------------------------------------------------------------------------
// EmailAddress
// ---------------------------------------------------------------------------

// EmailAddress accepts bare RFC 5322 addresses such as "jane@example.com".
// Display names are rejected.
type EmailAddress struct {
	base
}

// IsValid implements Validator.
func (v *EmailAddress) IsValid(value any) bool {
	v.reset()

	s, ok := value.(string)
	if !ok {
		return v.fail(MsgInvalidType + ". String expected")
	}

	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return v.fail(MsgInvalidEmail)
	}

	return true
}

// ---------------------------------------------------------------------------
// Between
// ---------------------------------------------------------------------------

// Between checks that a numeric value lies between Min and Max.
type Between struct {
	base

	Min       *float64 `mapstructure:"min"`
	Max       *float64 `mapstructure:"max"`
	Inclusive bool     `mapstructure:"inclusive"`
}

func (v *Between) init() error {
	if v.Min == nil || v.Max == nil {
		return fmt.Errorf("options min and max are required")
	}

	return nil
}

// IsValid implements Validator.
func (v *Between) IsValid(value any) bool {
	v.reset()

	if !isScalar(value) {
		return v.fail(MsgInvalidType + ". Number expected")
	}

	n, err := cast.ToFloat64E(value)
	if err != nil {
		return v.fail(MsgInvalidType + ". Number expected")
	}

	if v.Inclusive {
		if n < *v.Min || n > *v.Max {
			return v.fail(MsgNotBetween, *v.Min, *v.Max)
		}

		return true
	}

	if n <= *v.Min || n >= *v.Max {
		return v.fail(MsgNotBetweenStrict, *v.Min, *v.Max)
	}

	return true
}

// ---------------------------------------------------------------------------
// InArray
// ---------------------------------------------------------------------------

// InArray accepts values contained in Haystack. Without Strict, values are
// compared by their string form so that "1" matches 1.
type InArray struct {
	base

	Haystack []any `mapstructure:"haystack"`
	Strict   bool  `mapstructure:"strict"`
}

func (v *InArray) init() error {
	if len(v.Haystack) == 0 {
		return fmt.Errorf("option haystack is required")
	}

	return nil
}

// IsValid implements Validator.
func (v *InArray) IsValid(value any) bool {
	v.reset()

	for _, h := range v.Haystack {
		if equal(h, value, v.Strict) {
			return true
		}
	}

	return v.fail(MsgNotInArray)
}

// ---------------------------------------------------------------------------
// UUID
// ---------------------------------------------------------------------------

// UUID accepts canonical 36 character UUID strings.
type UUID struct {
	base
}

// IsValid implements Validator.
func (v *UUID) IsValid(value any) bool {
	v.reset()

	s, ok := value.(string)
	if !ok {
		return v.fail(MsgInvalidType + ". String expected")
	}

	if len(s) != 36 {
		return v.fail(MsgInvalidUUID)
	}

	if _, err := uuid.Parse(s); err != nil {
		return v.fail(MsgInvalidUUID)
	}

	return true
}

// ---------------------------------------------------------------------------
// Semver
// ---------------------------------------------------------------------------

// Semver accepts semantic versions, optionally restricted by a constraint
// such as ">= 1.2, < 2".
type Semver struct {
	base

	Constraint string `mapstructure:"constraint"`

	constraint *semver.Constraints
}

func (v *Semver) init() error {
	if v.Constraint == "" {
		return nil
	}

	c, err := semver.NewConstraint(v.Constraint)
	if err != nil {
		return fmt.Errorf("parsing constraint %q: %w", v.Constraint, err)
	}

	v.constraint = c

	return nil
}

// IsValid implements Validator.
func (v *Semver) IsValid(value any) bool {
	v.reset()

	s, ok := value.(string)
	if !ok {
		return v.fail(MsgInvalidType + ". String expected")
	}

	ver, err := semver.NewVersion(s)
	if err != nil {
		return v.fail(MsgInvalidSemver)
	}

	if v.constraint != nil && !v.constraint.Check(ver) {
		return v.fail(MsgSemverConstraint, v.Constraint)
	}

	return true
}

// ---------------------------------------------------------------------------
// Identical
// ---------------------------------------------------------------------------

// Identical compares a value with a token. When the validation context holds
// a value under the token name, that sibling value is the comparison target;
// otherwise the token itself is.
type Identical struct {
	base

	Token  string `mapstructure:"token"`
	Strict bool   `mapstructure:"strict"`
}

func (v *Identical) init() error {
	if v.Token == "" {
		return fmt.Errorf("option token is required")
	}

	return nil
}

// IsValid implements Validator.
func (v *Identical) IsValid(value any) bool {
	return v.IsValidWithContext(value, nil)
}

// IsValidWithContext implements ContextValidator.
func (v *Identical) IsValidWithContext(value any, context map[string]any) bool {
	v.reset()

	var want any = v.Token
	if sibling, ok := context[v.Token]; ok {
		want = sibling
	}

	if !equal(want, value, v.Strict) {
		return v.fail(MsgNotSame)
	}

	return true
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func equal(a, b any, strict bool) bool {
	if strict {
		return reflect.DeepEqual(a, b)
	}

	if !isScalar(a) || !isScalar(b) {
		return reflect.DeepEqual(a, b)
	}

	return fmt.Sprint(a) == fmt.Sprint(b)
}

func scalarString(value any) (string, bool) {
	if !isScalar(value) {
		return "", false
	}

	if _, isBool := value.(bool); isBool {
		return "", false
	}

	s, err := cast.ToStringE(value)

	return s, err == nil
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

// Compile-time interface checks.
var (
	_ Validator        = (*NotEmpty)(nil)
	_ Validator        = (*StringLength)(nil)
	_ Validator        = (*Regex)(nil)
	_ Validator        = (*Digits)(nil)
	_ Validator        = (*EmailAddress)(nil)
	_ Validator        = (*Between)(nil)
	_ Validator        = (*InArray)(nil)
	_ Validator        = (*UUID)(nil)
	_ Validator        = (*Semver)(nil)
	_ ContextValidator = (*Identical)(nil)
)
