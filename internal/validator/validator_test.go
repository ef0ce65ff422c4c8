package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/inputfilter/internal/plugin"
)

func resolve(t *testing.T, name string, opts plugin.Options) Validator {
	t.Helper()

	v, err := NewManager().Resolve(name, opts)
	require.NoError(t, err)

	return v
}

// stub is a configurable validator used to exercise chains.
type stub struct {
	valid bool
	msg   string
	calls int
}

func (s *stub) IsValid(any) bool {
	s.calls++
	return s.valid
}

func (s *stub) Messages() []string {
	if s.valid {
		return nil
	}

	return []string{s.msg}
}

func stubRegistry(stubs map[string]*stub) *Manager {
	m := plugin.NewRegistry[Validator]("test")
	for name, s := range stubs {
		m.RegisterInstance(name, s)
	}

	return m
}

// ---------------------------------------------------------------------------
// Chain
// ---------------------------------------------------------------------------

func TestChain_CollectsMessagesInPriorityOrder(t *testing.T) {
	first := &stub{msg: "first"}
	second := &stub{msg: "second"}
	m := stubRegistry(map[string]*stub{"first": first, "second": second})

	high := 5

	c, err := BuildChain(m, []plugin.Spec{
		{Name: "second"},
		{Name: "first", Priority: &high},
	})
	require.NoError(t, err)

	assert.False(t, c.IsValid("x", nil))
	assert.Equal(t, []string{"first", "second"}, c.Messages())
}

func TestChain_BreakChainOnFailure(t *testing.T) {
	breaker := &stub{msg: "stop"}
	after := &stub{valid: true}
	m := stubRegistry(map[string]*stub{"breaker": breaker, "after": after})

	c, err := BuildChain(m, []plugin.Spec{
		{Name: "breaker", BreakChainOnFailure: true},
		{Name: "after"},
	})
	require.NoError(t, err)

	assert.False(t, c.IsValid("x", nil))
	assert.Equal(t, []string{"stop"}, c.Messages())
	assert.Zero(t, after.calls)
}

func TestChain_ValidRunClearsMessages(t *testing.T) {
	s := &stub{msg: "bad"}
	m := stubRegistry(map[string]*stub{"s": s})

	c, err := BuildChain(m, []plugin.Spec{{Name: "s"}})
	require.NoError(t, err)

	assert.False(t, c.IsValid(1, nil))
	assert.NotEmpty(t, c.Messages())

	s.valid = true
	assert.True(t, c.IsValid(1, nil))
	assert.Empty(t, c.Messages())
}

func TestChain_NilAndEmpty(t *testing.T) {
	var c *Chain
	assert.True(t, c.IsValid(nil, nil))
	assert.Nil(t, c.Messages())

	assert.True(t, NewChain(NewManager()).IsValid("", nil))
}

func TestChain_PassesContext(t *testing.T) {
	c, err := BuildChain(NewManager(), []plugin.Spec{
		{Name: NameIdentical, Options: plugin.Options{"token": "password"}},
	})
	require.NoError(t, err)

	assert.True(t, c.IsValid("s3cret", map[string]any{"password": "s3cret"}))
	assert.False(t, c.IsValid("other", map[string]any{"password": "s3cret"}))
	assert.Equal(t, []string{MsgNotSame}, c.Messages())
}

// ---------------------------------------------------------------------------
// Builtins
// ---------------------------------------------------------------------------

func TestNewManager_RegistersBuiltins(t *testing.T) {
	m := NewManager()
	assert.Equal(t, ManagerName, m.Name())

	for _, name := range []string{
		NameNotEmpty, NameStringLength, NameRegex, NameDigits, NameEmailAddress,
		NameBetween, NameInArray, NameUUID, NameSemver, NameIdentical,
	} {
		assert.True(t, m.Has(name), name)
	}
}

func TestBuiltins(t *testing.T) {
	tests := []struct {
		name    string
		plugin  string
		opts    plugin.Options
		value   any
		valid   bool
		message string
	}{
		{"not_empty ok", NameNotEmpty, nil, "x", true, ""},
		{"not_empty blank", NameNotEmpty, nil, "  ", false, MsgIsEmpty},
		{"not_empty nil", NameNotEmpty, nil, nil, false, MsgIsEmpty},
		{"not_empty zero", NameNotEmpty, nil, 0, true, ""},
		{"string_length ok", NameStringLength, plugin.Options{"min": 2, "max": 4}, "äbc", true, ""},
		{"string_length short", NameStringLength, plugin.Options{"min": 2}, "a", false, "The input is less than 2 characters long"},
		{"string_length long", NameStringLength, plugin.Options{"max": "3"}, "abcd", false, "The input is more than 3 characters long"},
		{"string_length type", NameStringLength, nil, 12, false, "Invalid type given. String expected"},
		{"regex ok", NameRegex, plugin.Options{"pattern": `^[a-z]+$`}, "abc", true, ""},
		{"regex int", NameRegex, plugin.Options{"pattern": `^\d+$`}, 42, true, ""},
		{"regex mismatch", NameRegex, plugin.Options{"pattern": `^[a-z]+$`}, "ABC", false, "The input does not match against pattern '^[a-z]+$'"},
		{"digits ok", NameDigits, nil, "0123", true, ""},
		{"digits int", NameDigits, nil, 7, true, ""},
		{"digits letters", NameDigits, nil, "12a", false, MsgNotDigits},
		{"digits empty", NameDigits, nil, "", false, MsgNotDigits},
		{"email ok", NameEmailAddress, nil, "jane@example.com", true, ""},
		{"email display name", NameEmailAddress, nil, "Jane <jane@example.com>", false, MsgInvalidEmail},
		{"email garbage", NameEmailAddress, nil, "nope", false, MsgInvalidEmail},
		{"between inclusive edge", NameBetween, plugin.Options{"min": 1, "max": 10}, 10, true, ""},
		{"between string number", NameBetween, plugin.Options{"min": 1, "max": 10}, "5", true, ""},
		{"between outside", NameBetween, plugin.Options{"min": 1, "max": 10}, 11, false, "The input is not between '1' and '10', inclusively"},
		{"between strict edge", NameBetween, plugin.Options{"min": 1, "max": 10, "inclusive": false}, 1, false, "The input is not strictly between '1' and '10'"},
		{"in_array loose", NameInArray, plugin.Options{"haystack": []any{"1", "2"}}, 2, true, ""},
		{"in_array strict", NameInArray, plugin.Options{"haystack": []any{"1", "2"}, "strict": true}, 2, false, MsgNotInArray},
		{"uuid ok", NameUUID, nil, "f47ac10b-58cc-4372-a567-0e02b2c3d479", true, ""},
		{"uuid braces", NameUUID, nil, "{f47ac10b-58cc-4372-a567-0e02b2c3d479}", false, MsgInvalidUUID},
		{"semver ok", NameSemver, nil, "1.2.3", true, ""},
		{"semver bad", NameSemver, nil, "one", false, MsgInvalidSemver},
		{"semver constraint", NameSemver, plugin.Options{"constraint": "^1"}, "2.0.0", false, "The input does not satisfy constraint '^1'"},
		{"identical literal", NameIdentical, plugin.Options{"token": "yes"}, "yes", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := resolve(t, tt.plugin, tt.opts)

			assert.Equal(t, tt.valid, v.IsValid(tt.value))

			if tt.valid {
				assert.Empty(t, v.Messages())
			} else {
				assert.Equal(t, []string{tt.message}, v.Messages())
			}
		})
	}
}

func TestBuiltins_OptionErrors(t *testing.T) {
	tests := []struct {
		name   string
		plugin string
		opts   plugin.Options
		want   string
	}{
		{"regex missing pattern", NameRegex, nil, "option pattern is required"},
		{"regex bad pattern", NameRegex, plugin.Options{"pattern": "["}, "compiling pattern"},
		{"length inverted", NameStringLength, plugin.Options{"min": 5, "max": 2}, "greater than max"},
		{"between missing", NameBetween, plugin.Options{"min": 1}, "min and max are required"},
		{"in_array missing", NameInArray, nil, "haystack is required"},
		{"semver constraint", NameSemver, plugin.Options{"constraint": "nope nope"}, "parsing constraint"},
		{"identical missing", NameIdentical, nil, "token is required"},
		{"unknown option", NameDigits, plugin.Options{"x": 1}, NameDigits},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewManager().Resolve(tt.plugin, tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMessagesResetBetweenCalls(t *testing.T) {
	v := resolve(t, NameNotEmpty, nil)

	assert.False(t, v.IsValid(""))
	assert.True(t, v.IsValid("x"))
	assert.Empty(t, v.Messages())
}

func TestMessagesIsCopy(t *testing.T) {
	v := resolve(t, NameNotEmpty, nil)
	require.False(t, v.IsValid(""))

	msgs := v.Messages()
	msgs[0] = "changed"

	assert.Equal(t, []string{MsgIsEmpty}, v.Messages())
}
