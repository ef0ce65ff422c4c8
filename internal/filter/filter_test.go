package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/inputfilter/internal/plugin"
)

func resolve(t *testing.T, m *Manager, name string, opts plugin.Options) Filter {
	t.Helper()

	f, err := m.Resolve(name, opts)
	require.NoError(t, err)

	return f
}

func apply(t *testing.T, f Filter, in any) any {
	t.Helper()

	out, err := f.Filter(in)
	require.NoError(t, err)

	return out
}

// ---------------------------------------------------------------------------
// Chain
// ---------------------------------------------------------------------------

func TestChain_AppliesInPriorityOrder(t *testing.T) {
	m := plugin.NewRegistry[Filter]("test")
	m.RegisterFactory("append_a", func(plugin.Options) (Filter, error) {
		return Func(func(v any) (any, error) { return v.(string) + "a", nil }), nil
	})
	m.RegisterFactory("append_b", func(plugin.Options) (Filter, error) {
		return Func(func(v any) (any, error) { return v.(string) + "b", nil }), nil
	})

	high := 10

	c, err := BuildChain(m, []plugin.Spec{
		{Name: "append_a"},
		{Name: "append_b", Priority: &high},
	})
	require.NoError(t, err)

	out, err := c.Filter("")
	require.NoError(t, err)
	assert.Equal(t, "ba", out)
}

func TestChain_ErrorStopsChain(t *testing.T) {
	boom := errors.New("boom")

	m := plugin.NewRegistry[Filter]("test")
	m.RegisterInstance("fail", Func(func(any) (any, error) { return nil, boom }))

	c, err := BuildChain(m, []plugin.Spec{{Name: "fail"}})
	require.NoError(t, err)

	_, err = c.Filter("x")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `filter "fail"`)
}

func TestChain_NilAndEmpty(t *testing.T) {
	var c *Chain

	out, err := c.Filter("same")
	require.NoError(t, err)
	assert.Equal(t, "same", out)

	empty := NewChain(NewManager())
	out, err = empty.Filter(3)
	require.NoError(t, err)
	assert.Equal(t, 3, out)
	assert.Zero(t, empty.Len())
}

func TestBuildChain_UnknownFilter(t *testing.T) {
	_, err := BuildChain(NewManager(), []plugin.Spec{{Name: "nope"}})
	assert.ErrorIs(t, err, plugin.ErrPluginNotFound)
}

// ---------------------------------------------------------------------------
// Builtins
// ---------------------------------------------------------------------------

func TestNewManager_RegistersBuiltins(t *testing.T) {
	m := NewManager()
	assert.Equal(t, ManagerName, m.Name())

	for _, name := range []string{
		NameStringTrim, NameStringToLower, NameStringToUpper, NameStripNewLines,
		NameToInt, NameToFloat, NameBoolean, NameNull, NameDigits, NamePatternReplace,
	} {
		assert.True(t, m.Has(name), name)
	}

	assert.True(t, m.Has("StringTrim"), "names are normalized")
}

func TestStringTrim(t *testing.T) {
	m := NewManager()

	assert.Equal(t, "hi", apply(t, resolve(t, m, NameStringTrim, nil), "  hi \n"))
	assert.Equal(t, "hi", apply(t, resolve(t, m, NameStringTrim, plugin.Options{"charlist": "-"}), "--hi-"))
	assert.Equal(t, 5, apply(t, resolve(t, m, NameStringTrim, nil), 5))
}

func TestStringTrim_UnknownOption(t *testing.T) {
	_, err := NewManager().Resolve(NameStringTrim, plugin.Options{"chars": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), NameStringTrim)
}

func TestStringCaseFilters(t *testing.T) {
	m := NewManager()

	assert.Equal(t, "abc", apply(t, resolve(t, m, NameStringToLower, nil), "AbC"))
	assert.Equal(t, "ABC", apply(t, resolve(t, m, NameStringToUpper, nil), "AbC"))
	assert.Equal(t, true, apply(t, resolve(t, m, NameStringToUpper, nil), true))
}

func TestStripNewLinesAndDigits(t *testing.T) {
	m := NewManager()

	assert.Equal(t, "ab", apply(t, resolve(t, m, NameStripNewLines, nil), "a\r\nb"))
	assert.Equal(t, "0301", apply(t, resolve(t, m, NameDigits, nil), "(030) 1"))
}

func TestOptionlessFilterRejectsOptions(t *testing.T) {
	_, err := NewManager().Resolve(NameToInt, plugin.Options{"x": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "takes no options")
}

func TestToInt(t *testing.T) {
	f := resolve(t, NewManager(), NameToInt, nil)

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"string", " 42 ", 42},
		{"float", 3.9, 3},
		{"unconvertible", "abc", "abc"},
		{"non-scalar", []any{1}, []any{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apply(t, f, tt.in))
		})
	}
}

func TestToFloat(t *testing.T) {
	f := resolve(t, NewManager(), NameToFloat, nil)

	assert.Equal(t, 1.5, apply(t, f, "1.5"))
	assert.Equal(t, "x", apply(t, f, "x"))
}

func TestBoolean(t *testing.T) {
	f := resolve(t, NewManager(), NameBoolean, nil)

	tests := []struct {
		in   any
		want any
	}{
		{"yes", true},
		{"off", false},
		{"", false},
		{nil, false},
		{1, true},
		{"maybe", "maybe"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, apply(t, f, tt.in), "%v", tt.in)
	}
}

func TestNull(t *testing.T) {
	f := resolve(t, NewManager(), NameNull, nil)

	assert.Nil(t, apply(t, f, ""))
	assert.Nil(t, apply(t, f, []any{}))
	assert.Equal(t, "x", apply(t, f, "x"))
	assert.Equal(t, 0, apply(t, f, 0))
}

func TestPatternReplace(t *testing.T) {
	m := NewManager()

	f := resolve(t, m, NamePatternReplace, plugin.Options{"pattern": `\s+`, "replacement": "-"})
	assert.Equal(t, "a-b-c", apply(t, f, "a b   c"))

	_, err := m.Resolve(NamePatternReplace, nil)
	assert.ErrorContains(t, err, "option pattern is required")

	_, err = m.Resolve(NamePatternReplace, plugin.Options{"pattern": "("})
	assert.ErrorContains(t, err, "compiling pattern")
}

func TestIsEmpty(t *testing.T) {
	var nilPtr *int

	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty(map[string]any{}))
	assert.True(t, IsEmpty([]string{}))
	assert.True(t, IsEmpty(nilPtr))
	assert.False(t, IsEmpty(0))
	assert.False(t, IsEmpty(false))
	assert.False(t, IsEmpty(" "))
}

func TestSharedScopeIdentity(t *testing.T) {
	m := NewManager()

	a := resolve(t, m, NameToInt, nil)
	b := resolve(t, m, NameToInt, nil)
	assert.Same(t, a, b)

	perCall := NewManager(plugin.WithScope(plugin.ScopePerCall))
	c := resolve(t, perCall, NameToInt, nil)
	d := resolve(t, perCall, NameToInt, nil)
	assert.NotSame(t, c, d)
}
