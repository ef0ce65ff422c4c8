package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServices_SetGetHas(t *testing.T) {
	s := New()
	assert.False(t, s.Has("config"))

	s.Set("config", map[string]any{"a": 1})
	assert.True(t, s.Has("config"))

	v, err := s.Get("config")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1}, v)
}

func TestServices_GetMissing(t *testing.T) {
	_, err := New().Get("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), `"nope"`)
}

func TestServices_SetReplaces(t *testing.T) {
	s := New()
	s.Set("x", 1)
	s.Set("x", 2)

	v, err := s.Get("x")
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestServices_Names(t *testing.T) {
	s := New()
	s.Set("b", nil)
	s.Set("a", nil)

	assert.Equal(t, []string{"a", "b"}, s.Names())
	assert.True(t, s.Has("b"), "nil services are still registered")
}
