package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lengthOptions struct {
	Min      int    `mapstructure:"min"`
	Max      int    `mapstructure:"max"`
	Encoding string `mapstructure:"encoding"`
}

func TestDecodeOptions(t *testing.T) {
	var o lengthOptions

	require.NoError(t, DecodeOptions(Options{"min": "2", "max": 10}, &o))
	assert.Equal(t, 2, o.Min)
	assert.Equal(t, 10, o.Max)
}

func TestDecodeOptions_Empty(t *testing.T) {
	o := lengthOptions{Min: 7}

	require.NoError(t, DecodeOptions(nil, &o))
	assert.Equal(t, 7, o.Min, "defaults survive empty options")
}

func TestDecodeOptions_UnknownKey(t *testing.T) {
	var o lengthOptions

	err := DecodeOptions(Options{"minimum": 1}, &o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minimum")
}

func TestDecodeOptions_WrongType(t *testing.T) {
	var o lengthOptions

	assert.Error(t, DecodeOptions(Options{"min": map[string]any{"a": 1}}, &o))
}
