package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomBytes(t *testing.T) {
	a, err := RandomBytes(16)
	require.NoError(t, err)
	b, err := RandomBytes(16)
	require.NoError(t, err)

	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}

func TestRandomHex(t *testing.T) {
	s, err := RandomHex(32)
	require.NoError(t, err)
	assert.Len(t, s, 64)
}

func TestNormalize(t *testing.T) {
	// U+00E9 (é) and U+0065 U+0301 (e + combining acute) normalize equal.
	assert.Equal(t, Normalize("café"), Normalize("café"))
}
