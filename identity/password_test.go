package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	h, err := HashPassword("correct horse battery")
	require.NoError(t, err)

	assert.True(t, VerifyPassword(h, "correct horse battery"))
	assert.False(t, VerifyPassword(h, "wrong"))
	assert.False(t, VerifyPassword(h, ""))
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	h1, err := HashPassword("pw")
	require.NoError(t, err)
	h2, err := HashPassword("pw")
	require.NoError(t, err)

	assert.NotEqual(t, h1.Salt, h2.Salt)
	assert.NotEqual(t, h1.Key, h2.Key)
}

func TestVerifyPasswordNormalizes(t *testing.T) {
	// Same password entered with precomposed vs combining characters.
	h, err := HashPassword("café")
	require.NoError(t, err)
	assert.True(t, VerifyPassword(h, "café"))
}

func TestVerifyPasswordEmptyHash(t *testing.T) {
	assert.False(t, VerifyPassword(PasswordHash{}, "anything"))
}
