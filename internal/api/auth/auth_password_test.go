package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		hash, err := HashPassword("password123")
		require.NoError(t, err)
		assert.NotEmpty(t, hash)
		assert.NotEqual(t, "password123", hash)
	})

	t.Run("EmptyPassword", func(t *testing.T) {
		_, err := HashPassword("")
		assert.ErrorIs(t, err, ErrEmptyPassword)
	})

	t.Run("SaltedHashesDiffer", func(t *testing.T) {
		first, err := HashPassword("password123")
		require.NoError(t, err)
		second, err := HashPassword("password123")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})
}

func TestComparePassword(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)

	t.Run("Match", func(t *testing.T) {
		match, err := ComparePassword("password123", hash)
		require.NoError(t, err)
		assert.True(t, match)
	})

	t.Run("Mismatch", func(t *testing.T) {
		match, err := ComparePassword("wrong-password", hash)
		require.NoError(t, err)
		assert.False(t, match)
	})

	t.Run("MalformedHash", func(t *testing.T) {
		_, err := ComparePassword("password123", "not-a-bcrypt-hash")
		assert.ErrorIs(t, err, ErrInvalidHash)
	})
}
