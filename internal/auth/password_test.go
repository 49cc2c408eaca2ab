package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	t.Run("hashes and verifies", func(t *testing.T) {
		hash, err := HashPassword("correct horse battery", bcrypt.MinCost)
		require.NoError(t, err)
		assert.NotEqual(t, "correct horse battery", hash)

		assert.NoError(t, CheckPassword("correct horse battery", hash))
		assert.Error(t, CheckPassword("wrong password", hash))
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		_, err := HashPassword("abc", bcrypt.MinCost)
		assert.ErrorIs(t, err, ErrPasswordTooShort)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := HashPassword("", bcrypt.MinCost)
		assert.Error(t, err)
	})

	t.Run("produces distinct hashes for the same input", func(t *testing.T) {
		first, err := HashPassword("secret123", bcrypt.MinCost)
		require.NoError(t, err)
		second, err := HashPassword("secret123", bcrypt.MinCost)
		require.NoError(t, err)
		assert.NotEqual(t, first, second) // random salt
	})
}

func TestGenerateSessionSecret(t *testing.T) {
	secret, err := GenerateSessionSecret()
	require.NoError(t, err)
	assert.Len(t, secret, 64) // 32 bytes hex encoded

	other, err := GenerateSessionSecret()
	require.NoError(t, err)
	assert.NotEqual(t, secret, other)
}
