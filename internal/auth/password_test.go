package auth

import (
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	password := gofakeit.Password(true, true, true, true, false, 16)

	hash, err := h.Hash(password)
	require.NoError(t, err)
	assert.NotEqual(t, password, hash)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))

	ok, err := h.Verify(password, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(password+"x", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_DefaultCost(t *testing.T) {
	hash, err := NewPasswordHasher(0).Hash("correct horse")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, DefaultBcryptCost, cost)
}

func TestPasswordHasher_CorruptHashIsAnError(t *testing.T) {
	ok, err := NewPasswordHasher(bcrypt.MinCost).Verify("pw", "not-a-bcrypt-hash")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_HashFailure(t *testing.T) {
	_, err := NewPasswordHasher(bcrypt.MinCost).Hash(strings.Repeat("a", 73))
	require.Error(t, err)
}
