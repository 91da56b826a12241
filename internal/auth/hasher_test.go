package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	first, err := hasher.Hash("password123")
	require.NoError(t, err)
	second, err := hasher.Hash("password123")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	ok, err := hasher.Verify("password123", first)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = hasher.Verify("password123", second)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = hasher.Verify("password124", first)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBcryptHasherMalformedDigestIsAnError(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	ok, err := hasher.Verify("password123", "not-a-bcrypt-hash")
	require.Error(t, err)
	require.False(t, ok)
}

func TestBcryptHasherFallsBackToDefaultCost(t *testing.T) {
	require.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	require.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(bcrypt.MaxCost+1).cost)
	require.Equal(t, bcrypt.MinCost, NewBcryptHasher(bcrypt.MinCost).cost)
}
