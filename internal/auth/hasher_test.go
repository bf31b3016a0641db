package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("pw1")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", hash)
	assert.True(t, strings.HasPrefix(hash, "$2"), "expected bcrypt encoding, got %q", hash)

	assert.True(t, h.Verify("pw1", hash))
	assert.False(t, h.Verify("pw2", hash))
	assert.False(t, h.Verify("", hash))
}

func TestHasher_FreshSaltPerHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	first, err := h.Hash("same")
	require.NoError(t, err)
	second, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("same", first))
	assert.True(t, h.Verify("same", second))
}

func TestHasher_MalformedHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	assert.False(t, h.Verify("pw", "not-a-hash"))
	assert.False(t, h.Verify("pw", ""))
}

func TestNewHasher_InvalidCostFallsBack(t *testing.T) {
	assert.Equal(t, DefaultCost, NewHasher(0).cost)
	assert.Equal(t, DefaultCost, NewHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, 12, NewHasher(12).cost)
}
