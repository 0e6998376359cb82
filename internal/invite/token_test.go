package invite

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken_URLSafe(t *testing.T) {
	token, err := GenerateToken()
	require.NoError(t, err)

	assert.NotEmpty(t, token)
	assert.NotContains(t, token, "+")
	assert.NotContains(t, token, "/")
	assert.NotContains(t, token, "=")
}

func TestGenerateToken_Length(t *testing.T) {
	token, err := GenerateToken()
	require.NoError(t, err)

	// 24 random bytes -> 32 base64url chars without padding
	assert.Len(t, token, 32)
}

func TestGenerateToken_Unique(t *testing.T) {
	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		token, err := GenerateToken()
		require.NoError(t, err)
		require.False(t, seen[token], "duplicate token generated")
		seen[token] = true
	}
}

func TestHashToken_Deterministic(t *testing.T) {
	token, err := GenerateToken()
	require.NoError(t, err)

	assert.Equal(t, HashToken(token), HashToken(token))
}

func TestHashToken_HexSHA256(t *testing.T) {
	hash := HashToken("abc")

	assert.Len(t, hash, 64)
	assert.Equal(t, strings.ToLower(hash), hash)
	// well-known sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", hash)
}

func TestHashToken_NoCollisions(t *testing.T) {
	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		token, err := GenerateToken()
		require.NoError(t, err)
		hash := HashToken(token)
		require.False(t, seen[hash], "hash collision observed")
		seen[hash] = true
	}
}
