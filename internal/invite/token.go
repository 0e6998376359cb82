// Package invite generates invitation tokens and translates between their
// link representations.
package invite

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

const tokenRandomLen = 24

// GenerateToken returns a fresh invitation token: 24 bytes from a
// cryptographically secure source, base64url-encoded without padding so the
// result survives unescaped in a URL path segment.
func GenerateToken() (string, error) {
	randomBytes := make([]byte, tokenRandomLen)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(randomBytes), nil
}

// HashToken returns the lowercase hex sha256 digest of a token. The digest
// is the only value the store is allowed to match on at redemption.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
