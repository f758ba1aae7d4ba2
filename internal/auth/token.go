package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// GenerateToken returns a cryptographically random opaque token: 32 bytes of
// entropy, hex-encoded. The raw token is delivered to the user exactly once;
// only its digest is ever persisted.
func GenerateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashToken returns the SHA-256 hex digest of a token for storage and
// exact-match lookup. Unsalted on purpose: lookups by digest require a
// deterministic hash, and the input already carries 256 bits of entropy.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
