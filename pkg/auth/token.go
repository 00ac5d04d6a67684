package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	TokenBytes = 32 // session tokens: 64 hex chars
	IDBytes    = 16 // internal ids: 32 hex chars
)

// GenerateToken returns 32 cryptographically random bytes hex-encoded,
// used as opaque session tokens.
func GenerateToken() (string, error) {
	return randomHex(TokenBytes)
}

// GenerateID returns a 32-char hex string for internal identifiers.
func GenerateID() (string, error) {
	return randomHex(IDBytes)
}

func randomHex(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
