package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltLength     = 16
	KeyLength      = 32 // 256 bits
	KDFIterations  = 100_000
	MinPasswordLen = 8
	MaxPasswordLen = 128
)

// HashPassword derives a PBKDF2-SHA256 key from the password with a
// fresh random salt and returns base64(salt || key). Two calls with the
// same password never produce the same hash.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, KDFIterations, KeyLength, sha256.New)

	combined := make([]byte, 0, SaltLength+KeyLength)
	combined = append(combined, salt...)
	combined = append(combined, key...)

	return base64.StdEncoding.EncodeToString(combined), nil
}

// VerifyPassword re-derives the key with the salt embedded in the stored
// hash and compares in constant time. Malformed stored hashes verify
// false rather than erroring.
func VerifyPassword(password, stored string) bool {
	combined, err := base64.StdEncoding.DecodeString(stored)
	if err != nil || len(combined) != SaltLength+KeyLength {
		return false
	}

	salt := combined[:SaltLength]
	expected := combined[SaltLength:]
	key := pbkdf2.Key([]byte(password), salt, KDFIterations, KeyLength, sha256.New)

	return subtle.ConstantTimeCompare(expected, key) == 1
}

// ValidatePassword enforces the length policy for new passwords.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLen)
	}
	if len(password) > MaxPasswordLen {
		return fmt.Errorf("password must be at most %d characters", MaxPasswordLen)
	}
	return nil
}
