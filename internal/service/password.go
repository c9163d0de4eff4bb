package service

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the fixed work factor for password hashing.
const bcryptCost = 12

// HashPassword returns the bcrypt hash of a plaintext password. If the value
// is already a bcrypt hash it is returned unchanged, so re-saving a user
// record can never double-hash a stored credential.
func HashPassword(plain string) (string, error) {
	if IsHashed(plain) {
		return plain, nil
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// IsHashed reports whether the value is already a bcrypt hash, detected by
// the $2a$/$2b$/$2y$ prefix.
func IsHashed(s string) bool {
	return strings.HasPrefix(s, "$2a$") ||
		strings.HasPrefix(s, "$2b$") ||
		strings.HasPrefix(s, "$2y$")
}

// VerifyPassword compares a plaintext password against a stored bcrypt hash.
// It never fails hard: an empty or malformed hash is simply a non-match.
func VerifyPassword(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
