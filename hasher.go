package authcore

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies stored credentials with bcrypt.
// Plaintext is never stored or logged.
type PasswordHasher struct {
	// Cost defaults to bcrypt.DefaultCost. Tests may lower it.
	Cost int
}

func (h *PasswordHasher) cost() int {
	if h.Cost <= 0 {
		return bcrypt.DefaultCost
	}
	return h.Cost
}

// Hash returns a salted one-way digest of plaintext.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost())
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. The comparison is
// constant time and a malformed or empty digest verifies false rather
// than erroring.
func (h *PasswordHasher) Verify(plaintext, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
