package authcore_test

import (
	"testing"

	ac "github.com/sentinelai/authcore"
)

func TestPasswordHasherRoundtrip(t *testing.T) {
	hasher := &ac.PasswordHasher{Cost: 4} // min cost keeps the test fast

	digest, err := hasher.Hash("correct horse battery")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if digest == "correct horse battery" {
		t.Fatal("digest must not equal the plaintext")
	}

	if !hasher.Verify("correct horse battery", digest) {
		t.Error("correct password should verify")
	}
	if hasher.Verify("wrong password", digest) {
		t.Error("wrong password should not verify")
	}
}

func TestPasswordHasherSaltedDigests(t *testing.T) {
	hasher := &ac.PasswordHasher{Cost: 4}

	first, err := hasher.Hash("password123")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	second, err := hasher.Hash("password123")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if first == second {
		t.Error("two hashes of the same password should differ")
	}
}

func TestPasswordHasherBadDigests(t *testing.T) {
	hasher := &ac.PasswordHasher{}

	tests := []struct {
		name   string
		digest string
	}{
		{"empty digest", ""},
		{"not a bcrypt digest", "plaintext-in-store"},
		{"truncated digest", "$2a$10$abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if hasher.Verify("password123", tt.digest) {
				t.Errorf("Verify(%q) should be false", tt.digest)
			}
		})
	}
}
