// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters. The iteration count is the security control:
// derivation is deliberately CPU-bound so brute-forcing stored hashes
// stays expensive.
const (
	pbkdf2Iterations = 100_000
	pbkdf2KeyLen     = 128 // bytes; 256 hex chars once encoded
)

// PasswordHasher derives salted password hashes.
type PasswordHasher interface {
	// Derive computes the hash of plaintext under salt. Deterministic
	// for equal inputs.
	Derive(plaintext, salt string) (string, error)

	// GenerateSalt returns a fresh random salt. Salts are never derived
	// from user input and never reused across rotations.
	GenerateSalt() (string, error)
}

// PBKDF2Hasher implements PasswordHasher using PBKDF2-SHA256.
type PBKDF2Hasher struct{}

// NewPBKDF2Hasher creates a new PBKDF2Hasher.
func NewPBKDF2Hasher() *PBKDF2Hasher {
	return &PBKDF2Hasher{}
}

// Derive computes the hex-encoded PBKDF2-SHA256 hash of plaintext
// under salt.
func (h *PBKDF2Hasher) Derive(plaintext, salt string) (string, error) {
	if plaintext == "" {
		return "", oops.Code("CREDENTIAL_INVALID_INPUT").Errorf("plaintext cannot be empty")
	}
	if salt == "" {
		return "", oops.Code("CREDENTIAL_INVALID_INPUT").Errorf("salt cannot be empty")
	}

	key := pbkdf2.Key([]byte(plaintext), []byte(salt), pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	recordDerivation()
	return hex.EncodeToString(key), nil
}

// GenerateSalt returns a random UUIDv4 string sourced from crypto/rand.
func (h *PBKDF2Hasher) GenerateSalt() (string, error) {
	salt, err := uuid.NewRandom()
	if err != nil {
		return "", oops.Code("CREDENTIAL_SALT_FAILED").
			With("operation", "uuid.NewRandom").
			Wrap(err)
	}
	return salt.String(), nil
}

// Compile-time interface check.
var _ PasswordHasher = (*PBKDF2Hasher)(nil)
