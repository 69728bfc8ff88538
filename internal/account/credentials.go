// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account

import (
	"crypto/subtle"
	"time"

	"github.com/samber/oops"
)

// CredentialManager orchestrates password creation, rotation, and
// verification. Hash and salt are always regenerated together; reset
// token bookkeeping is ResetTokenService's responsibility, never this
// type's.
type CredentialManager struct {
	hasher PasswordHasher
}

// NewCredentialManager creates a new CredentialManager.
func NewCredentialManager(hasher PasswordHasher) (*CredentialManager, error) {
	if hasher == nil {
		return nil, oops.Code("CREDENTIAL_MANAGER_INVALID").Errorf("password hasher is required")
	}
	return &CredentialManager{hasher: hasher}, nil
}

// SetPassword generates a new salt, derives the hash of plaintext
// under it, and installs both on the account. The caller persists.
func (m *CredentialManager) SetPassword(acct *Account, plaintext string) error {
	if acct == nil {
		return oops.Code("CREDENTIAL_INVALID_INPUT").Errorf("account is required")
	}
	if acct.IsExternallyManaged() {
		return oops.Code("ACCOUNT_PASSWORD_UNSUPPORTED").
			With("provider", *acct.Provider).
			Errorf("cannot set password on externally managed account")
	}

	salt, err := m.hasher.GenerateSalt()
	if err != nil {
		return oops.Code("CREDENTIAL_SET_FAILED").
			With("operation", "GenerateSalt").
			Wrap(err)
	}

	hash, err := m.hasher.Derive(plaintext, salt)
	if err != nil {
		return err // already carries a credential error code
	}

	acct.PasswordHash = hash
	acct.PasswordSalt = salt
	acct.UpdatedAt = time.Now().UTC()
	return nil
}

// VerifyPassword reports whether plaintext matches the account's
// stored credentials. It never returns an error: externally managed
// accounts, accounts without password material, and malformed input
// all verify false. Comparison is constant-time.
func (m *CredentialManager) VerifyPassword(acct *Account, plaintext string) bool {
	if acct == nil || acct.IsExternallyManaged() {
		recordVerification(false)
		return false
	}
	if acct.PasswordHash == "" || acct.PasswordSalt == "" {
		recordVerification(false)
		return false
	}

	computed, err := m.hasher.Derive(plaintext, acct.PasswordSalt)
	if err != nil {
		recordVerification(false)
		return false
	}

	ok := subtle.ConstantTimeCompare([]byte(computed), []byte(acct.PasswordHash)) == 1
	recordVerification(ok)
	return ok
}
