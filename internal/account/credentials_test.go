// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accountd/accountd/internal/account"
	"github.com/accountd/accountd/pkg/errutil"
)

func newCredentialManager(t *testing.T) *account.CredentialManager {
	t.Helper()
	mgr, err := account.NewCredentialManager(account.NewPBKDF2Hasher())
	require.NoError(t, err)
	return mgr
}

func strPtr(s string) *string { return &s }

func TestNewCredentialManager(t *testing.T) {
	t.Run("requires a hasher", func(t *testing.T) {
		mgr, err := account.NewCredentialManager(nil)
		require.Error(t, err)
		assert.Nil(t, mgr)
		assert.Contains(t, err.Error(), "password hasher is required")
	})
}

func TestCredentialManager_SetPassword(t *testing.T) {
	mgr := newCredentialManager(t)

	t.Run("installs hash and salt together", func(t *testing.T) {
		acct := &account.Account{Username: "alice"}

		err := mgr.SetPassword(acct, "secret-password")
		require.NoError(t, err)
		assert.NotEmpty(t, acct.PasswordHash)
		assert.NotEmpty(t, acct.PasswordSalt)
	})

	t.Run("rotation regenerates both hash and salt", func(t *testing.T) {
		acct := &account.Account{Username: "alice"}
		require.NoError(t, mgr.SetPassword(acct, "first-password"))
		oldHash, oldSalt := acct.PasswordHash, acct.PasswordSalt

		require.NoError(t, mgr.SetPassword(acct, "second-password"))
		assert.NotEqual(t, oldHash, acct.PasswordHash)
		assert.NotEqual(t, oldSalt, acct.PasswordSalt)
	})

	t.Run("same password on two accounts yields different hashes", func(t *testing.T) {
		a := &account.Account{Username: "alice"}
		b := &account.Account{Username: "bob"}
		require.NoError(t, mgr.SetPassword(a, "shared-password"))
		require.NoError(t, mgr.SetPassword(b, "shared-password"))
		assert.NotEqual(t, a.PasswordHash, b.PasswordHash)
	})

	t.Run("does not touch reset fields", func(t *testing.T) {
		token := "sometoken"
		acct := &account.Account{Username: "alice", ResetToken: &token}
		require.NoError(t, mgr.SetPassword(acct, "new-password"))
		require.NotNil(t, acct.ResetToken)
		assert.Equal(t, token, *acct.ResetToken)
	})

	t.Run("rejects externally managed account", func(t *testing.T) {
		acct := &account.Account{Username: "alice", Provider: strPtr("google")}

		err := mgr.SetPassword(acct, "secret-password")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "ACCOUNT_PASSWORD_UNSUPPORTED")
		assert.Empty(t, acct.PasswordHash)
		assert.Empty(t, acct.PasswordSalt)
	})

	t.Run("rejects empty plaintext", func(t *testing.T) {
		acct := &account.Account{Username: "alice"}

		err := mgr.SetPassword(acct, "")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "CREDENTIAL_INVALID_INPUT")
	})
}

func TestCredentialManager_VerifyPassword(t *testing.T) {
	mgr := newCredentialManager(t)

	t.Run("correct password verifies", func(t *testing.T) {
		acct := &account.Account{Username: "alice"}
		require.NoError(t, mgr.SetPassword(acct, "correct-password"))

		assert.True(t, mgr.VerifyPassword(acct, "correct-password"))
	})

	t.Run("incorrect password fails", func(t *testing.T) {
		acct := &account.Account{Username: "alice"}
		require.NoError(t, mgr.SetPassword(acct, "correct-password"))

		assert.False(t, mgr.VerifyPassword(acct, "wrong-password"))
	})

	t.Run("false for externally managed account", func(t *testing.T) {
		acct := &account.Account{Username: "alice", Provider: strPtr("google")}
		assert.False(t, mgr.VerifyPassword(acct, "anything"))
	})

	t.Run("false when password material is missing", func(t *testing.T) {
		acct := &account.Account{Username: "alice"}
		assert.False(t, mgr.VerifyPassword(acct, "anything"))
	})

	t.Run("false for empty plaintext", func(t *testing.T) {
		acct := &account.Account{Username: "alice"}
		require.NoError(t, mgr.SetPassword(acct, "correct-password"))

		assert.False(t, mgr.VerifyPassword(acct, ""))
	})

	t.Run("false for nil account", func(t *testing.T) {
		assert.False(t, mgr.VerifyPassword(nil, "anything"))
	})
}
