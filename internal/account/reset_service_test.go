// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account_test

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accountd/accountd/internal/account"
	"github.com/accountd/accountd/internal/account/accounttest"
	"github.com/accountd/accountd/pkg/errutil"
)

func newResetFixture(t *testing.T) (*account.ResetTokenService, *account.CredentialManager, *accounttest.MemoryRepository) {
	t.Helper()
	repo := accounttest.NewMemoryRepository()
	mgr := newCredentialManager(t)
	svc, err := account.NewResetTokenService(repo, mgr)
	require.NoError(t, err)
	return svc, mgr, repo
}

func seedLocalAccount(t *testing.T, repo *accounttest.MemoryRepository, mgr *account.CredentialManager, username, email, password string) *account.Account {
	t.Helper()
	acct := &account.Account{
		ID:         ulid.Make(),
		ExternalID: username + "-ext",
		Username:   username,
		Email:      email,
	}
	require.NoError(t, mgr.SetPassword(acct, password))
	repo.Seed(acct)
	return acct
}

func TestNewResetTokenService_NilDependencies(t *testing.T) {
	repo := accounttest.NewMemoryRepository()
	mgr := newCredentialManager(t)

	t.Run("nil repository", func(t *testing.T) {
		svc, err := account.NewResetTokenService(nil, mgr)
		require.Error(t, err)
		assert.Nil(t, svc)
		assert.Contains(t, err.Error(), "account repository is required")
	})

	t.Run("nil credential manager", func(t *testing.T) {
		svc, err := account.NewResetTokenService(repo, nil)
		require.Error(t, err)
		assert.Nil(t, svc)
		assert.Contains(t, err.Error(), "credential manager is required")
	})
}

func TestResetTokenService_Issue(t *testing.T) {
	ctx := context.Background()

	t.Run("records token and expiry", func(t *testing.T) {
		svc, mgr, repo := newResetFixture(t)
		acct := seedLocalAccount(t, repo, mgr, "alice", "alice@example.com", "old-password")

		token, err := svc.Issue(ctx, "alice@example.com", 300*time.Second)
		require.NoError(t, err)
		assert.Len(t, token, account.ResetTokenBytes*2)

		stored := repo.Stored(acct.ID)
		require.NotNil(t, stored)
		require.True(t, stored.HasActiveReset())
		assert.Equal(t, token, *stored.ResetToken)
		assert.WithinDuration(t, time.Now().UTC().Add(300*time.Second), *stored.ResetExpiresAt, 5*time.Second)
	})

	t.Run("issuance revokes the old password immediately", func(t *testing.T) {
		svc, mgr, repo := newResetFixture(t)
		acct := seedLocalAccount(t, repo, mgr, "alice", "alice@example.com", "old-password")

		_, err := svc.Issue(ctx, "alice@example.com", 300*time.Second)
		require.NoError(t, err)

		stored := repo.Stored(acct.ID)
		assert.False(t, mgr.VerifyPassword(stored, "old-password"),
			"old password must stop working as soon as a reset is requested")
	})

	t.Run("unknown email fails with not found", func(t *testing.T) {
		svc, _, _ := newResetFixture(t)

		_, err := svc.Issue(ctx, "nobody@example.com", 300*time.Second)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "ACCOUNT_NOT_FOUND")
	})

	t.Run("externally managed account is rejected without mutation", func(t *testing.T) {
		svc, _, repo := newResetFixture(t)
		acct := &account.Account{
			ID:         ulid.Make(),
			ExternalID: "carol-ext",
			Username:   "carol",
			Email:      "carol@example.com",
			Provider:   strPtr("google"),
		}
		repo.Seed(acct)

		_, err := svc.Issue(ctx, "carol@example.com", 300*time.Second)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "ACCOUNT_EXTERNALLY_MANAGED")

		stored := repo.Stored(acct.ID)
		assert.False(t, stored.HasActiveReset())
		assert.Empty(t, stored.PasswordHash)
	})

	t.Run("zero ttl falls back to the default window", func(t *testing.T) {
		svc, mgr, repo := newResetFixture(t)
		acct := seedLocalAccount(t, repo, mgr, "alice", "alice@example.com", "old-password")

		_, err := svc.Issue(ctx, "alice@example.com", 0)
		require.NoError(t, err)

		stored := repo.Stored(acct.ID)
		require.True(t, stored.HasActiveReset())
		assert.WithinDuration(t, time.Now().UTC().Add(account.DefaultResetTTL), *stored.ResetExpiresAt, 5*time.Second)
	})
}

func TestResetTokenService_Redeem(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token installs the new password exactly once", func(t *testing.T) {
		svc, mgr, repo := newResetFixture(t)
		acct := seedLocalAccount(t, repo, mgr, "alice", "alice@example.com", "old-password")

		token, err := svc.Issue(ctx, "alice@example.com", 300*time.Second)
		require.NoError(t, err)

		redeemed, err := svc.Redeem(ctx, token, "new-password")
		require.NoError(t, err)
		assert.Equal(t, acct.ID, redeemed.ID)
		assert.False(t, redeemed.HasActiveReset())

		stored := repo.Stored(acct.ID)
		assert.True(t, mgr.VerifyPassword(stored, "new-password"))
		assert.False(t, stored.HasActiveReset())
	})

	t.Run("replaying a redeemed token fails", func(t *testing.T) {
		svc, mgr, repo := newResetFixture(t)
		seedLocalAccount(t, repo, mgr, "alice", "alice@example.com", "old-password")

		token, err := svc.Issue(ctx, "alice@example.com", 300*time.Second)
		require.NoError(t, err)

		_, err = svc.Redeem(ctx, token, "new-password")
		require.NoError(t, err)

		_, err = svc.Redeem(ctx, token, "another-password")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "RESET_TOKEN_INVALID")
	})

	t.Run("expired token fails with the same error as unknown", func(t *testing.T) {
		svc, mgr, repo := newResetFixture(t)
		acct := seedLocalAccount(t, repo, mgr, "alice", "alice@example.com", "old-password")

		token, err := svc.Issue(ctx, "alice@example.com", 300*time.Second)
		require.NoError(t, err)

		// Walk the stored expiry into the past instead of sleeping.
		stored := repo.Stored(acct.ID)
		past := time.Now().UTC().Add(-time.Second)
		stored.ResetExpiresAt = &past
		repo.Seed(stored)

		_, err = svc.Redeem(ctx, token, "new-password")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "RESET_TOKEN_INVALID")
	})

	t.Run("unknown token fails", func(t *testing.T) {
		svc, _, _ := newResetFixture(t)

		_, err := svc.Redeem(ctx, "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef", "new-password")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "RESET_TOKEN_INVALID")
	})

	t.Run("empty token fails", func(t *testing.T) {
		svc, _, _ := newResetFixture(t)

		_, err := svc.Redeem(ctx, "", "new-password")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "RESET_TOKEN_INVALID")
	})
}

func TestResetTokenService_PurgeExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("clears only closed windows", func(t *testing.T) {
		svc, mgr, repo := newResetFixture(t)
		expired := seedLocalAccount(t, repo, mgr, "alice", "alice@example.com", "pw")
		active := seedLocalAccount(t, repo, mgr, "bob", "bob@example.com", "pw")

		expiredToken := "expired-token"
		pastExpiry := time.Now().UTC().Add(-time.Minute)
		expired.ResetToken = &expiredToken
		expired.ResetExpiresAt = &pastExpiry
		repo.Seed(expired)

		activeToken := "active-token"
		futureExpiry := time.Now().UTC().Add(time.Hour)
		active.ResetToken = &activeToken
		active.ResetExpiresAt = &futureExpiry
		repo.Seed(active)

		n, err := svc.PurgeExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		assert.False(t, repo.Stored(expired.ID).HasActiveReset())
		assert.True(t, repo.Stored(active.ID).HasActiveReset())
	})
}
