// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accountd/accountd/internal/account"
	"github.com/accountd/accountd/internal/account/accounttest"
	"github.com/accountd/accountd/pkg/errutil"
)

func TestRunResetRequest_RequiresEmail(t *testing.T) {
	cmd := NewResetRequestCmd()
	err := runResetRequest(cmd, nil, &resetRequestConfig{})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "INVALID_FLAGS")
}

func TestIssueReset_UsesConfiguredTTL(t *testing.T) {
	repo := accounttest.NewMemoryRepository()
	creds, err := account.NewCredentialManager(account.NewPBKDF2Hasher())
	require.NoError(t, err)

	acct := &account.Account{
		ID:       ulid.Make(),
		Username: "alice",
		Email:    "alice@example.com",
		Scopes:   []string{},
	}
	require.NoError(t, creds.SetPassword(acct, "old-password"))
	oldHash := acct.PasswordHash
	repo.Seed(acct)

	resets, err := account.NewResetTokenService(repo, creds)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)

	ttl := 15 * time.Minute
	before := time.Now().UTC()
	require.NoError(t, issueReset(context.Background(), cmd, resets, "alice@example.com", ttl))

	stored := repo.Stored(acct.ID)
	require.NotNil(t, stored)
	require.NotNil(t, stored.ResetToken)
	require.NotNil(t, stored.ResetExpiresAt)

	assert.Contains(t, out.String(), *stored.ResetToken, "the plaintext token is printed once")
	assert.NotEqual(t, oldHash, stored.PasswordHash, "issuance revokes the previous password")
	assert.WithinDuration(t, before.Add(ttl), *stored.ResetExpiresAt, 5*time.Second,
		"expiry honors the requested window, not the service default")
}
