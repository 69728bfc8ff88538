// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
)

// ResetTokenService issues and redeems single-use password-reset
// tokens. Per account the state machine is NoActiveReset →
// ResetPending → NoActiveReset; success, replay, and expiry all land
// back at the start.
//
// Issuing a reset assigns a random placeholder password, so the old
// password is revoked the moment a reset is requested, not only when
// the token is redeemed. An abandoned reset therefore permanently
// revokes the old password.
type ResetTokenService struct {
	accounts Repository
	creds    *CredentialManager
}

// NewResetTokenService creates a new ResetTokenService.
func NewResetTokenService(accounts Repository, creds *CredentialManager) (*ResetTokenService, error) {
	if accounts == nil {
		return nil, oops.Code("RESET_SERVICE_INVALID").Errorf("account repository is required")
	}
	if creds == nil {
		return nil, oops.Code("RESET_SERVICE_INVALID").Errorf("credential manager is required")
	}
	return &ResetTokenService{accounts: accounts, creds: creds}, nil
}

// Issue generates a reset token for the account holding email, valid
// for ttl from now. The plaintext token is returned for delivery to
// the user; delivery is not this service's job.
func (s *ResetTokenService) Issue(ctx context.Context, email string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultResetTTL
	}

	acct, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", oops.Code("ACCOUNT_NOT_FOUND").
				With("email", email).
				Wrap(err)
		}
		return "", oops.Code("RESET_ISSUE_FAILED").
			With("operation", "FindByEmail").
			Wrap(err)
	}

	if acct.IsExternallyManaged() {
		return "", oops.Code("ACCOUNT_EXTERNALLY_MANAGED").
			With("provider", *acct.Provider).
			Errorf("cannot reset password on externally managed account")
	}

	token, err := GenerateResetToken()
	if err != nil {
		return "", err
	}

	placeholder, err := generatePlaceholderPassword()
	if err != nil {
		return "", err
	}

	// Revoke the current password immediately; the placeholder is
	// random and never disclosed.
	if err := s.creds.SetPassword(acct, placeholder); err != nil {
		return "", oops.Code("RESET_ISSUE_FAILED").
			With("operation", "SetPassword").
			Wrap(err)
	}

	expiresAt := time.Now().UTC().Add(ttl)
	acct.ResetToken = &token
	acct.ResetExpiresAt = &expiresAt

	if err := s.accounts.Update(ctx, acct); err != nil {
		return "", oops.Code("RESET_ISSUE_FAILED").
			With("operation", "Update").
			Wrap(err)
	}

	recordResetIssued()
	return token, nil
}

// Redeem exchanges a valid reset token for a new password. Unknown,
// expired, and already-redeemed tokens are indistinguishable to the
// caller: all fail with RESET_TOKEN_INVALID, so redemption cannot be
// used as a token-existence oracle.
func (s *ResetTokenService) Redeem(ctx context.Context, token, newPassword string) (*Account, error) {
	if token == "" {
		return nil, invalidResetToken()
	}

	acct, err := s.accounts.FindByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			recordResetRejected()
			return nil, invalidResetToken()
		}
		return nil, oops.Code("RESET_REDEEM_FAILED").
			With("operation", "FindByResetToken").
			Wrap(err)
	}

	if acct.IsResetExpiredAt(time.Now()) {
		recordResetRejected()
		return nil, invalidResetToken()
	}

	if err := s.creds.SetPassword(acct, newPassword); err != nil {
		return nil, oops.Code("RESET_REDEEM_FAILED").
			With("operation", "SetPassword").
			Wrap(err)
	}

	acct.ResetToken = nil
	acct.ResetExpiresAt = nil

	// The claim is keyed on the token value so a concurrent redemption
	// of the same token loses at the store.
	if err := s.accounts.ClaimReset(ctx, token, acct); err != nil {
		if errors.Is(err, ErrNotFound) {
			recordResetRejected()
			return nil, invalidResetToken()
		}
		return nil, oops.Code("RESET_REDEEM_FAILED").
			With("operation", "ClaimReset").
			Wrap(err)
	}

	recordResetRedeemed()
	return acct, nil
}

// PurgeExpired clears reset fields on every account whose redemption
// window has passed. Returns the number of accounts touched.
func (s *ResetTokenService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.accounts.PurgeExpiredResets(ctx, time.Now().UTC())
	if err != nil {
		return 0, oops.Code("RESET_PURGE_FAILED").
			With("operation", "PurgeExpiredResets").
			Wrap(err)
	}
	return n, nil
}

func invalidResetToken() error {
	return oops.Code("RESET_TOKEN_INVALID").Errorf("password reset token is invalid or has expired")
}
