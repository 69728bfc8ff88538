// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Account is the persisted identity and credential record for one user.
type Account struct {
	ID             ulid.ULID
	ExternalID     string // opaque UUID, immutable, for cross-system reference
	Username       string
	Email          string
	PasswordHash   string // empty for externally managed accounts
	PasswordSalt   string // co-generated with PasswordHash, never reused
	Scopes         []string
	Provider       *string // external-auth marker; nil for local accounts
	ResetToken     *string
	ResetExpiresAt *time.Time // meaningful only when ResetToken is set
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BasicInfo is the projection safe to return to callers. It never
// carries password material or reset tokens.
type BasicInfo struct {
	ID         ulid.ULID `json:"id"`
	ExternalID string    `json:"external_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Scopes     []string  `json:"scopes"`
}

// Summary is the reduced projection used by admin listings.
type Summary struct {
	ID       ulid.ULID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// IsExternallyManaged returns true if authentication is delegated to an
// outside identity provider. Local password operations are disabled for
// such accounts.
func (a *Account) IsExternallyManaged() bool {
	return a.Provider != nil && *a.Provider != ""
}

// HasActiveReset returns true if a reset token is currently recorded.
// Token and expiry are set and cleared together.
func (a *Account) HasActiveReset() bool {
	return a.ResetToken != nil && a.ResetExpiresAt != nil
}

// IsResetExpiredAt returns true if the reset window would be closed at
// the given instant. The boundary is exclusive: the token is still
// redeemable at exactly ResetExpiresAt.
func (a *Account) IsResetExpiredAt(t time.Time) bool {
	if a.ResetExpiresAt == nil {
		return true
	}
	return t.UTC().After(a.ResetExpiresAt.UTC())
}

// BasicInfo returns the caller-visible projection of the account.
func (a *Account) BasicInfo() BasicInfo {
	return BasicInfo{
		ID:         a.ID,
		ExternalID: a.ExternalID,
		Username:   a.Username,
		Email:      a.Email,
		Scopes:     append([]string(nil), a.Scopes...),
	}
}

// Summary returns the listing projection of the account.
func (a *Account) Summary() Summary {
	return Summary{
		ID:       a.ID,
		Username: a.Username,
		Email:    a.Email,
	}
}

// NormalizeScopes applies set semantics to a scope list: duplicates are
// dropped, first-occurrence order is preserved. Nil and empty input
// both normalize to an empty set.
func NormalizeScopes(scopes []string) []string {
	out := make([]string, 0, len(scopes))
	seen := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Repository manages account persistence.
//
// Implementations must enforce uniqueness on username, email, and
// external ID (surfacing violations as ErrConflict) and must make
// ClaimReset atomic so one token redeems at most once under
// concurrent requests.
type Repository interface {
	// Create stores a new account.
	Create(ctx context.Context, acct *Account) error

	// FindByID retrieves an account by surrogate key.
	FindByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// FindByUsername retrieves an account by exact username.
	FindByUsername(ctx context.Context, username string) (*Account, error)

	// FindByEmail retrieves an account by exact email.
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// FindByResetToken retrieves the account holding the given reset token.
	// Returns ErrNotFound if no account holds it.
	FindByResetToken(ctx context.Context, token string) (*Account, error)

	// Update persists changes to an existing account.
	Update(ctx context.Context, acct *Account) error

	// ClaimReset atomically installs the account's new password material
	// and clears its reset fields, keyed on the token value. Returns
	// ErrNotFound if the token is no longer held by any account, which
	// makes replayed redemptions lose.
	ClaimReset(ctx context.Context, token string, acct *Account) error

	// PurgeExpiredResets clears reset fields on every account whose
	// window closed before the given instant. Returns the number of
	// accounts touched.
	PurgeExpiredResets(ctx context.Context, before time.Time) (int64, error)

	// List returns summaries of all accounts.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes an account. Hard delete, no tombstone.
	Delete(ctx context.Context, id ulid.ULID) error
}
