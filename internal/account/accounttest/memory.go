// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package accounttest provides test helpers for the account domain.
package accounttest

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/accountd/accountd/internal/account"
)

// MemoryRepository is an in-memory account.Repository for tests. It
// enforces the same uniqueness and atomic-claim semantics the real
// store guarantees, so service tests exercise realistic failure paths.
type MemoryRepository struct {
	mu       sync.Mutex
	accounts map[ulid.ULID]*account.Account

	// Err, when set, is returned by every operation. Lets tests force
	// store failures.
	Err error
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{accounts: make(map[ulid.ULID]*account.Account)}
}

// Create stores a new account, enforcing uniqueness on username,
// email, and external ID.
func (r *MemoryRepository) Create(_ context.Context, acct *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for _, existing := range r.accounts {
		if existing.Username == acct.Username ||
			existing.Email == acct.Email ||
			existing.ExternalID == acct.ExternalID {
			return account.ErrConflict
		}
	}
	r.accounts[acct.ID] = clone(acct)
	return nil
}

// FindByID retrieves an account by surrogate key.
func (r *MemoryRepository) FindByID(_ context.Context, id ulid.ULID) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	acct, ok := r.accounts[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return clone(acct), nil
}

// FindByUsername retrieves an account by exact username.
func (r *MemoryRepository) FindByUsername(_ context.Context, username string) (*account.Account, error) {
	return r.findBy(func(a *account.Account) bool { return a.Username == username })
}

// FindByEmail retrieves an account by exact email.
func (r *MemoryRepository) FindByEmail(_ context.Context, email string) (*account.Account, error) {
	return r.findBy(func(a *account.Account) bool { return a.Email == email })
}

// FindByResetToken retrieves the account holding the given token.
func (r *MemoryRepository) FindByResetToken(_ context.Context, token string) (*account.Account, error) {
	return r.findBy(func(a *account.Account) bool {
		return a.ResetToken != nil && *a.ResetToken == token
	})
}

// Update replaces the stored account.
func (r *MemoryRepository) Update(_ context.Context, acct *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.accounts[acct.ID]; !ok {
		return account.ErrNotFound
	}
	for _, existing := range r.accounts {
		if existing.ID != acct.ID && existing.Email == acct.Email {
			return account.ErrConflict
		}
	}
	r.accounts[acct.ID] = clone(acct)
	return nil
}

// ClaimReset installs acct only if the token is still held, mirroring
// the store's single-use guarantee.
func (r *MemoryRepository) ClaimReset(_ context.Context, token string, acct *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	stored, ok := r.accounts[acct.ID]
	if !ok || stored.ResetToken == nil || *stored.ResetToken != token {
		return account.ErrNotFound
	}
	r.accounts[acct.ID] = clone(acct)
	return nil
}

// PurgeExpiredResets clears reset fields on accounts whose window
// closed before the given instant.
func (r *MemoryRepository) PurgeExpiredResets(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	var n int64
	for _, acct := range r.accounts {
		if acct.ResetExpiresAt != nil && acct.ResetExpiresAt.Before(before) {
			acct.ResetToken = nil
			acct.ResetExpiresAt = nil
			n++
		}
	}
	return n, nil
}

// List returns summaries of all accounts.
func (r *MemoryRepository) List(_ context.Context) ([]account.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	summaries := make([]account.Summary, 0, len(r.accounts))
	for _, acct := range r.accounts {
		summaries = append(summaries, acct.Summary())
	}
	return summaries, nil
}

// Delete removes an account.
func (r *MemoryRepository) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.accounts[id]; !ok {
		return account.ErrNotFound
	}
	delete(r.accounts, id)
	return nil
}

// Seed stores an account directly, bypassing uniqueness checks.
func (r *MemoryRepository) Seed(acct *account.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[acct.ID] = clone(acct)
}

// Stored returns the stored copy of an account, or nil.
func (r *MemoryRepository) Stored(id ulid.ULID) *account.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.accounts[id]
	if !ok {
		return nil
	}
	return clone(acct)
}

func (r *MemoryRepository) findBy(match func(*account.Account) bool) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, acct := range r.accounts {
		if match(acct) {
			return clone(acct), nil
		}
	}
	return nil, account.ErrNotFound
}

func clone(acct *account.Account) *account.Account {
	out := *acct
	out.Scopes = append([]string(nil), acct.Scopes...)
	if acct.Provider != nil {
		p := *acct.Provider
		out.Provider = &p
	}
	if acct.ResetToken != nil {
		t := *acct.ResetToken
		out.ResetToken = &t
	}
	if acct.ResetExpiresAt != nil {
		e := *acct.ResetExpiresAt
		out.ResetExpiresAt = &e
	}
	return &out
}

// Verify interface is satisfied.
var _ account.Repository = (*MemoryRepository)(nil)
