// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Service exposes the actor-gated account operations consumed by the
// transport layer. Callers are responsible for authenticating the
// actor and for request-shape validation (presence of fields, email
// syntax); Service enforces only business invariants.
type Service struct {
	accounts Repository
	creds    *CredentialManager
	policy   Policy
}

// NewService creates a new Service.
func NewService(accounts Repository, creds *CredentialManager, policy Policy) (*Service, error) {
	if accounts == nil {
		return nil, oops.Code("ACCOUNT_SERVICE_INVALID").Errorf("account repository is required")
	}
	if creds == nil {
		return nil, oops.Code("ACCOUNT_SERVICE_INVALID").Errorf("credential manager is required")
	}
	return &Service{accounts: accounts, creds: creds, policy: policy}, nil
}

// CreateParams carries the fields for a new account. Password is
// ignored when Provider is set: externally managed accounts hold no
// local password material.
type CreateParams struct {
	Username string
	Email    string
	Password string
	Scopes   []string
	Provider string
}

// Create builds and persists a new account. Local accounts always get
// a freshly derived hash and salt. A duplicate username, email, or
// external ID fails with ACCOUNT_CONFLICT and persists nothing.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Account, error) {
	now := time.Now().UTC()
	acct := &Account{
		ID:         ulid.Make(),
		ExternalID: uuid.NewString(),
		Username:   params.Username,
		Email:      params.Email,
		Scopes:     NormalizeScopes(params.Scopes),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if params.Provider != "" {
		provider := params.Provider
		acct.Provider = &provider
	} else if err := s.creds.SetPassword(acct, params.Password); err != nil {
		return nil, err
	}

	if err := s.accounts.Create(ctx, acct); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, oops.Code("ACCOUNT_CONFLICT").
				With("username", params.Username).
				Wrap(err)
		}
		return nil, oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "Create").
			Wrap(err)
	}
	return acct, nil
}

// Get retrieves an account by ID. The actor must be the account itself
// or an admin.
func (s *Service) Get(ctx context.Context, actor *Account, id ulid.ULID) (*Account, error) {
	acct, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, "FindByID")
	}
	if !s.policy.CanAccess(actor, acct) {
		return nil, accessDenied()
	}
	return acct, nil
}

// GetByEmail retrieves an account by email under the same access rule
// as Get.
func (s *Service) GetByEmail(ctx context.Context, actor *Account, email string) (*Account, error) {
	acct, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, s.lookupError(err, "FindByEmail")
	}
	if !s.policy.CanAccess(actor, acct) {
		return nil, accessDenied()
	}
	return acct, nil
}

// UpdateEmail changes the account's email. The actor must be the
// account itself or an admin.
func (s *Service) UpdateEmail(ctx context.Context, actor *Account, id ulid.ULID, email string) (*Account, error) {
	acct, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, "FindByID")
	}
	if !s.policy.CanAccess(actor, acct) {
		return nil, accessDenied()
	}

	acct.Email = email
	acct.UpdatedAt = time.Now().UTC()
	if err := s.accounts.Update(ctx, acct); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, oops.Code("ACCOUNT_CONFLICT").
				With("email", email).
				Wrap(err)
		}
		return nil, oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "Update").
			Wrap(err)
	}
	return acct, nil
}

// UpdateScopes overwrites the account's entire scope set. Admin only.
// An empty set is permitted and revokes every capability, admin
// included.
func (s *Service) UpdateScopes(ctx context.Context, actor *Account, id ulid.ULID, scopes []string) (*Account, error) {
	if !s.policy.IsAdmin(actor) {
		return nil, accessDenied()
	}

	acct, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err, "FindByID")
	}

	acct.Scopes = NormalizeScopes(scopes)
	acct.UpdatedAt = time.Now().UTC()
	if err := s.accounts.Update(ctx, acct); err != nil {
		return nil, oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "Update").
			Wrap(err)
	}
	return acct, nil
}

// List returns summaries of all accounts. Admin only.
func (s *Service) List(ctx context.Context, actor *Account) ([]Summary, error) {
	if !s.policy.IsAdmin(actor) {
		return nil, accessDenied()
	}
	summaries, err := s.accounts.List(ctx)
	if err != nil {
		return nil, oops.Code("ACCOUNT_LIST_FAILED").
			With("operation", "List").
			Wrap(err)
	}
	return summaries, nil
}

// Remove hard-deletes an account. Admin only.
func (s *Service) Remove(ctx context.Context, actor *Account, id ulid.ULID) error {
	if !s.policy.IsAdmin(actor) {
		return accessDenied()
	}
	if err := s.accounts.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("ACCOUNT_NOT_FOUND").
				With("id", id.String()).
				Wrap(err)
		}
		return oops.Code("ACCOUNT_DELETE_FAILED").
			With("operation", "Delete").
			Wrap(err)
	}
	return nil
}

// Me returns the actor's own caller-visible projection. A nil actor
// yields the zero projection.
func (s *Service) Me(actor *Account) BasicInfo {
	if actor == nil {
		return BasicInfo{}
	}
	return actor.BasicInfo()
}

// VerifyPassword checks a login attempt against the stored
// credentials. False, never an error, for externally managed accounts.
func (s *Service) VerifyPassword(acct *Account, plaintext string) bool {
	return s.creds.VerifyPassword(acct, plaintext)
}

// lookupError maps repository lookup failures. Not-found and
// access-denied deliberately stay coarse so callers cannot probe which
// accounts exist.
func (s *Service) lookupError(err error, operation string) error {
	if errors.Is(err, ErrNotFound) {
		return oops.Code("ACCOUNT_NOT_FOUND").Wrap(err)
	}
	return oops.Code("ACCOUNT_LOOKUP_FAILED").
		With("operation", operation).
		Wrap(err)
}

func accessDenied() error {
	return oops.Code("ACCESS_DENIED").Errorf("not allowed to access this account")
}
