// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package postgres implements account persistence on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/accountd/accountd/internal/account"
)

// DB is the subset of pgxpool.Pool the repository needs. Taking the
// interface keeps the repository testable without a live database.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const accountColumns = `id, external_id, username, email, password_hash, password_salt,
	       scopes, provider, reset_token, reset_expires_at, created_at, updated_at`

// AccountRepository implements account.Repository using PostgreSQL.
// Uniqueness on username, email, and external_id is enforced by the
// schema; violations surface as account.ErrConflict. ClaimReset and
// PurgeExpiredResets are single conditional UPDATEs, so concurrent
// redemptions of one token serialize at the row.
type AccountRepository struct {
	db DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create stores a new account.
func (r *AccountRepository) Create(ctx context.Context, acct *account.Account) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO accounts (
			id, external_id, username, email, password_hash, password_salt,
			scopes, provider, reset_token, reset_expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		acct.ID.String(),
		acct.ExternalID,
		acct.Username,
		acct.Email,
		acct.PasswordHash,
		acct.PasswordSalt,
		acct.Scopes,
		acct.Provider,
		acct.ResetToken,
		acct.ResetExpiresAt,
		acct.CreatedAt,
		acct.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("ACCOUNT_CONFLICT").
				With("username", acct.Username).
				Wrap(account.ErrConflict)
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("username", acct.Username).
			Wrap(err)
	}
	return nil
}

// FindByID retrieves an account by surrogate key.
func (r *AccountRepository) FindByID(ctx context.Context, id ulid.ULID) (*account.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
	`, id.String())
	return r.wrapScan(row, "id", id.String())
}

// FindByUsername retrieves an account by exact username.
func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*account.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE username = $1
	`, username)
	return r.wrapScan(row, "username", username)
}

// FindByEmail retrieves an account by exact email.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE email = $1
	`, email)
	return r.wrapScan(row, "email", email)
}

// FindByResetToken retrieves the account holding the given reset token.
func (r *AccountRepository) FindByResetToken(ctx context.Context, token string) (*account.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE reset_token = $1
	`, token)

	acct, err := r.scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// No token value in the context: lookups by token must not log
		// or report the credential itself.
		return nil, oops.Code("ACCOUNT_NOT_FOUND").Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_LOOKUP_FAILED").
			With("operation", "find by reset token").
			Wrap(err)
	}
	return acct, nil
}

// Update persists changes to an existing account.
func (r *AccountRepository) Update(ctx context.Context, acct *account.Account) error {
	result, err := r.db.Exec(ctx, `
		UPDATE accounts SET
			username = $2,
			email = $3,
			password_hash = $4,
			password_salt = $5,
			scopes = $6,
			provider = $7,
			reset_token = $8,
			reset_expires_at = $9,
			updated_at = $10
		WHERE id = $1
	`,
		acct.ID.String(),
		acct.Username,
		acct.Email,
		acct.PasswordHash,
		acct.PasswordSalt,
		acct.Scopes,
		acct.Provider,
		acct.ResetToken,
		acct.ResetExpiresAt,
		acct.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("ACCOUNT_CONFLICT").
				With("id", acct.ID.String()).
				Wrap(account.ErrConflict)
		}
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "update account").
			With("id", acct.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", acct.ID.String()).
			Wrap(account.ErrNotFound)
	}
	return nil
}

// ClaimReset installs the new password material and clears the reset
// fields in one conditional UPDATE keyed on the token. A token already
// cleared by a concurrent redemption affects zero rows and returns
// account.ErrNotFound.
func (r *AccountRepository) ClaimReset(ctx context.Context, token string, acct *account.Account) error {
	result, err := r.db.Exec(ctx, `
		UPDATE accounts SET
			password_hash = $2,
			password_salt = $3,
			reset_token = NULL,
			reset_expires_at = NULL,
			updated_at = $4
		WHERE reset_token = $1
	`,
		token,
		acct.PasswordHash,
		acct.PasswordSalt,
		acct.UpdatedAt,
	)
	if err != nil {
		return oops.Code("RESET_CLAIM_FAILED").
			With("operation", "claim reset token").
			With("id", acct.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").Wrap(account.ErrNotFound)
	}
	return nil
}

// PurgeExpiredResets clears reset fields on every account whose window
// closed before the given instant.
func (r *AccountRepository) PurgeExpiredResets(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `
		UPDATE accounts SET
			reset_token = NULL,
			reset_expires_at = NULL,
			updated_at = $1
		WHERE reset_expires_at IS NOT NULL AND reset_expires_at < $1
	`, before)
	if err != nil {
		return 0, oops.Code("RESET_PURGE_FAILED").
			With("operation", "purge expired resets").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// List returns summaries of all accounts ordered by username.
func (r *AccountRepository) List(ctx context.Context) ([]account.Summary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, username, email
		FROM accounts
		ORDER BY username
	`)
	if err != nil {
		return nil, oops.Code("ACCOUNT_LIST_FAILED").
			With("operation", "list accounts").
			Wrap(err)
	}
	defer rows.Close()

	var summaries []account.Summary
	for rows.Next() {
		var (
			idStr    string
			username string
			email    string
		)
		if err := rows.Scan(&idStr, &username, &email); err != nil {
			return nil, oops.Code("ACCOUNT_SCAN_FAILED").
				With("operation", "scan account summary").
				Wrap(err)
		}
		id, err := ulid.Parse(idStr)
		if err != nil {
			return nil, oops.Code("ACCOUNT_INVALID_ID").
				With("id", idStr).
				Wrap(err)
		}
		summaries = append(summaries, account.Summary{ID: id, Username: username, Email: email})
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ACCOUNT_LIST_FAILED").
			With("operation", "iterate accounts").
			Wrap(err)
	}
	return summaries, nil
}

// Delete removes an account. Hard delete.
func (r *AccountRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.db.Exec(ctx, `
		DELETE FROM accounts WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("ACCOUNT_DELETE_FAILED").
			With("operation", "delete account").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(account.ErrNotFound)
	}
	return nil
}

// wrapScan scans a single row, mapping pgx.ErrNoRows to
// account.ErrNotFound with the lookup key in the error context.
func (r *AccountRepository) wrapScan(row pgx.Row, key, value string) (*account.Account, error) {
	acct, err := r.scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With(key, value).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_LOOKUP_FAILED").
			With("operation", "find by "+key).
			With(key, value).
			Wrap(err)
	}
	return acct, nil
}

// scanAccount scans a single row into an Account. Callers handle
// pgx.ErrNoRows.
func (r *AccountRepository) scanAccount(row pgx.Row) (*account.Account, error) {
	var (
		idStr          string
		externalID     string
		username       string
		email          string
		passwordHash   string
		passwordSalt   string
		scopes         []string
		provider       *string
		resetToken     *string
		resetExpiresAt *time.Time
		createdAt      time.Time
		updatedAt      time.Time
	)

	err := row.Scan(
		&idStr,
		&externalID,
		&username,
		&email,
		&passwordHash,
		&passwordSalt,
		&scopes,
		&provider,
		&resetToken,
		&resetExpiresAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("ACCOUNT_SCAN_FAILED").
			With("operation", "scan account").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ID").
			With("operation", "parse account id").
			With("id", idStr).
			Wrap(err)
	}

	if scopes == nil {
		scopes = []string{}
	}

	return &account.Account{
		ID:             id,
		ExternalID:     externalID,
		Username:       username,
		Email:          email,
		PasswordHash:   passwordHash,
		PasswordSalt:   passwordSalt,
		Scopes:         scopes,
		Provider:       provider,
		ResetToken:     resetToken,
		ResetExpiresAt: resetExpiresAt,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique
// constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Compile-time interface check.
var _ account.Repository = (*AccountRepository)(nil)
