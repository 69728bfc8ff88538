// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package main

import (
	"context"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/accountd/accountd/internal/account"
	"github.com/accountd/accountd/internal/account/postgres"
	"github.com/accountd/accountd/internal/store"
)

// Default timeout for reset-request command.
const defaultResetRequestTimeout = 30 * time.Second

// resetRequestConfig holds configuration for the reset-request command.
type resetRequestConfig struct {
	timeout time.Duration
	email   string
}

// resetIssuer issues a reset token for the account holding an email
// address.
type resetIssuer interface {
	Issue(ctx context.Context, email string, ttl time.Duration) (string, error)
}

// NewResetRequestCmd creates the reset-request subcommand.
func NewResetRequestCmd() *cobra.Command {
	cfg := &resetRequestConfig{}

	cmd := &cobra.Command{
		Use:   "reset-request",
		Short: "Issue a password reset token for an account",
		Long: `Issues a single-use password reset token for the account holding the
given email address. The current password is revoked immediately and
the token is printed once for out-of-band delivery. The redemption
window is the configured reset TTL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResetRequest(cmd, args, cfg)
		},
	}

	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultResetRequestTimeout, "timeout for database operations (e.g., 30s, 1m)")
	cmd.Flags().StringVar(&cfg.email, "email", "", "email address of the account")

	return cmd
}

func runResetRequest(cmd *cobra.Command, _ []string, cfg *resetRequestConfig) error {
	if cfg.email == "" {
		return oops.Code("INVALID_FLAGS").Errorf("--email is required")
	}

	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	_, stopObs := startObservability(conf.Metrics.Addr)
	defer stopObs()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	db, err := store.Connect(ctx, conf.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	creds, err := account.NewCredentialManager(account.NewPBKDF2Hasher())
	if err != nil {
		return err
	}
	repo := postgres.NewAccountRepository(db.Pool())
	resets, err := account.NewResetTokenService(repo, creds)
	if err != nil {
		return err
	}

	return issueReset(ctx, cmd, resets, cfg.email, conf.Reset.TTL)
}

// issueReset requests the token and prints it once. The previous
// password is already revoked when this returns successfully.
func issueReset(ctx context.Context, cmd *cobra.Command, issuer resetIssuer, email string, ttl time.Duration) error {
	token, err := issuer.Issue(ctx, email, ttl)
	if err != nil {
		return err
	}

	cmd.Printf("Reset token for %s (valid %s, shown once): %s\n", email, ttl, token)
	cmd.Println("The previous password is revoked until the reset completes.")
	return nil
}
