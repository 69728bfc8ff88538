// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/accountd/accountd/internal/account"
	"github.com/accountd/accountd/internal/account/postgres"
	"github.com/accountd/accountd/internal/store"
)

// Default timeout for cleanup command.
const defaultCleanupTimeout = 30 * time.Second

// cleanupConfig holds configuration for the cleanup command.
type cleanupConfig struct {
	timeout time.Duration
}

// NewCleanupCmd creates the cleanup subcommand.
func NewCleanupCmd() *cobra.Command {
	cfg := &cleanupConfig{}

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Clear expired password reset tokens",
		Long: `Clears reset tokens whose redemption window has closed. Intended to
run periodically, for example from a cron job. Accounts keep their
placeholder password until the holder completes a fresh reset.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCleanup(cmd, args, cfg)
		},
	}

	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultCleanupTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runCleanup(cmd *cobra.Command, _ []string, cfg *cleanupConfig) error {
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

	purged, err := resets.PurgeExpired(ctx)
	if err != nil {
		return err
	}

	cmd.Printf("Cleared %d expired reset token(s)\n", purged)
	slog.Info("expired reset tokens purged", "count", purged)
	return nil
}
