// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/accountd/accountd/internal/account"
	"github.com/accountd/accountd/internal/account/postgres"
	"github.com/accountd/accountd/internal/store"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

const seedPasswordBytes = 16

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	timeout  time.Duration
	username string
	email    string
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the bootstrap administrator account",
		Long: `Creates the initial administrator account with a generated password
printed once to stdout. This command is idempotent - it will not create
duplicates if run multiple times.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args, cfg)
		},
	}

	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")
	cmd.Flags().StringVar(&cfg.username, "admin-username", "", "administrator username (overrides config)")
	cmd.Flags().StringVar(&cfg.email, "admin-email", "", "administrator email (overrides config)")

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string, cfg *seedConfig) error {
	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	_, stopObs := startObservability(conf.Metrics.Addr)
	defer stopObs()

	username := conf.Seed.AdminUsername
	if cfg.username != "" {
		username = cfg.username
	}
	email := conf.Seed.AdminEmail
	if cfg.email != "" {
		email = cfg.email
	}

	// Use cmd.Context() to respect SIGINT/SIGTERM signals.
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	db, err := store.Connect(ctx, conf.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	cmd.Println("Running migrations...")
	migrator, err := store.NewMigrator(conf.Database.URL)
	if err != nil {
		return err
	}
	defer func() { _ = migrator.Close() }()
	if err := migrator.Up(); err != nil {
		return err
	}

	svc, err := newAccountService(db)
	if err != nil {
		return err
	}

	password, err := generateSeedPassword()
	if err != nil {
		return err
	}

	admin, err := svc.Create(ctx, account.CreateParams{
		Username: username,
		Email:    email,
		Password: password,
		Scopes:   []string{account.ScopeAdmin},
	})
	if err != nil {
		if errors.Is(err, account.ErrConflict) {
			cmd.Println("Administrator account already exists, skipping seed")
			verifyExistingAdmin(ctx, db, username, email)
			return nil
		}
		return oops.Code("SEED_FAILED").With("operation", "create administrator").Wrap(err)
	}

	cmd.Printf("Created administrator account %q (id %s)\n", admin.Username, admin.ID)
	cmd.Printf("Generated password (store it now, it is not shown again): %s\n", password)
	slog.Info("administrator account seeded", "id", admin.ID.String(), "username", admin.Username)

	cmd.Println("Seeding complete!")
	return nil
}

// newAccountService wires the account service against the shared pool.
func newAccountService(db *store.Postgres) (*account.Service, error) {
	creds, err := account.NewCredentialManager(account.NewPBKDF2Hasher())
	if err != nil {
		return nil, err
	}
	repo := postgres.NewAccountRepository(db.Pool())
	return account.NewService(repo, creds, account.NewPolicy())
}

// verifyExistingAdmin warns when the existing administrator does not
// match the configured identity. Mirrors what the operator expects
// after a rerun, verification failures are logged, not fatal.
func verifyExistingAdmin(ctx context.Context, db *store.Postgres, username, email string) {
	repo := postgres.NewAccountRepository(db.Pool())
	existing, err := repo.FindByUsername(ctx, username)
	if err != nil {
		slog.Warn("could not verify existing administrator account",
			"username", username,
			"error", err)
		return
	}
	if existing.Email != email {
		slog.Warn("administrator email mismatch",
			"username", username,
			"expected", email,
			"actual", existing.Email)
	}
	if !account.NewPolicy().IsAdmin(existing) {
		slog.Warn("administrator account is missing the admin scope",
			"username", username,
			"scopes", existing.Scopes)
	}
}

func generateSeedPassword() (string, error) {
	buf := make([]byte, seedPasswordBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", oops.Code("SEED_FAILED").With("operation", "generate password").Wrap(err)
	}
	return hex.EncodeToString(buf), nil
}
