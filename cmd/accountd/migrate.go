// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/accountd/accountd/internal/store"
)

// migrateConfig holds configuration for the migrate command.
type migrateConfig struct {
	steps int
	force int
	down  bool
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cfg := &migrateConfig{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Run pending database migrations against the PostgreSQL database.
By default all pending migrations are applied. Use --steps to apply a
fixed number, --down to roll everything back, or --force to recover
from a dirty migration state.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, args, cfg)
		},
	}

	cmd.Flags().IntVar(&cfg.steps, "steps", 0, "apply n migrations (negative rolls back)")
	cmd.Flags().IntVar(&cfg.force, "force", -1, "force the schema version without running migrations")
	cmd.Flags().BoolVar(&cfg.down, "down", false, "roll back all migrations (destroys all data)")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string, cfg *migrateConfig) error {
	if cfg.down && cfg.steps != 0 {
		return oops.Code("INVALID_FLAGS").Errorf("--down and --steps are mutually exclusive")
	}

	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	_, stopObs := startObservability(conf.Metrics.Addr)
	defer stopObs()

	migrator, err := store.NewMigrator(conf.Database.URL)
	if err != nil {
		return err
	}
	defer func() { _ = migrator.Close() }()

	if cfg.force >= 0 {
		cmd.Printf("Forcing schema version to %d...\n", cfg.force)
		if err := migrator.Force(cfg.force); err != nil {
			return err
		}
		cmd.Println("Schema version forced")
		return nil
	}

	switch {
	case cfg.down:
		cmd.Println("Rolling back all migrations...")
		if err := migrator.Down(); err != nil {
			return err
		}
		cmd.Println("Rollback completed")
	case cfg.steps != 0:
		cmd.Printf("Applying %d migration step(s)...\n", cfg.steps)
		if err := migrator.Steps(cfg.steps); err != nil {
			return err
		}
		cmd.Println("Migration steps completed")
	default:
		cmd.Println("Running migrations...")
		if err := migrator.Up(); err != nil {
			return err
		}
		cmd.Println("Migrations completed successfully")
	}
	return nil
}
