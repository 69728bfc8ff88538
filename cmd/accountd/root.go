// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/accountd/accountd/internal/config"
	"github.com/accountd/accountd/internal/logging"
	"github.com/accountd/accountd/internal/observability"
	"github.com/accountd/accountd/pkg/errutil"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the accountd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accountd",
		Short: "accountd - account credential lifecycle service",
		Long: `accountd manages user account credentials: password hashing and
verification, time-bounded single-use password reset tokens, and
scope-based account administration.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	cmd.PersistentFlags().String("database-url", "", "PostgreSQL connection URL (overrides config and DATABASE_URL)")
	cmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "", "log format (text, json)")
	cmd.PersistentFlags().Duration("reset-ttl", 0, "password reset token lifetime")

	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewResetRequestCmd())
	cmd.AddCommand(NewCleanupCmd())

	return cmd
}

// loadConfig resolves configuration for a subcommand and installs the
// default logger from it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	logging.SetDefault("accountd", version, cfg.Log.Format, cfg.Log.Level)
	return cfg, nil
}

// startObservability serves /metrics and health probes for the
// duration of a command so the credential counters are scrapeable
// while it runs. A bind failure is logged, not fatal. The returned
// server is nil when startup failed; stop is always safe to call.
func startObservability(addr string) (*observability.Server, func()) {
	srv := observability.NewServer(addr, func() bool { return true })
	if _, err := srv.Start(); err != nil {
		errutil.LogError(slog.Default(), "observability server failed to start", err)
		return nil, func() {}
	}
	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			errutil.LogError(slog.Default(), "observability server shutdown failed", err)
		}
	}
	return srv, stop
}
