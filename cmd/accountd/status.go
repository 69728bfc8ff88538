// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/accountd/accountd/internal/store"
)

// SchemaStatus holds the migration state reported by the status command.
type SchemaStatus struct {
	Version uint   `json:"version"`
	Name    string `json:"name,omitempty"`
	Dirty   bool   `json:"dirty"`
	Pending []uint `json:"pending,omitempty"`
	Applied []uint `json:"applied,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show database schema status",
		Long:  `Show the current migration version, dirty state, and pending migrations.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	migrator, err := store.NewMigrator(conf.Database.URL)
	if err != nil {
		return err
	}
	defer func() { _ = migrator.Close() }()

	status, err := collectSchemaStatus(migrator)
	if err != nil {
		return err
	}

	var output string
	if cfg.jsonOutput {
		output, err = formatStatusJSON(status)
		if err != nil {
			return err
		}
	} else {
		output = formatStatusTable(status)
	}

	cmd.Println(output)
	return nil
}

func collectSchemaStatus(migrator *store.Migrator) (SchemaStatus, error) {
	version, dirty, err := migrator.Version()
	if err != nil {
		return SchemaStatus{}, err
	}

	status := SchemaStatus{Version: version, Dirty: dirty}

	if version > 0 {
		name, nameErr := store.MigrationName(version)
		if nameErr == nil {
			status.Name = name
		}
	}

	if pending, pendErr := migrator.PendingMigrations(); pendErr == nil {
		status.Pending = pending
	}
	if applied, applErr := migrator.AppliedMigrations(); applErr == nil {
		status.Applied = applied
	}

	return status, nil
}

// formatStatusTable formats the schema status as a human-readable table.
func formatStatusTable(status SchemaStatus) string {
	var buf []byte
	w := tabwriter.NewWriter((*byteWriter)(&buf), 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "FIELD\tVALUE")
	_, _ = fmt.Fprintln(w, "-----\t-----")
	if status.Version == 0 {
		_, _ = fmt.Fprintln(w, "version\tnone")
	} else if status.Name != "" {
		_, _ = fmt.Fprintf(w, "version\t%d (%s)\n", status.Version, status.Name)
	} else {
		_, _ = fmt.Fprintf(w, "version\t%d\n", status.Version)
	}
	_, _ = fmt.Fprintf(w, "dirty\t%t\n", status.Dirty)
	_, _ = fmt.Fprintf(w, "applied\t%d\n", len(status.Applied))
	_, _ = fmt.Fprintf(w, "pending\t%d\n", len(status.Pending))

	_ = w.Flush()
	return string(buf)
}

// formatStatusJSON formats the schema status as indented JSON.
func formatStatusJSON(status SchemaStatus) (string, error) {
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal status: %w", err)
	}
	return string(data), nil
}

// byteWriter is a simple writer that appends to a byte slice.
type byteWriter []byte

func (w *byteWriter) Write(p []byte) (int, error) {
	*w = append(*w, p...)
	return len(p), nil
}
