// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/big-teddy/Qupid-sub001/internal/config"
	"github.com/big-teddy/Qupid-sub001/internal/storage/postgres"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
		Long: `Apply or roll back schema migrations embedded in the binary.

Available subcommands:
  up      - Apply every pending migration
  down    - Roll back migrations (--steps, default 1)
  version - Print the current schema version`,
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPostgres(cmd.Context(), func(db *sqlx.DB) error {
				if err := postgres.Migrate(cmd.Context(), db.DB); err != nil {
					return err
				}
				return printVersion(cmd, db)
			})
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			return withPostgres(cmd.Context(), func(db *sqlx.DB) error {
				if err := postgres.MigrateDown(cmd.Context(), db.DB, steps); err != nil {
					return err
				}
				return printVersion(cmd, db)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPostgres(cmd.Context(), func(db *sqlx.DB) error {
				return printVersion(cmd, db)
			})
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func printVersion(cmd *cobra.Command, db *sqlx.DB) error {
	v, dirty, err := postgres.MigrationVersion(cmd.Context(), db.DB)
	if err != nil {
		return err
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (%s)\n", v, state)
	return nil
}

// withPostgres opens the configured database for fn. The memory driver
// has no schema to manage.
func withPostgres(ctx context.Context, fn func(db *sqlx.DB) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requirePostgres(cfg.Database); err != nil {
		return err
	}
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

func requirePostgres(cfg config.DatabaseConfig) error {
	if cfg.Driver != "postgres" {
		return fmt.Errorf("DATABASE_DRIVER is %q; this command needs postgres", cfg.Driver)
	}
	if cfg.DSN == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}
