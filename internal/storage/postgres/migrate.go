// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/big-teddy/Qupid-sub001/internal/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationsTable is the golang-migrate bookkeeping table.
const MigrationsTable = "qupid_schema_migrations"

// withMigrate runs fn against a migrator bound to a single connection from
// db. Closing the migrator releases that connection but leaves db open.
func withMigrate(ctx context.Context, db *sql.DB, fn func(*migrate.Migrate) error) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	drv, err := migratepg.WithConnection(ctx, conn, &migratepg.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("init migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", drv)
	if err != nil {
		_ = drv.Close()
		return fmt.Errorf("init migrate: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logging.Warn().AnErr("source_err", srcErr).AnErr("db_err", dbErr).Msg("Failed to close migrator")
		}
	}()
	return fn(m)
}

// Migrate applies all pending up migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	return withMigrate(ctx, db, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate up: %w", err)
		}
		v, dirty, _ := m.Version()
		logging.Info().Uint("version", v).Bool("dirty", dirty).Msg("Database migrations applied")
		return nil
	})
}

// MigrateDown rolls back steps migrations.
func MigrateDown(ctx context.Context, db *sql.DB, steps int) error {
	if steps < 1 {
		return fmt.Errorf("steps must be at least 1, got %d", steps)
	}
	return withMigrate(ctx, db, func(m *migrate.Migrate) error {
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate down: %w", err)
		}
		return nil
	})
}

// MigrationVersion returns the applied schema version. Version 0 means no
// migration has run.
func MigrationVersion(ctx context.Context, db *sql.DB) (version uint, dirty bool, err error) {
	err = withMigrate(ctx, db, func(m *migrate.Migrate) error {
		var verr error
		version, dirty, verr = m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			return nil
		}
		return verr
	})
	return version, dirty, err
}
