// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/oops"

	"github.com/holomush/portfolio/internal/auth"
	authpg "github.com/holomush/portfolio/internal/auth/postgres"
	authsqlite "github.com/holomush/portfolio/internal/auth/sqlite"
	"github.com/holomush/portfolio/internal/store"
	"github.com/holomush/portfolio/internal/xdg"
)

// autoMigrateEnv disables schema migration on serve when set to false.
const autoMigrateEnv = "PORTFOLIO_DB_AUTO_MIGRATE"

// backend bundles the repositories for one open database.
type backend struct {
	dialect     store.Dialect
	users       auth.UserRepository
	sessions    auth.SessionRepository
	allocations auth.AllocationRepository
	ping        func(ctx context.Context) error
	close       func()
}

// BackendOpener opens the database named by a URL. migrate requests that
// the schema be brought up to date first.
type BackendOpener func(ctx context.Context, databaseURL string, migrate bool, logger *slog.Logger) (*backend, error)

// openBackend connects to PostgreSQL or SQLite depending on the URL scheme.
func openBackend(ctx context.Context, databaseURL string, migrate bool, logger *slog.Logger) (*backend, error) {
	dialect, err := store.DialectOf(databaseURL)
	if err != nil {
		return nil, err //nolint:wrapcheck // already coded
	}

	switch dialect {
	case store.DialectSQLite:
		if err := ensureSQLiteDir(databaseURL); err != nil {
			return nil, err
		}
		db, err := store.OpenSQLite(ctx, databaseURL)
		if err != nil {
			return nil, err //nolint:wrapcheck // already coded
		}
		if migrate {
			if err := store.MigrateSQLite(db); err != nil {
				_ = db.Close() //nolint:errcheck // migration error takes precedence
				return nil, oops.Code("MIGRATION_FAILED").With("dialect", string(dialect)).Wrap(err)
			}
		}
		return &backend{
			dialect:     dialect,
			users:       authsqlite.NewUserRepository(db),
			sessions:    authsqlite.NewSessionRepository(db),
			allocations: authsqlite.NewAllocationRepository(db),
			ping:        db.PingContext,
			close: func() {
				if err := db.Close(); err != nil {
					logger.Warn("error closing sqlite database", "error", err)
				}
			},
		}, nil

	default:
		if migrate {
			if err := runAutoMigration(databaseURL, func(url string) (AutoMigrator, error) {
				return store.NewMigrator(url)
			}); err != nil {
				return nil, err
			}
		}
		pool, err := store.OpenPostgres(ctx, databaseURL, store.DefaultConnectOptions, logger)
		if err != nil {
			return nil, err //nolint:wrapcheck // already coded
		}
		return &backend{
			dialect:     dialect,
			users:       authpg.NewUserRepository(pool),
			sessions:    authpg.NewSessionRepository(pool),
			allocations: authpg.NewAllocationRepository(pool),
			ping:        pool.Ping,
			close:       pool.Close,
		}, nil
	}
}

// ensureSQLiteDir creates the parent directory of a file-backed database.
func ensureSQLiteDir(databaseURL string) error {
	file := strings.TrimPrefix(strings.TrimPrefix(databaseURL, "sqlite3://"), "sqlite://")
	file, _, _ = strings.Cut(file, "?")
	if file == "" || strings.HasPrefix(file, ":memory:") || strings.HasPrefix(file, "file:") {
		return nil
	}
	if _, err := os.Stat(filepath.Dir(file)); err == nil {
		return nil
	}
	return xdg.EnsureParentDir(file) //nolint:wrapcheck // xdg errors carry their own codes
}

// AutoMigrator is the part of store.Migrator that serve needs.
type AutoMigrator interface {
	Up() error
	Close() error
}

// parseAutoMigrate reads PORTFOLIO_DB_AUTO_MIGRATE. Anything other than a
// recognizable false value leaves auto-migration on.
func parseAutoMigrate() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(autoMigrateEnv))) {
	case "false", "0", "no", "off":
		return false
	case "", "true", "1", "yes", "on":
		return true
	default:
		slog.Warn("invalid auto-migrate value, defaulting to true",
			"env", autoMigrateEnv,
			"value", os.Getenv(autoMigrateEnv))
		return true
	}
}

// runAutoMigration applies pending migrations with a migrator from factory.
func runAutoMigration(databaseURL string, factory func(string) (AutoMigrator, error)) error {
	migrator, err := factory(databaseURL)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			slog.Warn("error closing migrator", "error", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "apply migrations").Wrap(err)
	}
	return nil
}
