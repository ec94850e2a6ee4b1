// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	// Register the sqlite3 database/sql driver.
	_ "github.com/mattn/go-sqlite3"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// ConnectOptions bounds how long Open keeps retrying an unreachable database.
type ConnectOptions struct {
	// Attempts is the number of retries after the first failure.
	Attempts uint64
	// BaseDelay is the first backoff delay; it doubles on each retry.
	BaseDelay time.Duration
	// MaxDelay caps a single backoff delay.
	MaxDelay time.Duration
}

// DefaultConnectOptions retries for roughly half a minute.
var DefaultConnectOptions = ConnectOptions{
	Attempts:  6,
	BaseDelay: 500 * time.Millisecond,
	MaxDelay:  8 * time.Second,
}

func (o ConnectOptions) backoff() retry.Backoff {
	b := retry.NewExponential(o.BaseDelay)
	b = retry.WithCappedDuration(o.MaxDelay, b)
	return retry.WithMaxRetries(o.Attempts, b)
}

// OpenPostgres creates a pgx pool for dsn and waits until it answers a ping.
func OpenPostgres(ctx context.Context, dsn string, opts ConnectOptions, logger *slog.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	attempt := 0
	err = retry.Do(ctx, opts.backoff(), func(ctx context.Context) error {
		attempt++
		if pingErr := pool.Ping(ctx); pingErr != nil {
			logger.WarnContext(ctx, "database not ready, retrying",
				"attempt", attempt,
				"host", cfg.ConnConfig.Host,
				"error", pingErr)
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping database").
			With("attempts", attempt).
			Wrap(err)
	}
	return pool, nil
}

// SQLiteDSN turns a sqlite:// or sqlite3:// URL into a go-sqlite3 DSN with
// foreign keys enforced and a busy timeout set.
func SQLiteDSN(databaseURL string) string {
	dsn := databaseURL
	for _, prefix := range []string{"sqlite3://", "sqlite://"} {
		if rest, found := strings.CutPrefix(dsn, prefix); found {
			dsn = rest
			break
		}
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on&_busy_timeout=5000"
}

// OpenSQLite opens the SQLite database named by databaseURL.
func OpenSQLite(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", SQLiteDSN(databaseURL))
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "open sqlite").Wrap(err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close() //nolint:errcheck // ping error takes precedence
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "ping sqlite").Wrap(err)
	}
	return db, nil
}
