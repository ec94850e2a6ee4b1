// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/holomush/portfolio/internal/auth"
	"github.com/holomush/portfolio/internal/store"
)

// openDB returns a migrated in-memory database private to the test.
func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := store.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.MigrateSQLite(db))
	return db
}

func newUser(t *testing.T, username string) *auth.User {
	t.Helper()
	user, err := auth.NewUser(username, "Alice", "Liddell", username+"@example.com", "$argon2id$hash")
	require.NoError(t, err)
	return user
}

func createUser(t *testing.T, db *sql.DB, username string) *auth.User {
	t.Helper()
	user := newUser(t, username)
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
	return user
}

func newSession(t *testing.T, hash string, ttl time.Duration) *auth.Session {
	t.Helper()
	session, err := auth.NewSession(hash, time.Now().Add(ttl))
	require.NoError(t, err)
	return session
}
