// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/portfolio/internal/auth"
)

const sessionColumns = `id, token_hash, user_id, created_at, expires_at, last_seen_at`

// SessionRepository implements auth.SessionRepository using SQLite.
type SessionRepository struct {
	db dbIface
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db dbIface) *SessionRepository {
	return &SessionRepository{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertSession(ctx context.Context, db execer, session *auth.Session) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		session.ID.String(),
		session.TokenHash,
		userIDParam(session.UserID),
		utc(session.CreatedAt),
		utc(session.ExpiresAt),
		utc(session.LastSeenAt),
	)
	return err //nolint:wrapcheck // Callers wrap with context-specific info
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, session *auth.Session) error {
	if err := insertSession(ctx, r.db, session); err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert session").
			With("id", session.ID.String()).
			Wrap(err)
	}
	return nil
}

// GetByTokenHash retrieves a session by its token hash.
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE token_hash = ?`, tokenHash)

	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_BY_TOKEN_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}
	return session, nil
}

// Replace deletes oldID (when set) and stores next in one transaction.
func (r *SessionRepository) Replace(ctx context.Context, oldID *ulid.ULID, next *auth.Session) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return oops.Code("SESSION_REPLACE_FAILED").With("operation", "begin transaction").Wrap(err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // ErrTxDone after commit is expected
	}()

	if oldID != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, oldID.String()); err != nil {
			return oops.Code("SESSION_REPLACE_FAILED").
				With("operation", "delete old session").
				With("old_id", oldID.String()).
				Wrap(err)
		}
	}

	if err := insertSession(ctx, tx, next); err != nil {
		return oops.Code("SESSION_REPLACE_FAILED").
			With("operation", "insert session").
			With("id", next.ID.String()).
			Wrap(err)
	}

	if err := tx.Commit(); err != nil {
		return oops.Code("SESSION_REPLACE_FAILED").With("operation", "commit transaction").Wrap(err)
	}
	return nil
}

// BindUser sets the user of a session.
func (r *SessionRepository) BindUser(ctx context.Context, id, userID ulid.ULID) error {
	result, err := r.db.ExecContext(ctx, `UPDATE sessions SET user_id = ? WHERE id = ?`, userID.String(), id.String())
	if err != nil {
		return oops.Code("SESSION_BIND_USER_FAILED").
			With("operation", "update user_id").
			With("id", id.String()).
			With("user_id", userID.String()).
			Wrap(err)
	}
	return requireRow(result, id)
}

// UpdateLastSeen updates the LastSeenAt timestamp for a session.
func (r *SessionRepository) UpdateLastSeen(ctx context.Context, id ulid.ULID, lastSeen time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE sessions SET last_seen_at = ? WHERE id = ?`, utc(lastSeen), id.String())
	if err != nil {
		return oops.Code("SESSION_UPDATE_LAST_SEEN_FAILED").
			With("operation", "update last_seen_at").
			With("id", id.String()).
			Wrap(err)
	}
	return requireRow(result, id)
}

// Delete removes a session by ID.
func (r *SessionRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id.String())
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete session").
			With("id", id.String()).
			Wrap(err)
	}
	return requireRow(result, id)
}

// DeleteExpired removes all expired sessions and returns the count.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, utc(time.Now()))
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").
			With("operation", "count deleted sessions").
			Wrap(err)
	}
	return n, nil
}

func requireRow(result sql.Result, id ulid.ULID) error {
	n, err := result.RowsAffected()
	if err != nil {
		return oops.Code("SESSION_ROWS_AFFECTED_FAILED").With("id", id.String()).Wrap(err)
	}
	if n == 0 {
		return oops.Code("SESSION_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

func userIDParam(id *ulid.ULID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

func scanSession(row *sql.Row) (*auth.Session, error) {
	var (
		idStr   string
		userID  sql.NullString
		session auth.Session
	)
	err := row.Scan(&idStr, &session.TokenHash, &userID, &session.CreatedAt, &session.ExpiresAt, &session.LastSeenAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("SESSION_SCAN_FAILED").
			With("operation", "scan session").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID_ID").
			With("operation", "parse session id").
			With("id", idStr).
			Wrap(err)
	}
	session.ID = id

	if userID.Valid {
		uid, err := ulid.Parse(userID.String)
		if err != nil {
			return nil, oops.Code("SESSION_INVALID_USER_ID").
				With("operation", "parse user id").
				With("user_id", userID.String).
				Wrap(err)
		}
		session.UserID = &uid
	}
	return &session, nil
}

// Compile-time interface check.
var _ auth.SessionRepository = (*SessionRepository)(nil)
