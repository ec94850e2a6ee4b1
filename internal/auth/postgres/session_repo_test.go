// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/portfolio/internal/auth"
	"github.com/holomush/portfolio/pkg/errutil"
)

var sessionCols = []string{"id", "token_hash", "user_id", "created_at", "expires_at", "last_seen_at"}

func newAnonymousSession(t *testing.T) *auth.Session {
	t.Helper()
	s, err := auth.NewSession(auth.HashSessionToken("token-"+ulid.Make().String()), time.Now().Add(time.Hour))
	require.NoError(t, err)
	return s
}

func TestSessionRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	session := newAnonymousSession(t)
	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs(session.ID.String(), session.TokenHash, (*string)(nil), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, NewSessionRepository(mock).Create(context.Background(), session))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_GetByTokenHash(t *testing.T) {
	ctx := context.Background()
	id := ulid.Make()
	userID := ulid.Make()
	now := time.Now().UTC()

	t.Run("bound session", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		uid := userID.String()
		mock.ExpectQuery(`FROM sessions WHERE token_hash = \$1`).
			WithArgs("hash").
			WillReturnRows(pgxmock.NewRows(sessionCols).AddRow(id.String(), "hash", &uid, now, now.Add(time.Hour), now))

		session, err := NewSessionRepository(mock).GetByTokenHash(ctx, "hash")
		require.NoError(t, err)
		assert.Equal(t, id, session.ID)
		require.NotNil(t, session.UserID)
		assert.Equal(t, userID, *session.UserID)
	})

	t.Run("anonymous session", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`FROM sessions`).
			WithArgs("hash").
			WillReturnRows(pgxmock.NewRows(sessionCols).AddRow(id.String(), "hash", (*string)(nil), now, now.Add(time.Hour), now))

		session, err := NewSessionRepository(mock).GetByTokenHash(ctx, "hash")
		require.NoError(t, err)
		assert.Nil(t, session.UserID)
	})

	t.Run("unknown hash", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`FROM sessions`).WithArgs("hash").WillReturnError(pgx.ErrNoRows)

		_, err = NewSessionRepository(mock).GetByTokenHash(ctx, "hash")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestSessionRepository_Replace(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes old and inserts new in one transaction", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		oldID := ulid.Make()
		next := newAnonymousSession(t)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM sessions WHERE id = \$1`).WithArgs(oldID.String()).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectExec(`INSERT INTO sessions`).
			WithArgs(next.ID.String(), next.TokenHash, (*string)(nil), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		require.NoError(t, NewSessionRepository(mock).Replace(ctx, &oldID, next))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("without an old session only inserts", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		next := newAnonymousSession(t)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO sessions`).
			WithArgs(next.ID.String(), next.TokenHash, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		require.NoError(t, NewSessionRepository(mock).Replace(ctx, nil, next))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure rolls back", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		oldID := ulid.Make()
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM sessions`).WithArgs(oldID.String()).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectExec(`INSERT INTO sessions`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(errors.New("duplicate token hash"))
		mock.ExpectRollback()

		err = NewSessionRepository(mock).Replace(ctx, &oldID, newAnonymousSession(t))
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "SESSION_REPLACE_FAILED")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

		err = NewSessionRepository(mock).Replace(ctx, nil, newAnonymousSession(t))
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "SESSION_REPLACE_FAILED")
	})
}

func TestSessionRepository_RowUpdates(t *testing.T) {
	ctx := context.Background()
	id := ulid.Make()
	userID := ulid.Make()

	tests := []struct {
		name   string
		expect func(mock pgxmock.PgxPoolIface, rows int64)
		call   func(r *SessionRepository) error
	}{
		{
			name: "bind user",
			expect: func(mock pgxmock.PgxPoolIface, rows int64) {
				mock.ExpectExec(`UPDATE sessions SET user_id`).WithArgs(id.String(), userID.String()).
					WillReturnResult(pgxmock.NewResult("UPDATE", rows))
			},
			call: func(r *SessionRepository) error { return r.BindUser(ctx, id, userID) },
		},
		{
			name: "update last seen",
			expect: func(mock pgxmock.PgxPoolIface, rows int64) {
				mock.ExpectExec(`UPDATE sessions SET last_seen_at`).WithArgs(id.String(), pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("UPDATE", rows))
			},
			call: func(r *SessionRepository) error { return r.UpdateLastSeen(ctx, id, time.Now()) },
		},
		{
			name: "delete",
			expect: func(mock pgxmock.PgxPoolIface, rows int64) {
				mock.ExpectExec(`DELETE FROM sessions WHERE id`).WithArgs(id.String()).
					WillReturnResult(pgxmock.NewResult("DELETE", rows))
			},
			call: func(r *SessionRepository) error { return r.Delete(ctx, id) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name+" affects a row", func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.expect(mock, 1)
			require.NoError(t, tt.call(NewSessionRepository(mock)))
			assert.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run(tt.name+" on a missing session", func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.expect(mock, 0)
			err = tt.call(NewSessionRepository(mock))
			assert.ErrorIs(t, err, auth.ErrNotFound)
		})
	}
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM sessions WHERE expires_at < \$1`).WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	n, err := NewSessionRepository(mock).DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
