// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"

	"github.com/holomush/portfolio/internal/auth"
	"github.com/holomush/portfolio/internal/auth/mocks"
)

// memSessionRepo is an in-memory SessionRepository so flows can be checked
// against real session regeneration.
type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[ulid.ULID]auth.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[ulid.ULID]auth.Session)}
}

func (r *memSessionRepo) Create(_ context.Context, s *auth.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = *s
	return nil
}

func (r *memSessionRepo) GetByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.TokenHash == tokenHash {
			found := s
			return &found, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (r *memSessionRepo) Replace(_ context.Context, oldID *ulid.ULID, next *auth.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if oldID != nil {
		delete(r.sessions, *oldID)
	}
	r.sessions[next.ID] = *next
	return nil
}

func (r *memSessionRepo) BindUser(_ context.Context, id, userID ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return auth.ErrNotFound
	}
	s.UserID = &userID
	r.sessions[id] = s
	return nil
}

func (r *memSessionRepo) UpdateLastSeen(_ context.Context, id ulid.ULID, lastSeen time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return auth.ErrNotFound
	}
	s.LastSeenAt = lastSeen
	r.sessions[id] = s
	return nil
}

func (r *memSessionRepo) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return auth.ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *memSessionRepo) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.sessions {
		if s.IsExpired() {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

func (r *memSessionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// fixture wires a Service to mocks for users, hasher, and allocations and to
// a real SessionManager over memSessionRepo.
type fixture struct {
	svc         *auth.Service
	users       *mocks.MockUserRepository
	hasher      *mocks.MockPasswordHasher
	allocations *mocks.MockAllocationRepository
	sessionRepo *memSessionRepo
	sessions    *auth.SessionManager
}

func newFixture(t *testing.T, opts ...auth.Option) *fixture {
	t.Helper()
	f := &fixture{
		users:       mocks.NewMockUserRepository(t),
		hasher:      mocks.NewMockPasswordHasher(t),
		allocations: mocks.NewMockAllocationRepository(t),
		sessionRepo: newMemSessionRepo(),
	}
	f.sessions = auth.NewSessionManager(f.sessionRepo, time.Hour, nil)

	svc, err := auth.NewService(auth.Deps{
		Users:        f.users,
		Sessions:     f.sessions,
		Hasher:       f.hasher,
		Bootstrapper: auth.NewBootstrapper(f.allocations, fixedIntN(19, 29)),
		Allocations:  f.allocations,
	}, opts...)
	require.NoError(t, err)
	f.svc = svc
	return f
}

// anonymousSession creates a session the way a first visit would.
func (f *fixture) anonymousSession(t *testing.T) (*auth.Session, string) {
	t.Helper()
	s, token, err := f.sessions.Create(context.Background())
	require.NoError(t, err)
	return s, token
}

func testUser(username string, admin bool) *auth.User {
	return &auth.User{
		ID:           ulid.Make(),
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		Email:        username + "@example.com",
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdHNhbHRzYWx0$aGFzaGhhc2hoYXNo",
		IsAdmin:      admin,
		CreatedAt:    time.Now().UTC(),
	}
}
