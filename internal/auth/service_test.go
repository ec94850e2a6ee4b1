// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/holomush/portfolio/internal/auth"
	"github.com/holomush/portfolio/internal/auth/mocks"
)

func TestNewService_MissingDependencies(t *testing.T) {
	full := func() auth.Deps {
		return auth.Deps{
			Users:        mocks.NewMockUserRepository(t),
			Sessions:     mocks.NewMockSessionStore(t),
			Hasher:       mocks.NewMockPasswordHasher(t),
			Bootstrapper: auth.NewBootstrapper(mocks.NewMockAllocationRepository(t), nil),
		}
	}

	tests := []struct {
		name        string
		mutate      func(d *auth.Deps)
		expectError string
	}{
		{name: "nil users", mutate: func(d *auth.Deps) { d.Users = nil }, expectError: "users repository is required"},
		{name: "nil sessions", mutate: func(d *auth.Deps) { d.Sessions = nil }, expectError: "session store is required"},
		{name: "nil hasher", mutate: func(d *auth.Deps) { d.Hasher = nil }, expectError: "password hasher is required"},
		{name: "nil bootstrapper", mutate: func(d *auth.Deps) { d.Bootstrapper = nil }, expectError: "account bootstrapper is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := full()
			tt.mutate(&deps)
			svc, err := auth.NewService(deps)
			require.Error(t, err)
			assert.Nil(t, svc)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}

	t.Run("nil logger", func(t *testing.T) {
		svc, err := auth.NewService(full(), auth.WithLogger(nil))
		require.Error(t, err)
		assert.Nil(t, svc)
		assert.Contains(t, err.Error(), "logger")
	})

	t.Run("allocations are optional", func(t *testing.T) {
		svc, err := auth.NewService(full())
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})
}

func TestService_HashTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t, auth.WithHashTimeout(20*time.Millisecond))
	alice := testUser("alice", false)

	release := make(chan struct{})
	defer close(release)

	f.users.On("GetByUsername", mock.Anything, "alice").Return(alice, nil)
	f.hasher.On("Verify", "secret123", alice.PasswordHash).
		Run(func(mock.Arguments) { <-release }).
		Return(true, nil)

	current, _ := f.anonymousSession(t)
	result, err := f.svc.Login(context.Background(), current, "alice", "secret123")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, auth.KindInternal, auth.Classify(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, f.sessionRepo.count(), "no session may be issued after a timeout")
}

func TestService_StorageTimeout(t *testing.T) {
	f := newFixture(t, auth.WithStorageTimeout(20*time.Millisecond))

	f.users.On("GetByUsername", mock.Anything, "alice").
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded)

	result, err := f.svc.Login(context.Background(), nil, "alice", "secret123")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, auth.KindInternal, auth.Classify(err))
}

func TestService_SessionFailures(t *testing.T) {
	ctx := context.Background()
	alice := testUser("alice", false)

	setup := func(t *testing.T) (*auth.Service, *mocks.MockSessionStore) {
		t.Helper()
		users := mocks.NewMockUserRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		sessions := mocks.NewMockSessionStore(t)
		users.On("GetByUsername", mock.Anything, "alice").Return(alice, nil)
		hasher.On("Verify", "secret123", alice.PasswordHash).Return(true, nil)

		svc, err := auth.NewService(auth.Deps{
			Users:        users,
			Sessions:     sessions,
			Hasher:       hasher,
			Bootstrapper: auth.NewBootstrapper(mocks.NewMockAllocationRepository(t), nil),
		})
		require.NoError(t, err)
		return svc, sessions
	}

	t.Run("regeneration failure binds nothing", func(t *testing.T) {
		svc, sessions := setup(t)
		current := &auth.Session{ID: ulid.Make()}
		sessions.On("Regenerate", mock.Anything, current).Return(nil, "", errors.New("store unavailable"))

		result, err := svc.Login(ctx, current, "alice", "secret123")
		require.Error(t, err)
		assert.Nil(t, result)
		assert.Equal(t, auth.KindInternal, auth.Classify(err))
		sessions.AssertNotCalled(t, "Bind", mock.Anything, mock.Anything, mock.Anything)
		assert.Nil(t, current.UserID, "the old session must stay anonymous")
	})

	t.Run("bind failure destroys the fresh session", func(t *testing.T) {
		svc, sessions := setup(t)
		next := &auth.Session{ID: ulid.Make()}
		sessions.On("Regenerate", mock.Anything, (*auth.Session)(nil)).Return(next, "token", nil)
		sessions.On("Bind", mock.Anything, next, alice.ID).Return(errors.New("write failed"))
		sessions.On("Destroy", mock.Anything, next).Return(nil)

		result, err := svc.Login(ctx, nil, "alice", "secret123")
		require.Error(t, err)
		assert.Nil(t, result)
		assert.Equal(t, auth.KindInternal, auth.Classify(err))
	})

	t.Run("bind failure survives a failed cleanup", func(t *testing.T) {
		svc, sessions := setup(t)
		next := &auth.Session{ID: ulid.Make()}
		sessions.On("Regenerate", mock.Anything, (*auth.Session)(nil)).Return(next, "token", nil)
		sessions.On("Bind", mock.Anything, next, alice.ID).Return(errors.New("write failed"))
		sessions.On("Destroy", mock.Anything, next).Return(errors.New("still failing"))

		_, err := svc.Login(ctx, nil, "alice", "secret123")
		require.Error(t, err)
		assert.Equal(t, auth.KindInternal, auth.Classify(err))
	})
}
