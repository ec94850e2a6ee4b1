// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/portfolio/pkg/errutil"
)

// Default per-call timeouts.
const (
	DefaultStorageTimeout = 5 * time.Second
	DefaultHashTimeout    = 10 * time.Second
)

// dummyPasswordHash is verified when a user doesn't exist so that unknown
// usernames cost the same as wrong passwords.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// AccountBootstrapper prepares data for a freshly created account.
type AccountBootstrapper interface {
	Bootstrap(ctx context.Context, userID ulid.ULID) (Allocation, error)
}

// AllocationReader reads stored allocations.
type AllocationReader interface {
	Get(ctx context.Context, userID ulid.ULID) (*Allocation, error)
}

// Deps are the collaborators a Service needs.
type Deps struct {
	Users        UserRepository
	Sessions     SessionStore
	Hasher       PasswordHasher
	Bootstrapper AccountBootstrapper

	// Allocations is optional. When nil the dashboard omits the allocation.
	Allocations AllocationReader
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithStorageTimeout bounds every storage and session-store call.
func WithStorageTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storageTimeout = d
		}
	}
}

// WithHashTimeout bounds every hash and verify call.
func WithHashTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.hashTimeout = d
		}
	}
}

// WithDummyHash replaces the hash verified for unknown usernames. It should
// come from the configured hasher so both paths cost the same.
func WithDummyHash(hash string) Option {
	return func(s *Service) {
		if hash != "" {
			s.dummyHash = hash
		}
	}
}

// Service runs the login, signup, logout, and dashboard flows.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	users          UserRepository
	sessions       SessionStore
	hasher         PasswordHasher
	bootstrapper   AccountBootstrapper
	allocations    AllocationReader
	logger         *slog.Logger
	storageTimeout time.Duration
	hashTimeout    time.Duration
	dummyHash      string
}

// NewService creates a Service. Users, Sessions, Hasher, and Bootstrapper are required.
func NewService(deps Deps, opts ...Option) (*Service, error) {
	if deps.Users == nil {
		return nil, oops.Code("AUTH_SERVICE_MISCONFIGURED").Errorf("users repository is required")
	}
	if deps.Sessions == nil {
		return nil, oops.Code("AUTH_SERVICE_MISCONFIGURED").Errorf("session store is required")
	}
	if deps.Hasher == nil {
		return nil, oops.Code("AUTH_SERVICE_MISCONFIGURED").Errorf("password hasher is required")
	}
	if deps.Bootstrapper == nil {
		return nil, oops.Code("AUTH_SERVICE_MISCONFIGURED").Errorf("account bootstrapper is required")
	}

	s := &Service{
		users:          deps.Users,
		sessions:       deps.Sessions,
		hasher:         deps.Hasher,
		bootstrapper:   deps.Bootstrapper,
		allocations:    deps.Allocations,
		logger:         slog.Default(),
		storageTimeout: DefaultStorageTimeout,
		hashTimeout:    DefaultHashTimeout,
		dummyHash:      dummyPasswordHash,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		return nil, oops.Code("AUTH_SERVICE_MISCONFIGURED").Errorf("logger cannot be nil")
	}
	return s, nil
}

// storage runs fn under the storage timeout.
func (s *Service) storage(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	err := fn(ctx)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return oops.Code(CodeOperationTimeout).With("timeout", s.storageTimeout.String()).Wrap(err)
	}
	return err
}

type hashOutcome[T any] struct {
	value T
	err   error
}

// withDeadline runs fn in its own goroutine and gives up when d elapses.
// The goroutine finishes on its own; its result is discarded.
func withDeadline[T any](ctx context.Context, d time.Duration, fn func() (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan hashOutcome[T], 1)
	go func() {
		v, err := fn()
		done <- hashOutcome[T]{value: v, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		var zero T
		return zero, oops.Code(CodeOperationTimeout).With("timeout", d.String()).Wrap(ctx.Err())
	}
}

func (s *Service) verifyPassword(ctx context.Context, password, hash string) (bool, error) {
	start := time.Now()
	defer func() { recordHashDuration("verify", time.Since(start)) }()
	return withDeadline(ctx, s.hashTimeout, func() (bool, error) {
		return s.hasher.Verify(password, hash)
	})
}

func (s *Service) hashPassword(ctx context.Context, password string) (string, error) {
	start := time.Now()
	defer func() { recordHashDuration("hash", time.Since(start)) }()
	return withDeadline(ctx, s.hashTimeout, func() (string, error) {
		return s.hasher.Hash(password)
	})
}

// establishSession regenerates the caller's session and binds userID to the
// new one. Nothing is bound unless regeneration succeeded, and a session that
// could not be bound is destroyed.
func (s *Service) establishSession(ctx context.Context, current *Session, userID ulid.ULID) (*Session, string, error) {
	var (
		next  *Session
		token string
	)
	err := s.storage(ctx, func(ctx context.Context) error {
		var regenErr error
		next, token, regenErr = s.sessions.Regenerate(ctx, current)
		return regenErr
	})
	if err != nil {
		return nil, "", oops.Code(CodeRegenerateFailed).
			With("operation", "regenerate session").
			With("user_id", userID.String()).
			Wrap(err)
	}

	err = s.storage(ctx, func(ctx context.Context) error {
		return s.sessions.Bind(ctx, next, userID)
	})
	if err != nil {
		destroyErr := s.storage(ctx, func(ctx context.Context) error {
			return s.sessions.Destroy(ctx, next)
		})
		if destroyErr != nil {
			errutil.LogError(s.logger, "failed to destroy unbound session", destroyErr)
		}
		return nil, "", oops.Code(CodeBindFailed).
			With("operation", "bind session").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return next, token, nil
}
