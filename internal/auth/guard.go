// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"log/slog"
	"time"
)

// Guard answers access questions for a session.
type Guard struct {
	users   UserLookup
	logger  *slog.Logger
	timeout time.Duration
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithLookupTimeout bounds the role lookup. Non-positive values are ignored.
func WithLookupTimeout(d time.Duration) GuardOption {
	return func(g *Guard) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// NewGuard creates a Guard that re-reads roles through users.
func NewGuard(users UserLookup, logger *slog.Logger, opts ...GuardOption) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Guard{users: users, logger: logger, timeout: DefaultStorageTimeout}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// IsLoggedIn reports whether session carries a bound user.
func (g *Guard) IsLoggedIn(session *Session) bool {
	return session.IsAuthenticated()
}

// IsAdmin reports whether the user bound to session is an administrator.
// The role is always re-read from storage; lookup failures deny.
func (g *Guard) IsAdmin(ctx context.Context, session *Session) bool {
	if !g.IsLoggedIn(session) {
		return false
	}
	lookupCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	user, err := g.users.GetByID(lookupCtx, *session.UserID)
	if err != nil {
		g.logger.WarnContext(ctx, "admin check denied: user lookup failed",
			"user_id", session.UserID.String(),
			"error", err)
		return false
	}
	return user != nil && user.IsAdmin
}
