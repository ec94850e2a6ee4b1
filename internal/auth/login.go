// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/holomush/portfolio/pkg/errutil"
)

// Landing pages.
const (
	PathRoot         = "/"
	PathLogin        = "/login"
	PathSignup       = "/signup"
	PathDashboard    = "/dashboard"
	PathAdminLanding = "/benefits"
)

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	// Session is the regenerated session, already bound to User.
	Session *Session
	// Token is the plaintext token for Session; it replaces the caller's cookie.
	Token string
	User  *User
	// Destination is the landing page for the user's role.
	Destination string
}

// LandingPath returns the landing page for user.
func LandingPath(user *User) string {
	if user.IsAdmin {
		return PathAdminLanding
	}
	return PathDashboard
}

// Login authenticates raw credentials and, on success, replaces current
// with a fresh session bound to the user. current may be nil.
//
// Unknown users and wrong passwords produce the same error, and both run a
// password verification so they take the same time.
func (s *Service) Login(ctx context.Context, current *Session, username, password any) (*LoginResult, error) {
	creds, ok := ValidateLogin(username, password)
	if !ok {
		recordLogin(ResultInvalidInput)
		return nil, oops.Code(CodeInvalidInput).Errorf(MsgInvalidCredentials)
	}

	var user *User
	lookupErr := s.storage(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.users.GetByUsername(ctx, creds.Username)
		return err
	})

	userExists := true
	targetHash := s.dummyHash
	switch {
	case lookupErr == nil:
		targetHash = user.PasswordHash
	case errors.Is(lookupErr, ErrNotFound):
		userExists = false
	default:
		recordLogin(ResultError)
		err := oops.Code(CodeLoginFailed).
			With("operation", "get user by username").
			With("username", creds.Username).
			Wrap(lookupErr)
		errutil.LogError(s.logger, "login failed", err)
		return nil, err
	}

	valid, verifyErr := s.verifyPassword(ctx, creds.Password, targetHash)
	if verifyErr != nil {
		err := oops.Code(CodeLoginFailed).
			With("operation", "verify password").
			With("username", creds.Username).
			Wrap(verifyErr)
		if errors.Is(verifyErr, context.DeadlineExceeded) {
			recordLogin(ResultError)
			errutil.LogError(s.logger, "login failed", err)
			return nil, err
		}
		// An unreadable stored hash is an ordinary rejection to the caller.
		errutil.LogError(s.logger, "password verification failed", err)
		valid = false
	}

	if !userExists || !valid {
		recordLogin(ResultRejected)
		s.logger.InfoContext(ctx, "login rejected",
			"username", creds.Username,
			"known_user", userExists)
		return nil, oops.Code(CodeInvalidCredentials).Errorf(MsgInvalidCredentials)
	}

	next, token, err := s.establishSession(ctx, current, user.ID)
	if err != nil {
		recordLogin(ResultError)
		errutil.LogError(s.logger, "login failed", err)
		return nil, err
	}

	recordLogin(ResultSuccess)
	s.logger.InfoContext(ctx, "login succeeded",
		"user_id", user.ID.String(),
		"admin", user.IsAdmin)

	return &LoginResult{
		Session:     next,
		Token:       token,
		User:        user,
		Destination: LandingPath(user),
	}, nil
}
