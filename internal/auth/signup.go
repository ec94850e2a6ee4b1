// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/holomush/portfolio/pkg/errutil"
)

// SignupResult is the outcome of a successful signup.
type SignupResult struct {
	// Session is the regenerated session, already bound to User.
	Session *Session
	// Token is the plaintext token for Session.
	Token     string
	User      *User
	Dashboard DashboardView
}

func usernameTaken(username string) error {
	return oops.Code(CodeUsernameTaken).
		With("username", username).
		Errorf(MsgUsernameTaken)
}

// Signup validates a raw signup form, creates a non-admin account, stores its
// starting allocation, and replaces current with a fresh session bound to the
// new user. current may be nil.
//
// Validation failures are reported together. A failed allocation bootstrap
// is logged and does not undo the account.
func (s *Service) Signup(ctx context.Context, current *Session, form SignupForm) (*SignupResult, error) {
	in, problems := ValidateSignup(form)
	if len(problems) > 0 {
		recordSignup(ResultInvalidInput)
		return nil, oops.Code(CodeInvalidInput).
			With("errors", problems).
			Errorf("signup validation failed")
	}

	lookupErr := s.storage(ctx, func(ctx context.Context) error {
		_, err := s.users.GetByUsername(ctx, in.Username)
		return err
	})
	switch {
	case lookupErr == nil:
		recordSignup(ResultConflict)
		return nil, usernameTaken(in.Username)
	case !errors.Is(lookupErr, ErrNotFound):
		recordSignup(ResultError)
		err := oops.Code(CodeSignupFailed).
			With("operation", "check username").
			With("username", in.Username).
			Wrap(lookupErr)
		errutil.LogError(s.logger, "signup failed", err)
		return nil, err
	}

	hash, err := s.hashPassword(ctx, in.Password)
	if err != nil {
		recordSignup(ResultError)
		err = oops.Code(CodeSignupFailed).
			With("operation", "hash password").
			Wrap(err)
		errutil.LogError(s.logger, "signup failed", err)
		return nil, err
	}

	user, err := NewUser(in.Username, in.FirstName, in.LastName, in.Email, hash)
	if err != nil {
		recordSignup(ResultError)
		err = oops.Code(CodeSignupFailed).
			With("operation", "build user").
			Wrap(err)
		errutil.LogError(s.logger, "signup failed", err)
		return nil, err
	}

	createErr := s.storage(ctx, func(ctx context.Context) error {
		return s.users.Create(ctx, user)
	})
	if createErr != nil {
		if errors.Is(createErr, ErrDuplicateUsername) {
			// Lost a race with a concurrent signup for the same name.
			recordSignup(ResultConflict)
			return nil, usernameTaken(in.Username)
		}
		recordSignup(ResultError)
		err = oops.Code(CodeSignupFailed).
			With("operation", "create user").
			With("username", in.Username).
			Wrap(createErr)
		errutil.LogError(s.logger, "signup failed", err)
		return nil, err
	}

	var alloc *Allocation
	bootErr := s.storage(ctx, func(ctx context.Context) error {
		a, err := s.bootstrapper.Bootstrap(ctx, user.ID)
		if err == nil {
			alloc = &a
		}
		return err
	})
	if bootErr != nil {
		BootstrapFailures.Inc()
		errutil.LogError(s.logger, "initial allocation failed", bootErr)
	}

	next, token, err := s.establishSession(ctx, current, user.ID)
	if err != nil {
		recordSignup(ResultError)
		errutil.LogError(s.logger, "signup failed", err)
		return nil, err
	}

	recordSignup(ResultSuccess)
	s.logger.InfoContext(ctx, "account created", "user_id", user.ID.String())

	return &SignupResult{
		Session:   next,
		Token:     token,
		User:      user,
		Dashboard: NewDashboardView(user, alloc),
	}, nil
}
