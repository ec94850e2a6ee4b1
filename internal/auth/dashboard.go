// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/holomush/portfolio/pkg/errutil"
)

// DashboardView is what the dashboard page may show about a user.
// It deliberately has no password hash.
type DashboardView struct {
	UserID     string
	Username   string
	FirstName  string
	LastName   string
	Email      string
	IsAdmin    bool
	Allocation *Allocation
}

// NewDashboardView builds a DashboardView from user and an optional allocation.
func NewDashboardView(user *User, alloc *Allocation) DashboardView {
	return DashboardView{
		UserID:     user.ID.String(),
		Username:   user.Username,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Email:      user.Email,
		IsAdmin:    user.IsAdmin,
		Allocation: alloc,
	}
}

// Dashboard loads the view for the user bound to session.
// Anonymous sessions and sessions whose user no longer exists get
// AUTH_NOT_LOGGED_IN.
func (s *Service) Dashboard(ctx context.Context, session *Session) (*DashboardView, error) {
	if !session.IsAuthenticated() {
		return nil, oops.Code(CodeNotLoggedIn).Errorf("session is not logged in")
	}
	userID := *session.UserID

	var user *User
	err := s.storage(ctx, func(ctx context.Context) error {
		var getErr error
		user, getErr = s.users.GetByID(ctx, userID)
		return getErr
	})
	if errors.Is(err, ErrNotFound) {
		return nil, oops.Code(CodeNotLoggedIn).
			With("user_id", userID.String()).
			Errorf("session user no longer exists")
	}
	if err != nil {
		return nil, oops.Code(CodeDashboardFailed).
			With("operation", "get user by id").
			With("user_id", userID.String()).
			Wrap(err)
	}

	var alloc *Allocation
	if s.allocations != nil {
		allocErr := s.storage(ctx, func(ctx context.Context) error {
			var getErr error
			alloc, getErr = s.allocations.Get(ctx, userID)
			return getErr
		})
		if allocErr != nil {
			alloc = nil
			if !errors.Is(allocErr, ErrNotFound) {
				errutil.LogError(s.logger, "failed to load allocation", allocErr)
			}
		}
	}

	view := NewDashboardView(user, alloc)
	return &view, nil
}
