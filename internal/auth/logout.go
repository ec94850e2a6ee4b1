// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"

	"github.com/samber/oops"

	"github.com/holomush/portfolio/pkg/errutil"
)

// Logout destroys session.
func (s *Service) Logout(ctx context.Context, session *Session) error {
	err := s.storage(ctx, func(ctx context.Context) error {
		return s.sessions.Destroy(ctx, session)
	})
	if err != nil {
		err = oops.Code(CodeLogoutFailed).
			With("operation", "destroy session").
			Wrap(err)
		errutil.LogError(s.logger, "logout failed", err)
		return err
	}
	return nil
}
