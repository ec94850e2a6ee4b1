// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil_test

import (
	"errors"
	"testing"

	"github.com/samber/oops"

	"github.com/holomush/portfolio/pkg/errutil"
)

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	err := oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("test error")
	// Should not fail
	errutil.AssertErrorCode(t, err, "AUTH_INVALID_CREDENTIALS")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("username", "bob").Errorf("test error")
	// Should not fail
	errutil.AssertErrorContext(t, err, "username", "bob")
}

func TestAssertCodeWraps(t *testing.T) {
	sentinel := errors.New("not found")
	err := oops.Code("SESSION_EXPIRED").Wrap(sentinel)
	// Should not fail
	errutil.AssertCodeWraps(t, err, "SESSION_EXPIRED", sentinel)
}
