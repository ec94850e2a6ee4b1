// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"errors"
	"net/http"

	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateUsername is returned by UserRepository.Create when the username
// is already taken at the storage level.
var ErrDuplicateUsername = errors.New("username already exists")

// Error codes returned by Service.
const (
	CodeInvalidInput       = "AUTH_INVALID_INPUT"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeUsernameTaken      = "AUTH_USERNAME_TAKEN"
	CodeLoginFailed        = "AUTH_LOGIN_FAILED"
	CodeSignupFailed       = "AUTH_SIGNUP_FAILED"
	CodeLogoutFailed       = "AUTH_LOGOUT_FAILED"
	CodeDashboardFailed    = "AUTH_DASHBOARD_FAILED"
	CodeNotLoggedIn        = "AUTH_NOT_LOGGED_IN"
	CodeRegenerateFailed   = "AUTH_SESSION_REGENERATE_FAILED"
	CodeBindFailed         = "AUTH_SESSION_BIND_FAILED"
	CodeOperationTimeout   = "AUTH_TIMEOUT"
	CodeHashFailed         = "AUTH_HASH_FAILED"
	CodeInvalidHash        = "AUTH_INVALID_HASH"
	CodeEmptyPassword      = "AUTH_EMPTY_PASSWORD"
)

// Messages shown to the end user. The two 401 causes share one message.
const (
	MsgInvalidCredentials = "Invalid username or password"
	MsgUsernameTaken      = "User name already in use. Please choose another"
	MsgInternal           = "Internal server error"
)

// ErrorKind classifies a Service error for the caller.
type ErrorKind int

// Error kinds.
const (
	// KindInternal covers storage, hashing, and session-store failures.
	KindInternal ErrorKind = iota
	// KindValidation is a user-correctable input problem. No storage was touched.
	KindValidation
	// KindRejected means the credentials were wrong or the user is absent.
	KindRejected
	// KindConflict means the requested username is already in use.
	KindConflict
	// KindUnauthenticated means the session carries no user.
	KindUnauthenticated
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRejected:
		return "rejected"
	case KindConflict:
		return "conflict"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "internal"
	}
}

// Status returns the HTTP status code for the kind.
func (k ErrorKind) Status() int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindRejected, KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Classify maps an error returned by Service to its ErrorKind.
// Anything that is not a recognized user-facing code is internal.
func Classify(err error) ErrorKind {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return KindInternal
	}
	switch oopsErr.Code() {
	case CodeInvalidInput:
		return KindValidation
	case CodeInvalidCredentials:
		return KindRejected
	case CodeUsernameTaken:
		return KindConflict
	case CodeNotLoggedIn:
		return KindUnauthenticated
	default:
		return KindInternal
	}
}

// ValidationErrorsOf extracts the ordered validation messages attached to an
// AUTH_INVALID_INPUT error. Returns nil for any other error.
func ValidationErrorsOf(err error) ValidationErrors {
	oopsErr, ok := oops.AsOops(err)
	if !ok || oopsErr.Code() != CodeInvalidInput {
		return nil
	}
	if v, ok := oopsErr.Context()["errors"].(ValidationErrors); ok {
		return v
	}
	return nil
}
