// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Login field bounds. These are looser than the signup rules on purpose:
// accounts created before the signup rules tightened must still be able to log in.
const (
	MinLoginUsernameLength = 3
	MaxLoginUsernameLength = 50
	MinLoginPasswordLength = 6
	MaxLoginPasswordLength = 100
)

// Signup field bounds.
const (
	MinUsernameLength       = 3
	MaxUsernameLength       = 30
	MinNameLength           = 1
	MaxNameLength           = 50
	MinSignupPasswordLength = 8
)

// Signup validation messages, in the order they are reported.
const (
	MsgUsernameInvalid   = "Username must be 3-30 chars and alphanumeric."
	MsgFirstNameRequired = "First name is required."
	MsgLastNameRequired  = "Last name is required."
	MsgEmailInvalid      = "Valid email is required."
	MsgPasswordTooShort  = "Password must be at least 8 characters."
	MsgPasswordMismatch  = "Passwords do not match."
)

var (
	emailRegex        = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	alphanumericRegex = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
)

// ValidationErrors is the ordered list of messages produced by one signup
// validation attempt.
type ValidationErrors []string

// LoginCredentials holds sanitized login input.
type LoginCredentials struct {
	Username string
	Password string
}

// SignupForm holds raw signup input exactly as it arrived from the request.
// Fields are untyped so that non-string values are rejected at the boundary.
type SignupForm struct {
	Username  any
	FirstName any
	LastName  any
	Email     any
	Password  any
	Verify    any
}

// SignupInput holds normalized signup input.
type SignupInput struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password  string
	Verify    string
}

// SanitizeField coerces v to a string, trims surrounding whitespace, and drops
// every character outside printable ASCII (0x20-0x7E). Non-string input
// becomes the empty string.
func SanitizeField(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7E {
			return -1
		}
		return r
	}, s)
}

// normalizeSecret coerces v to a string and trims surrounding whitespace only.
// Passwords are never ASCII-stripped so their meaning is preserved.
func normalizeSecret(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// ValidEmail reports whether s has the local@domain.tld shape.
func ValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// lengthBetween counts characters, not bytes.
func lengthBetween(s string, minLen, maxLen int) bool {
	n := utf8.RuneCountInString(s)
	return n >= minLen && n <= maxLen
}

// ValidateLogin sanitizes raw login input and checks the login length bounds.
// It reports false without saying which field failed.
func ValidateLogin(username, password any) (LoginCredentials, bool) {
	creds := LoginCredentials{
		Username: SanitizeField(username),
		Password: SanitizeField(password),
	}
	ok := lengthBetween(creds.Username, MinLoginUsernameLength, MaxLoginUsernameLength) &&
		lengthBetween(creds.Password, MinLoginPasswordLength, MaxLoginPasswordLength)
	return creds, ok
}

// ValidateUsername checks the signup username rules: 3-30 alphanumeric characters.
func ValidateUsername(username string) bool {
	return lengthBetween(username, MinUsernameLength, MaxUsernameLength) &&
		alphanumericRegex.MatchString(username)
}

// ValidateSignup normalizes raw signup input and collects every rule it breaks.
// The returned input is always populated so non-secret fields can be echoed back.
func ValidateSignup(form SignupForm) (SignupInput, ValidationErrors) {
	in := SignupInput{
		Username:  SanitizeField(form.Username),
		FirstName: SanitizeField(form.FirstName),
		LastName:  SanitizeField(form.LastName),
		Email:     SanitizeField(form.Email),
		Password:  normalizeSecret(form.Password),
		Verify:    normalizeSecret(form.Verify),
	}

	var errs ValidationErrors
	if !ValidateUsername(in.Username) {
		errs = append(errs, MsgUsernameInvalid)
	}
	if !lengthBetween(in.FirstName, MinNameLength, MaxNameLength) {
		errs = append(errs, MsgFirstNameRequired)
	}
	if !lengthBetween(in.LastName, MinNameLength, MaxNameLength) {
		errs = append(errs, MsgLastNameRequired)
	}
	if !ValidEmail(in.Email) {
		errs = append(errs, MsgEmailInvalid)
	}
	if utf8.RuneCountInString(in.Password) < MinSignupPasswordLength {
		errs = append(errs, MsgPasswordTooShort)
	}
	if in.Password != in.Verify {
		errs = append(errs, MsgPasswordMismatch)
	}
	return in, errs
}
