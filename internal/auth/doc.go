// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth provides the account and session core of the portfolio site.
//
// # Domain Types
//
// Domain types should be created using their constructors:
//   - NewUser - creates a non-admin User with a validated username and hash
//   - NewSession - creates an anonymous Session for a token hash
//
// Repository implementations receive pre-validated types from these constructors.
//
// # Flows
//
// Service runs every flow in a fixed order and never reorders steps:
//   - Login: sanitize, look up, verify, regenerate session, bind, route by role
//   - Signup: sanitize and validate, check uniqueness, hash, create, bootstrap
//     the starting allocation, regenerate session, bind
//   - Logout and Dashboard
//
// Guard answers "logged in" and "admin" for the HTTP layer; the admin flag is
// always re-read from storage.
//
// Errors carry samber/oops codes; Classify maps them to the kinds the HTTP
// layer renders (validation 400, rejected 401, conflict 400, internal 500).
package auth
