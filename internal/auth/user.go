// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// User represents an account.
type User struct {
	ID           ulid.ULID
	Username     string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

// NewUser creates a validated, non-admin User with a fresh ID.
// The username must already satisfy the signup rules.
func NewUser(username, firstName, lastName, email, passwordHash string) (*User, error) {
	if !ValidateUsername(username) {
		return nil, oops.Code("USER_INVALID_USERNAME").
			With("username", username).
			Errorf("username must be %d-%d alphanumeric characters", MinUsernameLength, MaxUsernameLength)
	}
	if passwordHash == "" {
		return nil, oops.Code("USER_INVALID_HASH").Errorf("password hash cannot be empty")
	}
	return &User{
		ID:           ulid.Make(),
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user. Returns an error wrapping ErrDuplicateUsername
	// when the username is already taken.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByUsername retrieves a user by exact username. Returns ErrNotFound if absent.
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// UserLookup is the subset of UserRepository needed to re-check a role.
type UserLookup interface {
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)
}
