// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/portfolio/internal/auth"
)

// AllocationRepository implements auth.AllocationRepository using PostgreSQL.
type AllocationRepository struct {
	pool poolIface
}

// NewAllocationRepository creates a new AllocationRepository.
func NewAllocationRepository(pool poolIface) *AllocationRepository {
	return &AllocationRepository{pool: pool}
}

// Set upserts the allocation for its user.
func (r *AllocationRepository) Set(ctx context.Context, a *auth.Allocation) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO allocations (user_id, stocks, funds, bonds, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET stocks = EXCLUDED.stocks, funds = EXCLUDED.funds, bonds = EXCLUDED.bonds, updated_at = EXCLUDED.updated_at
	`, a.UserID.String(), a.Stocks, a.Funds, a.Bonds, time.Now().UTC())
	if err != nil {
		return oops.Code("ALLOCATION_SET_FAILED").
			With("operation", "upsert allocation").
			With("user_id", a.UserID.String()).
			Wrap(err)
	}
	return nil
}

// Get retrieves the allocation for a user.
func (r *AllocationRepository) Get(ctx context.Context, userID ulid.ULID) (*auth.Allocation, error) {
	a := &auth.Allocation{UserID: userID}
	err := r.pool.QueryRow(ctx, `
		SELECT stocks, funds, bonds FROM allocations WHERE user_id = $1
	`, userID.String()).Scan(&a.Stocks, &a.Funds, &a.Bonds)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ALLOCATION_NOT_FOUND").
			With("user_id", userID.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ALLOCATION_GET_FAILED").
			With("operation", "get allocation").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return a, nil
}

// Compile-time interface check.
var _ auth.AllocationRepository = (*AllocationRepository)(nil)
