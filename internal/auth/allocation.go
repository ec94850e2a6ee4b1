// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"math/rand/v2"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Initial allocation bounds. Stocks and funds are drawn independently from
// [1, MaxInitialShare]; bonds take the remainder of AllocationTotal.
const (
	MaxInitialShare = 40
	AllocationTotal = 100
)

// Allocation is a user's split of their portfolio, in percent.
type Allocation struct {
	UserID ulid.ULID
	Stocks int
	Funds  int
	Bonds  int
}

// AllocationRepository manages allocation persistence.
type AllocationRepository interface {
	// Set stores the allocation for its user, replacing any existing one.
	Set(ctx context.Context, allocation *Allocation) error

	// Get retrieves the allocation for a user. Returns ErrNotFound if absent.
	Get(ctx context.Context, userID ulid.ULID) (*Allocation, error)
}

// IntN returns a uniform random integer in [0, n).
type IntN func(n int) int

// Bootstrapper writes the randomized starting allocation for new accounts.
type Bootstrapper struct {
	allocations AllocationRepository
	intN        IntN
}

// NewBootstrapper creates a Bootstrapper. A nil intN uses math/rand/v2.
func NewBootstrapper(allocations AllocationRepository, intN IntN) *Bootstrapper {
	if intN == nil {
		intN = rand.IntN
	}
	return &Bootstrapper{allocations: allocations, intN: intN}
}

// NewAllocation draws a starting allocation for userID without storing it.
func (b *Bootstrapper) NewAllocation(userID ulid.ULID) Allocation {
	stocks := b.intN(MaxInitialShare) + 1
	funds := b.intN(MaxInitialShare) + 1
	return Allocation{
		UserID: userID,
		Stocks: stocks,
		Funds:  funds,
		Bonds:  AllocationTotal - (stocks + funds),
	}
}

// Bootstrap draws and stores the starting allocation for userID.
func (b *Bootstrapper) Bootstrap(ctx context.Context, userID ulid.ULID) (Allocation, error) {
	alloc := b.NewAllocation(userID)
	if err := b.allocations.Set(ctx, &alloc); err != nil {
		return alloc, oops.Code("ALLOCATION_BOOTSTRAP_FAILED").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return alloc, nil
}
