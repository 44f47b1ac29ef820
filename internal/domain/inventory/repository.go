package inventory

import (
	"context"
	"time"

	"labcore/internal/core/types"
)

// LotRepository defines persistence operations for lots.
type LotRepository interface {
	// FindFirstEligible returns the first lot of the product matching the
	// tier, ordered ascending by owner, product, lot. Date eligibility
	// (expiry, calibration, maintenance, verification all unset or after
	// now) applies on every tier.
	FindFirstEligible(ctx context.Context, owner, product string, tier SelectionTier, now time.Time) (lot string, found bool, err error)

	// GetForUpdate retrieves a lot with a row lock for stock mutation.
	GetForUpdate(ctx context.Context, owner, product, lot string) (Lot, error)

	// UpdateStock persists a lot's quantity and derived unit count.
	UpdateStock(ctx context.Context, owner, product, lot string, quantity, units types.Quantity) error

	// SumActive totals units and quantity over the product's non-discarded lots.
	SumActive(ctx context.Context, owner, product string) (units, quantity types.Quantity, err error)
}

// MovementRepository defines persistence operations for the movement ledger.
type MovementRepository interface {
	// Insert appends one movement.
	Insert(ctx context.Context, m Movement) error

	// ListByOperation returns movements of an operation, oldest first.
	// An empty parameter matches all parameters.
	ListByOperation(ctx context.Context, owner, operation, parameter string) ([]Movement, error)

	// Delete removes one movement by id.
	Delete(ctx context.Context, owner string, movementID int64) error
}

// SummaryRepository defines persistence operations for product summaries.
type SummaryRepository interface {
	// Get returns the summary, zero-valued when none exists yet.
	Get(ctx context.Context, owner, product string) (ProductSummary, error)

	// Upsert writes the recomputed totals.
	Upsert(ctx context.Context, s ProductSummary) error
}
