package inventory

import (
	"context"
	"fmt"

	"labcore/internal/core/types"
	"labcore/pkg/logger"
)

// UnitsFromQuantity derives the whole-unit count of a lot from its raw
// quantity and packaging factor (quantity contained in one unit).
//
// Non-positive inputs yield 0. Otherwise the count is
// floor(quantity/factor), plus one extra unit when a non-zero remainder is
// left: a partially used trailing unit still occupies a whole unit.
// The function is total and pure; there is no error path.
func UnitsFromQuantity(packagingFactor, quantity types.Quantity) types.Quantity {
	if packagingFactor <= 0 || quantity <= 0 {
		return 0
	}

	units := quantity.Int64Scaled() / packagingFactor.Int64Scaled()
	if quantity.Int64Scaled()%packagingFactor.Int64Scaled() != 0 {
		units++
	}
	return types.NewQuantityFromInt(units)
}

// Recalculator re-derives lot unit counts and product summary totals after
// stock mutations.
type Recalculator struct {
	lots      LotRepository
	summaries SummaryRepository
}

// NewRecalculator creates a new stock recalculator.
func NewRecalculator(lots LotRepository, summaries SummaryRepository) *Recalculator {
	return &Recalculator{
		lots:      lots,
		summaries: summaries,
	}
}

// ApplyConsumption decrements the lot's quantity by qty and re-derives its
// unit count from the current packaging factor. A negative qty adds stock
// back (the reversal path). The resulting quantity is not clamped: negative
// stock is recorded as-is rather than hidden.
//
// Must run inside a transaction; the lot row is locked for the duration.
func (r *Recalculator) ApplyConsumption(ctx context.Context, owner, product, lot string, qty types.Quantity) error {
	current, err := r.lots.GetForUpdate(ctx, owner, product, lot)
	if err != nil {
		return fmt.Errorf("get lot %s/%s: %w", product, lot, err)
	}

	newQty := current.Quantity - qty
	units := UnitsFromQuantity(current.PackagingFactor, newQty)

	if err := r.lots.UpdateStock(ctx, owner, product, lot, newQty, units); err != nil {
		return fmt.Errorf("update lot stock: %w", err)
	}

	if newQty.IsNegative() {
		logger.Warn(ctx, "lot stock went negative",
			"owner", owner,
			"product", product,
			"lot", lot,
			"quantity", newQty,
		)
	}

	return nil
}

// RecomputeSummary rebuilds the product's aggregate stock from its
// non-discarded lots and persists the totals. Call after any lot mutation;
// when a batch of mutations touches one product, call once per product.
func (r *Recalculator) RecomputeSummary(ctx context.Context, owner, product string) error {
	units, quantity, err := r.lots.SumActive(ctx, owner, product)
	if err != nil {
		return fmt.Errorf("sum lots: %w", err)
	}

	if err := r.summaries.Upsert(ctx, ProductSummary{
		Owner:    owner,
		Product:  product,
		Units:    units,
		Quantity: quantity,
	}); err != nil {
		return fmt.Errorf("upsert summary: %w", err)
	}

	return nil
}
