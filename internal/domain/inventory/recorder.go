package inventory

import (
	"context"
	"fmt"
	"time"

	"labcore/internal/core/apperror"
	"labcore/internal/core/id"
	"labcore/internal/core/types"
	"labcore/internal/domain/catalog"
	"labcore/internal/domain/sequence"
	"labcore/pkg/logger"
)

// equipmentUseQuantity is the fixed quantity recorded for equipment usage.
var equipmentUseQuantity = types.NewQuantityFromInt(1)

// MovementsTable names the ledger table for sequence allocation.
const MovementsTable = "inv_movements"

// movementSeries is the single numbering stream for movement ids.
const movementSeries = "default"

// Recorder creates and reverses inventory movements for an operation's
// parameter.
//
// All methods expect to run inside one enclosing transaction opened by the
// orchestrating caller; movement ids are therefore allocated through the
// unlocked sequence path, which is safe only under that transaction.
type Recorder struct {
	catalog   catalog.Repository
	movements MovementRepository
	selector  *Selector
	recalc    *Recalculator
	sequence  sequence.Generator
	now       func() time.Time
}

// NewRecorder creates a new consumption recorder.
func NewRecorder(
	cat catalog.Repository,
	movements MovementRepository,
	selector *Selector,
	recalc *Recalculator,
	seq sequence.Generator,
) *Recorder {
	return &Recorder{
		catalog:   cat,
		movements: movements,
		selector:  selector,
		recalc:    recalc,
		sequence:  seq,
		now:       time.Now,
	}
}

// RecordConsumptions records one consumption movement per consumption
// template of the parameter: resolve the default lot, allocate a movement id,
// append the movement, apply the stock decrement. Summaries are recomputed
// once per distinct product at the end of the batch.
//
// Returns the deduplicated set of products consumed from. A product with no
// eligible lot fails the whole call with NO_ELIGIBLE_LOT; movements are never
// silently dropped.
func (r *Recorder) RecordConsumptions(ctx context.Context, owner, operation, parameter string) ([]ProductRef, error) {
	templates, err := r.catalog.ConsumptionTemplates(ctx, owner, parameter)
	if err != nil {
		return nil, fmt.Errorf("load consumption templates: %w", err)
	}

	seen := make(map[string]struct{}, len(templates))
	var products []ProductRef

	for _, t := range templates {
		lot, found, err := r.selector.DefaultLot(ctx, owner, t.Product)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, apperror.NewNoEligibleLot(owner, t.Product)
		}

		movementID, err := r.sequence.Next(ctx, r.movementKey(owner), false)
		if err != nil {
			return nil, err
		}

		if err := r.movements.Insert(ctx, Movement{
			Owner:     owner,
			ID:        movementID,
			LineID:    id.New(),
			Type:      MovementConsumption,
			At:        r.now(),
			Quantity:  t.Quantity,
			Product:   t.Product,
			Lot:       lot,
			Operation: operation,
			Parameter: parameter,
		}); err != nil {
			return nil, fmt.Errorf("insert consumption movement: %w", err)
		}

		if err := r.recalc.ApplyConsumption(ctx, owner, t.Product, lot, t.Quantity); err != nil {
			return nil, err
		}

		if _, ok := seen[t.Product]; !ok {
			seen[t.Product] = struct{}{}
			products = append(products, ProductRef{Owner: owner, Product: t.Product})
		}
	}

	// One recompute per distinct product for the whole batch.
	for _, p := range products {
		if err := r.recalc.RecomputeSummary(ctx, p.Owner, p.Product); err != nil {
			return nil, err
		}
	}

	if len(products) > 0 {
		logger.Info(ctx, "recorded consumptions",
			"owner", owner,
			"operation", operation,
			"parameter", parameter,
			"movements", len(templates),
			"products", len(products),
		)
	}

	return products, nil
}

// RecordEquipmentUse records one equipment-use movement per equipment
// template, fixed quantity 1. Equipment usage does not decrement stock and
// does not contribute to the affected-product set.
func (r *Recorder) RecordEquipmentUse(ctx context.Context, owner, operation, parameter string) error {
	templates, err := r.catalog.EquipmentTemplates(ctx, owner, parameter)
	if err != nil {
		return fmt.Errorf("load equipment templates: %w", err)
	}

	for _, t := range templates {
		lot, found, err := r.selector.DefaultLot(ctx, owner, t.Product)
		if err != nil {
			return err
		}
		if !found {
			return apperror.NewNoEligibleLot(owner, t.Product)
		}

		movementID, err := r.sequence.Next(ctx, r.movementKey(owner), false)
		if err != nil {
			return err
		}

		if err := r.movements.Insert(ctx, Movement{
			Owner:     owner,
			ID:        movementID,
			LineID:    id.New(),
			Type:      MovementEquipmentUse,
			At:        r.now(),
			Quantity:  equipmentUseQuantity,
			Product:   t.Product,
			Lot:       lot,
			Operation: operation,
			Parameter: parameter,
		}); err != nil {
			return fmt.Errorf("insert equipment movement: %w", err)
		}
	}

	return nil
}

// CancelConsumptions reverses and deletes the movements of an operation,
// optionally filtered to one parameter. For each consumption movement the
// lot's quantity is restored, its unit count re-derived and the product's
// summary recomputed immediately; equipment-use movements are deleted
// without touching stock. Calling with no matching movements is a no-op.
//
// The summary recompute runs per movement, not per distinct product: the
// movement set may span many products and the reversal path has no batch
// boundary to exploit.
func (r *Recorder) CancelConsumptions(ctx context.Context, owner, operation, parameter string) error {
	movements, err := r.movements.ListByOperation(ctx, owner, operation, parameter)
	if err != nil {
		return fmt.Errorf("list movements: %w", err)
	}

	for _, m := range movements {
		if m.Type == MovementConsumption {
			if err := r.recalc.ApplyConsumption(ctx, m.Owner, m.Product, m.Lot, m.Quantity.Neg()); err != nil {
				return err
			}
			if err := r.recalc.RecomputeSummary(ctx, m.Owner, m.Product); err != nil {
				return err
			}
		}

		if err := r.movements.Delete(ctx, m.Owner, m.ID); err != nil {
			return fmt.Errorf("delete movement %d: %w", m.ID, err)
		}
	}

	if len(movements) > 0 {
		logger.Info(ctx, "cancelled movements",
			"owner", owner,
			"operation", operation,
			"parameter", parameter,
			"count", len(movements),
		)
	}

	return nil
}

func (r *Recorder) movementKey(owner string) sequence.Key {
	return sequence.Key{Owner: owner, Table: MovementsTable, Series: movementSeries}
}
