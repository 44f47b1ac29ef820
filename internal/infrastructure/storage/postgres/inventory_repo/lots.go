// Package inventory_repo provides PostgreSQL implementations for the
// inventory repositories (lots, movements, product summaries).
package inventory_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"labcore/internal/core/apperror"
	"labcore/internal/core/types"
	"labcore/internal/domain/inventory"
	"labcore/internal/infrastructure/storage/postgres"
)

const (
	lotsTable      = "inv_lots"
	movementsTable = "inv_movements"
	summariesTable = "inv_product_summary"
)

// LotRepo implements inventory.LotRepository.
type LotRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewLotRepo creates a new lot repository.
func NewLotRepo(txm *postgres.TxManager) *LotRepo {
	return &LotRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// FindFirstEligible returns the first lot matching the tier.
// Date eligibility applies on every tier: each expiry-class date must be
// NULL or strictly in the future.
func (r *LotRepo) FindFirstEligible(ctx context.Context, owner, product string, tier inventory.SelectionTier, now time.Time) (string, bool, error) {
	statuses := make([]string, 0, len(tier.Statuses))
	for _, s := range tier.Statuses {
		statuses = append(statuses, string(s))
	}

	q := r.builder.Select("lot").
		From(lotsTable).
		Where(squirrel.Eq{"owner": owner, "product": product}).
		Where(squirrel.Eq{"status": statuses}).
		Where(squirrel.Or{squirrel.Eq{"expiry_at": nil}, squirrel.Gt{"expiry_at": now}}).
		Where(squirrel.Or{squirrel.Eq{"calibration_at": nil}, squirrel.Gt{"calibration_at": now}}).
		Where(squirrel.Or{squirrel.Eq{"maintenance_at": nil}, squirrel.Gt{"maintenance_at": now}}).
		Where(squirrel.Or{squirrel.Eq{"verification_at": nil}, squirrel.Gt{"verification_at": now}}).
		OrderBy("owner", "product", "lot").
		Limit(1)

	if tier.RequirePositiveQty {
		q = q.Where(squirrel.Gt{"quantity": int64(0)})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build query: %w", err)
	}

	var lot string
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&lot); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("select eligible lot: %w", err)
	}

	return lot, true, nil
}

// GetForUpdate retrieves a lot with a row lock.
func (r *LotRepo) GetForUpdate(ctx context.Context, owner, product, lot string) (inventory.Lot, error) {
	var result inventory.Lot

	sql := `
		SELECT owner, product, lot, quantity, units, packaging_factor,
		       status, expiry_at, calibration_at, maintenance_at, verification_at
		FROM inv_lots
		WHERE owner = $1 AND product = $2 AND lot = $3
		FOR UPDATE
	`

	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &result, sql, owner, product, lot); err != nil {
		if pgxscan.NotFound(err) {
			return result, apperror.NewNotFound("lot", fmt.Sprintf("%s/%s/%s", owner, product, lot))
		}
		return result, fmt.Errorf("get lot for update: %w", err)
	}

	return result, nil
}

// UpdateStock persists a lot's quantity and derived unit count.
func (r *LotRepo) UpdateStock(ctx context.Context, owner, product, lot string, quantity, units types.Quantity) error {
	sql, args, err := r.builder.Update(lotsTable).
		Set("quantity", quantity.Int64Scaled()).
		Set("units", units.Int64Scaled()).
		Where(squirrel.Eq{"owner": owner, "product": product, "lot": lot}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update lot stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("lot", fmt.Sprintf("%s/%s/%s", owner, product, lot))
	}
	return nil
}

// SumActive totals units and quantity over non-discarded lots.
func (r *LotRepo) SumActive(ctx context.Context, owner, product string) (types.Quantity, types.Quantity, error) {
	sql := `
		SELECT COALESCE(SUM(units), 0), COALESCE(SUM(quantity), 0)
		FROM inv_lots
		WHERE owner = $1 AND product = $2 AND status <> $3
	`

	var unitsScaled, quantityScaled int64
	querier := r.txm.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql, owner, product, string(inventory.LotStatusDiscarded)).
		Scan(&unitsScaled, &quantityScaled)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, fmt.Errorf("sum lots: %w", err)
	}

	return types.NewQuantityFromInt64Scaled(unitsScaled), types.NewQuantityFromInt64Scaled(quantityScaled), nil
}

// Ensure interface compliance.
var _ inventory.LotRepository = (*LotRepo)(nil)
