package inventory_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"labcore/internal/core/types"
	"labcore/internal/domain/inventory"
	"labcore/internal/infrastructure/storage/postgres"
)

// SummaryRepo implements inventory.SummaryRepository.
type SummaryRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewSummaryRepo creates a new summary repository.
func NewSummaryRepo(txm *postgres.TxManager) *SummaryRepo {
	return &SummaryRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Get returns the product summary, zero-valued when no row exists yet.
func (r *SummaryRepo) Get(ctx context.Context, owner, product string) (inventory.ProductSummary, error) {
	summary := inventory.ProductSummary{Owner: owner, Product: product}

	sql, args, err := r.builder.Select("units", "quantity").
		From(summariesTable).
		Where(squirrel.Eq{"owner": owner, "product": product}).
		ToSql()
	if err != nil {
		return summary, fmt.Errorf("build query: %w", err)
	}

	var unitsScaled, quantityScaled int64
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&unitsScaled, &quantityScaled); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return summary, nil
		}
		return summary, fmt.Errorf("get summary: %w", err)
	}

	summary.Units = types.NewQuantityFromInt64Scaled(unitsScaled)
	summary.Quantity = types.NewQuantityFromInt64Scaled(quantityScaled)
	return summary, nil
}

// Upsert writes the recomputed totals.
func (r *SummaryRepo) Upsert(ctx context.Context, s inventory.ProductSummary) error {
	sql, args, err := r.builder.Insert(summariesTable).
		Columns("owner", "product", "units", "quantity").
		Values(s.Owner, s.Product, s.Units.Int64Scaled(), s.Quantity.Int64Scaled()).
		Suffix("ON CONFLICT (owner, product) DO UPDATE SET units = EXCLUDED.units, quantity = EXCLUDED.quantity").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert summary: %w", err)
	}
	return nil
}

var _ inventory.SummaryRepository = (*SummaryRepo)(nil)
