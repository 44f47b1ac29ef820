package inventory_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"labcore/internal/core/apperror"
	"labcore/internal/domain/inventory"
	"labcore/internal/infrastructure/storage/postgres"
)

// MovementRepo implements inventory.MovementRepository.
type MovementRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewMovementRepo creates a new movement repository.
func NewMovementRepo(txm *postgres.TxManager) *MovementRepo {
	return &MovementRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Insert appends one movement to the ledger.
func (r *MovementRepo) Insert(ctx context.Context, m inventory.Movement) error {
	sql, args, err := r.builder.Insert(movementsTable).
		Columns("owner", "movement_id", "line_id", "movement_type", "created_at",
			"quantity", "product", "lot", "operation", "parameter").
		Values(m.Owner, m.ID, m.LineID, string(m.Type), m.At,
			m.Quantity.Int64Scaled(), m.Product, m.Lot, m.Operation, m.Parameter).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// ListByOperation returns an operation's movements oldest first.
// An empty parameter matches all parameters of the operation.
func (r *MovementRepo) ListByOperation(ctx context.Context, owner, operation, parameter string) ([]inventory.Movement, error) {
	q := r.builder.Select("owner", "movement_id", "line_id", "movement_type", "created_at",
		"quantity", "product", "lot", "operation", "parameter").
		From(movementsTable).
		Where(squirrel.Eq{"owner": owner, "operation": operation}).
		OrderBy("movement_id")

	if parameter != "" {
		q = q.Where(squirrel.Eq{"parameter": parameter})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []inventory.Movement
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return movements, nil
}

// Delete removes one movement by id.
func (r *MovementRepo) Delete(ctx context.Context, owner string, movementID int64) error {
	sql, args, err := r.builder.Delete(movementsTable).
		Where(squirrel.Eq{"owner": owner, "movement_id": movementID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("movement", movementID)
	}
	return nil
}

var _ inventory.MovementRepository = (*MovementRepo)(nil)
