// Package sequence_repo provides the PostgreSQL implementation of the
// sequence counter repository.
package sequence_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"labcore/internal/domain/sequence"
	"labcore/internal/infrastructure/storage/postgres"
)

const countersTable = "seq_counters"

// CounterRepo implements sequence.Repository.
type CounterRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewCounterRepo creates a new counter repository.
func NewCounterRepo(txm *postgres.TxManager) *CounterRepo {
	return &CounterRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Increment bumps the counter in a single upsert and returns the new value.
// Creation and increment share one statement: a SELECT .. FOR UPDATE on a row
// that does not exist yet acquires no lock, so two first allocations racing
// through a read-then-write cycle would both return 1. The upsert locks the
// row it inserts or updates, keeping the row locked until the enclosing
// transaction ends when one is present.
func (r *CounterRepo) Increment(ctx context.Context, key sequence.Key) (int64, error) {
	sql, args, err := r.builder.Insert(countersTable).
		Columns("owner", "table_name", "series", "current_val").
		Values(key.Owner, key.Table, key.Series, 1).
		Suffix("ON CONFLICT (owner, table_name, series) DO UPDATE SET current_val = " + countersTable + ".current_val + 1").
		Suffix("RETURNING current_val").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build increment: %w", err)
	}

	var value int64
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&value); err != nil {
		return 0, fmt.Errorf("increment counter: %w", err)
	}

	return value, nil
}

// Ensure interface compliance.
var _ sequence.Repository = (*CounterRepo)(nil)
