// Package result_repo persists parameter results, their column rows and the
// operation read used by the finalization guard.
package result_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"labcore/internal/core/apperror"
	"labcore/internal/domain/attachment"
	"labcore/internal/infrastructure/storage/postgres"
)

const (
	operationsTable = "lab_operations"
	resultsTable    = "res_parameter_results"
	columnsTable    = "res_result_columns"
)

// OperationRepo implements attachment.OperationRepository.
type OperationRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewOperationRepo creates a new operation repository.
func NewOperationRepo(txm *postgres.TxManager) *OperationRepo {
	return &OperationRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Get retrieves an operation. Missing operation is a hard not-found error.
func (r *OperationRepo) Get(ctx context.Context, owner, code string) (attachment.Operation, error) {
	var op attachment.Operation

	sql, args, err := r.builder.Select("owner", "code", "validated", "signed", "client", "rate").
		From(operationsTable).
		Where(squirrel.Eq{"owner": owner, "code": code}).
		ToSql()
	if err != nil {
		return op, fmt.Errorf("build query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &op, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return op, apperror.NewNotFound("operation", code)
		}
		return op, fmt.Errorf("get operation: %w", err)
	}
	return op, nil
}

var _ attachment.OperationRepository = (*OperationRepo)(nil)

// ResultRepo implements attachment.ResultRepository.
type ResultRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewResultRepo creates a new result repository.
func NewResultRepo(txm *postgres.TxManager) *ResultRepo {
	return &ResultRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// InsertResult inserts the result row. A duplicate (owner, operation,
// parameter) key is reported through inserted=false, never as an error.
func (r *ResultRepo) InsertResult(ctx context.Context, res attachment.ParameterResult) (bool, error) {
	sql, args, err := r.builder.Insert(resultsTable).
		Columns("owner", "operation", "parameter", "service", "position",
			"price", "discount", "regulation", "analyst", "department", "mark").
		Values(res.Owner, res.Operation, res.Parameter, res.Service, res.Position,
			res.Price, res.Discount, res.Regulation, res.Analyst, res.Department, res.Mark).
		Suffix("ON CONFLICT (owner, operation, parameter) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("insert result: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// InsertColumn inserts one column row, idempotently.
func (r *ResultRepo) InsertColumn(ctx context.Context, c attachment.ResultColumn) (bool, error) {
	sql, args, err := r.builder.Insert(columnsTable).
		Columns("owner", "operation", "parameter", "col", "number", "value").
		Values(c.Owner, c.Operation, c.Parameter, c.Column, c.Number, c.Value).
		Suffix("ON CONFLICT (owner, operation, parameter, col) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("insert column: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteColumns removes all column rows of an (operation, parameter) pair.
func (r *ResultRepo) DeleteColumns(ctx context.Context, owner, operation, parameter string) error {
	sql, args, err := r.builder.Delete(columnsTable).
		Where(squirrel.Eq{"owner": owner, "operation": operation, "parameter": parameter}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete columns: %w", err)
	}
	return nil
}

// DeleteResult removes the result row itself.
func (r *ResultRepo) DeleteResult(ctx context.Context, owner, operation, parameter string) error {
	sql, args, err := r.builder.Delete(resultsTable).
		Where(squirrel.Eq{"owner": owner, "operation": operation, "parameter": parameter}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	return nil
}

var _ attachment.ResultRepository = (*ResultRepo)(nil)
