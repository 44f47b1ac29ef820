package attachment

import (
	"context"
)

// OperationRepository reads operations for the finalization guard.
type OperationRepository interface {
	// Get retrieves an operation. Missing operation is a hard not-found error.
	Get(ctx context.Context, owner, code string) (Operation, error)
}

// ResultRepository persists parameter results and their column rows.
type ResultRepository interface {
	// InsertResult inserts the result row. Returns inserted=false when the
	// (owner, operation, parameter) key already exists; that is not an error.
	InsertResult(ctx context.Context, r ParameterResult) (inserted bool, err error)

	// InsertColumn inserts one column row, idempotently.
	InsertColumn(ctx context.Context, c ResultColumn) (inserted bool, err error)

	// DeleteColumns removes all column rows of a (operation, parameter) pair.
	DeleteColumns(ctx context.Context, owner, operation, parameter string) error

	// DeleteResult removes the result row itself.
	DeleteResult(ctx context.Context, owner, operation, parameter string) error
}
