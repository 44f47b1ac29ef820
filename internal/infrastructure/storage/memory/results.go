package memory

import (
	"context"

	"labcore/internal/core/apperror"
	"labcore/internal/domain/attachment"
)

// OperationRepo is the in-memory attachment.OperationRepository.
type OperationRepo struct {
	store *Store
}

// NewOperationRepo creates an operation repository over the store.
func NewOperationRepo(store *Store) *OperationRepo {
	return &OperationRepo{store: store}
}

// Get retrieves an operation.
func (r *OperationRepo) Get(ctx context.Context, owner, code string) (attachment.Operation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	op, ok := r.store.operations[operationKey{Owner: owner, Code: code}]
	if !ok {
		return attachment.Operation{}, apperror.NewNotFound("operation", code)
	}
	return op, nil
}

var _ attachment.OperationRepository = (*OperationRepo)(nil)

// ResultRepo is the in-memory attachment.ResultRepository.
type ResultRepo struct {
	store *Store
}

// NewResultRepo creates a result repository over the store.
func NewResultRepo(store *Store) *ResultRepo {
	return &ResultRepo{store: store}
}

// InsertResult inserts the result row; a duplicate key is a no-op.
func (r *ResultRepo) InsertResult(ctx context.Context, res attachment.ParameterResult) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := pairKey{Owner: res.Owner, Operation: res.Operation, Parameter: res.Parameter}
	if _, ok := r.store.results[key]; ok {
		return false, nil
	}
	r.store.results[key] = res
	return true, nil
}

// InsertColumn inserts one column row, idempotently.
func (r *ResultRepo) InsertColumn(ctx context.Context, c attachment.ResultColumn) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := columnKey{Owner: c.Owner, Operation: c.Operation, Parameter: c.Parameter, Column: c.Column}
	if _, ok := r.store.columns[key]; ok {
		return false, nil
	}
	r.store.columns[key] = c
	return true, nil
}

// DeleteColumns removes all column rows of a pair.
func (r *ResultRepo) DeleteColumns(ctx context.Context, owner, operation, parameter string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for k := range r.store.columns {
		if k.Owner == owner && k.Operation == operation && k.Parameter == parameter {
			delete(r.store.columns, k)
		}
	}
	return nil
}

// DeleteResult removes the result row itself.
func (r *ResultRepo) DeleteResult(ctx context.Context, owner, operation, parameter string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.results, pairKey{Owner: owner, Operation: operation, Parameter: parameter})
	return nil
}

var _ attachment.ResultRepository = (*ResultRepo)(nil)
