package memory

import (
	"context"

	"labcore/internal/core/tx"
)

// txKey marks a context as already inside a fake transaction.
type txKey struct{}

// TxManager is an in-memory tx.Manager. It holds the store's transaction
// mutex for the duration of fn, which serializes concurrent transactions the
// way row locks do on the real database. Nested calls reuse the outer
// transaction. Rollback is not simulated: a failed fn leaves already-applied
// writes in place.
type TxManager struct {
	store *Store
}

// NewTxManager creates a transaction manager over the store.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// RunInTransaction executes fn under the store's transaction lock.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	m.store.txMu.Lock()
	defer m.store.txMu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, struct{}{}))
}

// RunSerializable behaves like RunInTransaction; the single lock already
// gives full serialization.
func (m *TxManager) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTransaction(ctx, fn)
}

// ReadOnly behaves like RunInTransaction. The fake does not enforce the
// read-only access mode.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTransaction(ctx, fn)
}

var _ tx.ReadOnlyManager = (*TxManager)(nil)
