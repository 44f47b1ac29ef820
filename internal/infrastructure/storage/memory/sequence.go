package memory

import (
	"context"

	"labcore/internal/domain/sequence"
)

// CounterRepo is the in-memory sequence.Repository.
type CounterRepo struct {
	store *Store
}

// NewCounterRepo creates a counter repository over the store.
func NewCounterRepo(store *Store) *CounterRepo {
	return &CounterRepo{store: store}
}

// Increment bumps the counter under the store lock. Like the real upsert,
// the create-or-increment is atomic on its own; correctness does not depend
// on the transaction fake serializing callers.
func (r *CounterRepo) Increment(ctx context.Context, key sequence.Key) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.counters[key]++
	return r.store.counters[key], nil
}

var _ sequence.Repository = (*CounterRepo)(nil)
