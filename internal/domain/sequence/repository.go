package sequence

import (
	"context"
)

// Key identifies a named counter. Each (owner, table, series) triple is an
// independent numbering stream.
type Key struct {
	// Owner is the delegation/branch the counter belongs to.
	Owner string
	// Table names the entity the counter numbers (e.g. "inv_movements").
	Table string
	// Series distinguishes independent streams within the same table.
	Series string
}

// Repository defines persistence operations for counters.
type Repository interface {
	// Increment bumps the counter for the key and returns the new value,
	// creating the counter at 1 on first use. Creation and increment must be
	// one atomic operation: concurrent calls for the same key never observe
	// the same value, including the very first allocation. A read-then-write
	// cycle cannot provide this (locking an absent row locks nothing).
	Increment(ctx context.Context, key Key) (int64, error)
}
