package sequence

import (
	"context"
	"sync"
)

// MockGenerator is a test implementation of Generator.
// Use in unit tests to avoid database dependencies.
// Without a NextFunc it hands out incrementing values per key.
type MockGenerator struct {
	NextFunc func(ctx context.Context, key Key, useLock bool) (int64, error)

	mu       sync.Mutex
	counters map[Key]int64
}

// Next implements Generator.
func (m *MockGenerator) Next(ctx context.Context, key Key, useLock bool) (int64, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, key, useLock)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[Key]int64)
	}
	m.counters[key]++
	return m.counters[key], nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
