package sequence_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labcore/internal/core/apperror"
	"labcore/internal/domain/sequence"
	"labcore/internal/infrastructure/storage/memory"
)

func newService(t *testing.T) *sequence.Service {
	t.Helper()
	store := memory.NewStore()
	return sequence.NewService(memory.NewCounterRepo(store), memory.NewTxManager(store))
}

func TestNext_StartsAtOne(t *testing.T) {
	svc := newService(t)
	key := sequence.Key{Owner: "lab1", Table: "inv_movements", Series: "default"}

	v, err := svc.Next(context.Background(), key, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	v, err = svc.Next(context.Background(), key, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestNext_IndependentStreams(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	a := sequence.Key{Owner: "lab1", Table: "inv_movements", Series: "default"}
	b := sequence.Key{Owner: "lab1", Table: "inv_movements", Series: "annual"}
	c := sequence.Key{Owner: "lab2", Table: "inv_movements", Series: "default"}

	for _, key := range []sequence.Key{a, b, c} {
		v, err := svc.Next(ctx, key, true)
		require.NoError(t, err)
		assert.Equal(t, int64(1), v, "each stream numbers independently")
	}

	v, err := svc.Next(ctx, a, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestNext_ValidatesKey(t *testing.T) {
	svc := newService(t)

	_, err := svc.Next(context.Background(), sequence.Key{Owner: "lab1"}, true)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

// Concurrent locked allocation must hand out exactly {1..N}: no duplicates,
// no gaps.
func TestNext_ConcurrentLockedAllocation(t *testing.T) {
	svc := newService(t)
	key := sequence.Key{Owner: "lab1", Table: "inv_movements", Series: "default"}

	const n = 50
	results := make(chan int64, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := svc.Next(context.Background(), key, true)
			assert.NoError(t, err)
			results <- v
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool, n)
	for v := range results {
		assert.False(t, seen[v], "duplicate value %d", v)
		seen[v] = true
	}
	for i := int64(1); i <= n; i++ {
		assert.True(t, seen[i], "missing value %d", i)
	}
}

// autocommitTxManager runs callbacks directly: no transaction scope, no
// serialization. Allocation must stay correct even then, because the
// repository increment is atomic on its own.
type autocommitTxManager struct{}

func (autocommitTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (autocommitTxManager) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// First allocations race hardest: there is no counter row yet, so nothing the
// transaction could lock. The repository's create-or-increment must be atomic
// by itself, with no help from the transaction manager.
func TestNext_ConcurrentFirstAllocationWithoutTxSerialization(t *testing.T) {
	svc := sequence.NewService(memory.NewCounterRepo(memory.NewStore()), autocommitTxManager{})
	key := sequence.Key{Owner: "lab1", Table: "inv_movements", Series: "default"}

	const n = 50
	results := make(chan int64, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := svc.Next(context.Background(), key, true)
			assert.NoError(t, err)
			results <- v
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool, n)
	for v := range results {
		assert.False(t, seen[v], "duplicate value %d", v)
		seen[v] = true
	}
	for i := int64(1); i <= n; i++ {
		assert.True(t, seen[i], "missing value %d", i)
	}
}

// failingRepo simulates a storage failure on every call.
type failingRepo struct{}

func (failingRepo) Increment(ctx context.Context, key sequence.Key) (int64, error) {
	return 0, errors.New("connection reset")
}

func TestNext_WrapsStorageFailure(t *testing.T) {
	svc := sequence.NewService(failingRepo{}, memory.NewTxManager(memory.NewStore()))
	key := sequence.Key{Owner: "lab1", Table: "inv_movements", Series: "default"}

	_, err := svc.Next(context.Background(), key, true)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeSequenceGeneration))

	_, err = svc.Next(context.Background(), key, false)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeSequenceGeneration),
		"unlocked path wraps failures the same way")
}

func TestNextFormatted(t *testing.T) {
	svc := newService(t)
	key := sequence.Key{Owner: "lab1", Table: "lab_operations", Series: "default"}
	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	value, formatted, err := svc.NextFormatted(context.Background(), key, sequence.DefaultFormat("OP"), period)
	require.NoError(t, err)
	assert.Equal(t, int64(1), value)
	assert.Equal(t, "OP-2026-00001", formatted)

	value, formatted, err = svc.NextFormatted(context.Background(), key, sequence.DefaultFormat("OP"), period)
	require.NoError(t, err)
	assert.Equal(t, int64(2), value)
	assert.Equal(t, "OP-2026-00002", formatted)
}

func TestFormatNumber(t *testing.T) {
	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		format sequence.Format
		num    int64
		want   string
	}{
		{"default", sequence.DefaultFormat("MV"), 7, "MV-2026-00007"},
		{"no year", sequence.Format{Prefix: "MV", PadWidth: 5}, 7, "MV-00007"},
		{"wide pad", sequence.Format{Prefix: "OP", IncludeYear: true, PadWidth: 8}, 123, "OP-2026-00000123"},
		{"zero pad defaults to 5", sequence.Format{Prefix: "X", IncludeYear: false}, 1, "X-00001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sequence.FormatNumber(tt.format, period, tt.num))
		})
	}
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, int64(7), sequence.ParseNumber("MV-2026-00007"))
	assert.Equal(t, int64(42), sequence.ParseNumber("MV-00042"))
	assert.Equal(t, int64(-1), sequence.ParseNumber("garbage"))
}
