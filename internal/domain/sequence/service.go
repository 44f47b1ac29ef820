// Package sequence provides collision-free counter allocation keyed by
// (owner, table, series). Counters mint primary keys and document numbers;
// values start at 1, grow monotonically and are never reused.
package sequence

import (
	"context"
	"fmt"
	"time"

	"labcore/internal/core/apperror"
	"labcore/internal/core/tx"
	"labcore/pkg/logger"
)

// Generator allocates the next value of a named counter.
// This is the domain contract - the concrete service lives below, a mock for
// tests in mock.go.
type Generator interface {
	// Next returns the next integer for the key. Concurrent callers for the
	// same key always observe distinct values; the returned set is gap-free.
	//
	// With useLock=true the allocation runs in its own transaction and
	// commits independently of the caller: the value is durable once
	// returned.
	//
	// With useLock=false the increment runs on the caller's querier. Inside
	// an enclosing transaction the counter row stays locked until that
	// transaction ends, and a rollback returns the value to the stream.
	Next(ctx context.Context, key Key, useLock bool) (int64, error)
}

// Service implements Generator over a Repository.
type Service struct {
	repo Repository
	txm  tx.Manager
}

// Ensure compile-time interface compliance.
var _ Generator = (*Service)(nil)

// NewService creates a new sequence service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{
		repo: repo,
		txm:  txm,
	}
}

// Next implements Generator.
func (s *Service) Next(ctx context.Context, key Key, useLock bool) (int64, error) {
	if key.Owner == "" || key.Table == "" || key.Series == "" {
		return 0, apperror.NewValidation("sequence key requires owner, table and series")
	}

	if !useLock {
		value, err := s.repo.Increment(ctx, key)
		if err != nil {
			return 0, apperror.NewSequenceGeneration(err)
		}
		return value, nil
	}

	var value int64
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		v, err := s.repo.Increment(ctx, key)
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	if err != nil {
		return 0, apperror.NewSequenceGeneration(err)
	}

	logger.Debug(ctx, "allocated sequence value",
		"owner", key.Owner,
		"table", key.Table,
		"series", key.Series,
		"value", value,
	)

	return value, nil
}

// Format holds formatting rules for caller-facing sequence numbers.
type Format struct {
	// Prefix added to all numbers (e.g. "OP", "MV")
	Prefix string

	// IncludeYear adds year to the number
	IncludeYear bool

	// PadWidth is the minimum number width (default 5)
	PadWidth int
}

// DefaultFormat returns sensible defaults.
func DefaultFormat(prefix string) Format {
	return Format{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
	}
}

// NextFormatted allocates the next value and renders it.
// Pattern: PREFIX-YEAR-XXXXX (e.g. OP-2026-00001).
// Always uses the locked path: formatted numbers are caller-facing.
func (s *Service) NextFormatted(ctx context.Context, key Key, f Format, period time.Time) (int64, string, error) {
	num, err := s.Next(ctx, key, true)
	if err != nil {
		return 0, "", err
	}
	return num, FormatNumber(f, period, num), nil
}

// FormatNumber renders a counter value according to the format.
func FormatNumber(f Format, period time.Time, num int64) string {
	padWidth := f.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}

	if f.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", f.Prefix, period.Format("2006"), padWidth, num)
	}
	return fmt.Sprintf("%s-%0*d", f.Prefix, padWidth, num)
}

// ParseNumber extracts the numeric part from a formatted number.
// Returns -1 if parsing fails.
func ParseNumber(formatted string) int64 {
	var num int64
	patterns := []string{
		"%*[^-]-%*d-%d",
		"%*[^-]-%d",
	}

	for _, pattern := range patterns {
		if _, err := fmt.Sscanf(formatted, pattern, &num); err == nil {
			return num
		}
	}

	return -1
}
