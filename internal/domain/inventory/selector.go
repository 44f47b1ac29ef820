package inventory

import (
	"context"
	"fmt"
	"time"
)

// Selector finds the default lot to draw a product from.
type Selector struct {
	lots LotRepository
	now  func() time.Time
}

// NewSelector creates a new lot selector.
func NewSelector(lots LotRepository) *Selector {
	return &Selector{
		lots: lots,
		now:  time.Now,
	}
}

// DefaultLot returns the best eligible lot for the product.
//
// Each tier of SelectionTiers runs as a full eligibility query; the first
// non-empty result wins. Within a tier the lexicographically-first lot by
// (owner, product, lot) is chosen. Returns found=false when no tier matches;
// callers decide whether that is an error.
func (s *Selector) DefaultLot(ctx context.Context, owner, product string) (string, bool, error) {
	now := s.now()

	for i, tier := range SelectionTiers() {
		lot, found, err := s.lots.FindFirstEligible(ctx, owner, product, tier, now)
		if err != nil {
			return "", false, fmt.Errorf("lot selection tier %d: %w", i+1, err)
		}
		if found {
			return lot, true, nil
		}
	}

	return "", false, nil
}
