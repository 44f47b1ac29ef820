package memory

import (
	"context"
	"sort"
	"time"

	"labcore/internal/core/apperror"
	"labcore/internal/core/types"
	"labcore/internal/domain/inventory"
)

// LotRepo is the in-memory inventory.LotRepository.
type LotRepo struct {
	store *Store
}

// NewLotRepo creates a lot repository over the store.
func NewLotRepo(store *Store) *LotRepo {
	return &LotRepo{store: store}
}

// FindFirstEligible scans lots in (owner, product, lot) order and returns the
// first one matching the tier and the date-eligibility rule.
func (r *LotRepo) FindFirstEligible(ctx context.Context, owner, product string, tier inventory.SelectionTier, now time.Time) (string, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var codes []string
	for k := range r.store.lots {
		if k.Owner == owner && k.Product == product {
			codes = append(codes, k.Lot)
		}
	}
	sort.Strings(codes)

	for _, code := range codes {
		l := r.store.lots[lotKey{Owner: owner, Product: product, Lot: code}]
		if !statusInTier(l.Status, tier) {
			continue
		}
		if tier.RequirePositiveQty && !l.Quantity.IsPositive() {
			continue
		}
		if !l.EligibleAt(now) {
			continue
		}
		return code, true, nil
	}
	return "", false, nil
}

func statusInTier(status inventory.LotStatus, tier inventory.SelectionTier) bool {
	for _, s := range tier.Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// GetForUpdate retrieves a lot. Locking is delegated to the TxManager.
func (r *LotRepo) GetForUpdate(ctx context.Context, owner, product, lot string) (inventory.Lot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	l, ok := r.store.lots[lotKey{Owner: owner, Product: product, Lot: lot}]
	if !ok {
		return inventory.Lot{}, apperror.NewNotFound("lot", lot)
	}
	return l, nil
}

// UpdateStock persists a lot's quantity and unit count.
func (r *LotRepo) UpdateStock(ctx context.Context, owner, product, lot string, quantity, units types.Quantity) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := lotKey{Owner: owner, Product: product, Lot: lot}
	l, ok := r.store.lots[key]
	if !ok {
		return apperror.NewNotFound("lot", lot)
	}
	l.Quantity = quantity
	l.Units = units
	r.store.lots[key] = l
	return nil
}

// SumActive totals units and quantity over non-discarded lots.
func (r *LotRepo) SumActive(ctx context.Context, owner, product string) (types.Quantity, types.Quantity, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var units, quantity types.Quantity
	for k, l := range r.store.lots {
		if k.Owner != owner || k.Product != product {
			continue
		}
		if l.Status == inventory.LotStatusDiscarded {
			continue
		}
		units += l.Units
		quantity += l.Quantity
	}
	return units, quantity, nil
}

var _ inventory.LotRepository = (*LotRepo)(nil)

// MovementRepo is the in-memory inventory.MovementRepository.
type MovementRepo struct {
	store *Store
}

// NewMovementRepo creates a movement repository over the store.
func NewMovementRepo(store *Store) *MovementRepo {
	return &MovementRepo{store: store}
}

// Insert appends one movement.
func (r *MovementRepo) Insert(ctx context.Context, m inventory.Movement) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.movements[movementKey{Owner: m.Owner, ID: m.ID}] = m
	return nil
}

// ListByOperation returns movements of an operation, oldest (lowest id) first.
func (r *MovementRepo) ListByOperation(ctx context.Context, owner, operation, parameter string) ([]inventory.Movement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []inventory.Movement
	for _, m := range r.store.movements {
		if m.Owner != owner || m.Operation != operation {
			continue
		}
		if parameter != "" && m.Parameter != parameter {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Delete removes one movement by id.
func (r *MovementRepo) Delete(ctx context.Context, owner string, movementID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := movementKey{Owner: owner, ID: movementID}
	if _, ok := r.store.movements[key]; !ok {
		return apperror.NewNotFound("movement", movementID)
	}
	delete(r.store.movements, key)
	return nil
}

var _ inventory.MovementRepository = (*MovementRepo)(nil)

// SummaryRepo is the in-memory inventory.SummaryRepository.
type SummaryRepo struct {
	store *Store
}

// NewSummaryRepo creates a summary repository over the store.
func NewSummaryRepo(store *Store) *SummaryRepo {
	return &SummaryRepo{store: store}
}

// Get returns the summary, zero-valued when none exists.
func (r *SummaryRepo) Get(ctx context.Context, owner, product string) (inventory.ProductSummary, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if s, ok := r.store.summaries[productKey{Owner: owner, Product: product}]; ok {
		return s, nil
	}
	return inventory.ProductSummary{Owner: owner, Product: product}, nil
}

// Upsert writes the recomputed totals.
func (r *SummaryRepo) Upsert(ctx context.Context, s inventory.ProductSummary) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.summaries[productKey{Owner: s.Owner, Product: s.Product}] = s
	return nil
}

var _ inventory.SummaryRepository = (*SummaryRepo)(nil)
