// Package attachment orchestrates attaching a catalog parameter to a
// laboratory operation: pricing, regulation and analyst resolution, the
// idempotent result rows, and the inventory movements the test consumes.
package attachment

import (
	"strings"

	"labcore/internal/core/types"
	"labcore/internal/domain/catalog"
)

// Operation is the minimal view of a laboratory operation the orchestrator
// needs: identity plus the finalization flags guarding modification.
type Operation struct {
	Owner string `db:"owner"`
	Code  string `db:"code"`

	Validated bool `db:"validated"`
	Signed    bool `db:"signed"`

	Client string `db:"client"`
	Rate   string `db:"rate"`
}

// Finalized reports whether the operation may no longer be modified.
func (o Operation) Finalized() bool {
	return o.Validated || o.Signed
}

// ParameterResult is the row created per (operation, parameter) pair.
// Insertion is idempotent: a duplicate key is a no-op, not an error.
type ParameterResult struct {
	Owner     string `db:"owner"`
	Operation string `db:"operation"`
	Parameter string `db:"parameter"`
	Service   string `db:"service"`

	Position int `db:"position"`

	Price    types.Money `db:"price"`
	Discount string      `db:"discount"`

	Regulation string `db:"regulation"`

	Analyst    string `db:"analyst"`
	Department string `db:"department"`

	Mark string `db:"mark"`
}

// ResultColumn is one result-entry slot mirroring a column template.
// Also idempotent on insert.
type ResultColumn struct {
	Owner     string `db:"owner"`
	Operation string `db:"operation"`
	Parameter string `db:"parameter"`
	Column    string `db:"col"`

	// Number is the 1-based position in template order.
	Number int `db:"number"`

	Value string `db:"value"`
}

// AttachRequest carries the already-validated primitive arguments supplied by
// the surrounding controller layer.
type AttachRequest struct {
	Owner     string
	Operation string
	Parameter string

	// Service links the result row to the ordered service; ServiceRegulation
	// selects the regulation override group.
	Service           string
	ServiceRegulation string

	Position int

	// PricingMode selects the price catalog. When empty, the owner's global
	// pricing-mode configuration decides.
	PricingMode catalog.PricingMode

	// UseDefaultValue pre-fills result columns from their template defaults.
	UseDefaultValue bool

	// Mark overrides the owner's default mark when set.
	Mark string

	Rate   string
	Client string
}

// accumSep separates owner and code in accumulator keys.
const accumSep = "|"

// AccumKey builds the dedup key used by AttachResult sets.
func AccumKey(owner, code string) string {
	return owner + accumSep + code
}

// SplitAccumKey is the inverse of AccumKey.
func SplitAccumKey(key string) (owner, code string) {
	parts := strings.SplitN(key, accumSep, 2)
	if len(parts) != 2 {
		return "", key
	}
	return parts[0], parts[1]
}

// AttachResult reports everything an attach discovered, for the caller to
// post-process. Sets are keyed by AccumKey and deduplicated; they are
// returned rather than accumulated into caller-owned state.
type AttachResult struct {
	Employees   map[string]struct{}
	Departments map[string]struct{}
	Products    map[string]struct{}
}

// NewAttachResult creates an empty result.
func NewAttachResult() AttachResult {
	return AttachResult{
		Employees:   make(map[string]struct{}),
		Departments: make(map[string]struct{}),
		Products:    make(map[string]struct{}),
	}
}

// Merge folds another result into this one. Callers attaching several
// parameters merge the per-call results into a single set for post-processing.
func (r *AttachResult) Merge(other AttachResult) {
	for k := range other.Employees {
		r.Employees[k] = struct{}{}
	}
	for k := range other.Departments {
		r.Departments[k] = struct{}{}
	}
	for k := range other.Products {
		r.Products[k] = struct{}{}
	}
}
