// Package inventory provides lot selection, consumption recording and stock
// recalculation for physical inventory lots.
package inventory

import (
	"time"

	"labcore/internal/core/id"
	"labcore/internal/core/types"
)

// LotStatus is the lifecycle state of a physical lot.
type LotStatus string

const (
	LotStatusUsable    LotStatus = "usable"
	LotStatusBlocked   LotStatus = "blocked"
	LotStatusNew       LotStatus = "new"
	LotStatusEmpty     LotStatus = "empty"
	LotStatusDiscarded LotStatus = "discarded"

	// LotStatusUnset marks lots created without an explicit status.
	LotStatusUnset LotStatus = ""
)

// MovementType tags an inventory ledger entry.
type MovementType string

const (
	// MovementConsumption records material drawn from a lot. Decrements stock.
	MovementConsumption MovementType = "consumption"

	// MovementEquipmentUse records equipment usage. Does not touch stock.
	MovementEquipmentUse MovementType = "equipment_use"
)

// Lot is a physical batch/serial instance of a product.
type Lot struct {
	Owner   string `db:"owner"`
	Product string `db:"product"`
	Code    string `db:"lot"`

	Quantity types.Quantity `db:"quantity"`

	// Units is derived from Quantity and PackagingFactor, never entered.
	Units types.Quantity `db:"units"`

	// PackagingFactor is the quantity contained in one whole unit.
	PackagingFactor types.Quantity `db:"packaging_factor"`

	Status LotStatus `db:"status"`

	// A lot is eligible for selection only while none of these dates has
	// passed. Null dates never disqualify.
	ExpiryAt       *time.Time `db:"expiry_at"`
	CalibrationAt  *time.Time `db:"calibration_at"`
	MaintenanceAt  *time.Time `db:"maintenance_at"`
	VerificationAt *time.Time `db:"verification_at"`
}

// EligibleAt reports whether every expiry-class date is either unset or
// strictly in the future.
func (l Lot) EligibleAt(now time.Time) bool {
	for _, d := range []*time.Time{l.ExpiryAt, l.CalibrationAt, l.MaintenanceAt, l.VerificationAt} {
		if d != nil && !d.After(now) {
			return false
		}
	}
	return true
}

// Movement is an append-only inventory ledger entry.
// Movements are created by the recorder and deleted by the reversal path,
// never updated in place.
type Movement struct {
	Owner string `db:"owner"`

	// ID comes from the sequence generator.
	ID int64 `db:"movement_id"`

	// LineID is a time-ordered row identifier, assigned at insert.
	LineID id.ID `db:"line_id"`

	Type MovementType `db:"movement_type"`

	At time.Time `db:"created_at"`

	Quantity types.Quantity `db:"quantity"`

	Product string `db:"product"`
	Lot     string `db:"lot"`

	Operation string `db:"operation"`
	Parameter string `db:"parameter"`
}

// ProductSummary is the aggregate stock of a product over its non-discarded
// lots. It is always recomputed from the lots, never incrementally trusted.
type ProductSummary struct {
	Owner    string         `db:"owner"`
	Product  string         `db:"product"`
	Units    types.Quantity `db:"units"`
	Quantity types.Quantity `db:"quantity"`
}

// SelectionTier is one fallback step of the default-lot search.
type SelectionTier struct {
	Statuses           []LotStatus
	RequirePositiveQty bool
}

// SelectionTiers returns the ordered fallback policy:
//  1. usable/blocked lots with stock
//  2. new/unset/empty lots with stock
//  3. usable/blocked lots regardless of quantity
func SelectionTiers() []SelectionTier {
	return []SelectionTier{
		{Statuses: []LotStatus{LotStatusUsable, LotStatusBlocked}, RequirePositiveQty: true},
		{Statuses: []LotStatus{LotStatusNew, LotStatusUnset, LotStatusEmpty}, RequirePositiveQty: true},
		{Statuses: []LotStatus{LotStatusUsable, LotStatusBlocked}},
	}
}

// ProductRef identifies a product touched by a recording pass.
type ProductRef struct {
	Owner   string
	Product string
}
