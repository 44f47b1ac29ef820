// Package catalog provides the read-only catalog consulted while attaching
// parameters: templates, price overrides, regulation texts, analyst
// assignments and per-owner settings.
package catalog

import (
	"labcore/internal/core/types"
)

// PricingMode selects which price catalog an attachment consults.
type PricingMode string

const (
	// PricingByRate resolves prices through the rate catalog.
	PricingByRate PricingMode = "rate"
	// PricingByClient resolves prices through the client catalog.
	PricingByClient PricingMode = "client"
)

// Parameter is a catalog-defined laboratory test/measurement.
type Parameter struct {
	Owner string `db:"owner"`
	Code  string `db:"code"`

	// Type selects the column-template set for result entry.
	Type string `db:"param_type"`

	// Section links the parameter to a department.
	Section string `db:"section"`

	// Defaults used when no catalog override exists.
	Price      types.Money `db:"price"`
	Discount   string      `db:"discount"`
	Regulation string      `db:"regulation"`
}

// ConsumptionTemplate defines one material drawn when the parameter runs.
type ConsumptionTemplate struct {
	Owner     string         `db:"owner"`
	Parameter string         `db:"parameter"`
	Product   string         `db:"product"`
	Quantity  types.Quantity `db:"quantity"`
}

// EquipmentTemplate defines one piece of equipment used when the parameter runs.
type EquipmentTemplate struct {
	Owner     string `db:"owner"`
	Parameter string `db:"parameter"`
	Product   string `db:"product"`
}

// ColumnTemplate defines one result-entry slot for a parameter type.
type ColumnTemplate struct {
	Owner         string `db:"owner"`
	ParameterType string `db:"param_type"`
	Column        string `db:"col"`
	DefaultValue  string `db:"default_value"`
}

// PriceOverride is a catalog price for a (rate|client, parameter) pair.
type PriceOverride struct {
	Price    types.Money `db:"price"`
	Discount string      `db:"discount"`
}
