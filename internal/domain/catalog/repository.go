package catalog

import (
	"context"
)

// Repository defines the read side of the catalog.
//
// Override lookups (prices, regulation, analyst, department, mark) are soft:
// a miss is reported through the found flag and resolves to a documented
// default at the caller, never to an error.
type Repository interface {
	// Parameter retrieves a parameter definition. Missing parameter is a hard
	// not-found error: nothing can be attached without its catalog entry.
	Parameter(ctx context.Context, owner, code string) (Parameter, error)

	// ConsumptionTemplates lists material consumption rows for a parameter,
	// in catalog order.
	ConsumptionTemplates(ctx context.Context, owner, parameter string) ([]ConsumptionTemplate, error)

	// EquipmentTemplates lists equipment-use rows for a parameter.
	EquipmentTemplates(ctx context.Context, owner, parameter string) ([]EquipmentTemplate, error)

	// ColumnTemplates lists result-entry column slots for a parameter type,
	// in template order. Column numbering follows this order, starting at 1.
	ColumnTemplates(ctx context.Context, owner, parameterType string) ([]ColumnTemplate, error)

	// RatePrice returns the price override for (rate, parameter).
	RatePrice(ctx context.Context, owner, rate, parameter string) (PriceOverride, bool, error)

	// ClientPrice returns the price override for (client, parameter).
	ClientPrice(ctx context.Context, owner, client, parameter string) (PriceOverride, bool, error)

	// Regulation returns the override text for (parameter, serviceRegulation).
	// Empty override text counts as absent.
	Regulation(ctx context.Context, owner, parameter, serviceRegulation string) (string, bool, error)

	// DefaultAnalyst returns the employee code of the lowest-position analyst
	// assignment for the parameter.
	DefaultAnalyst(ctx context.Context, owner, parameter string) (string, bool, error)

	// SectionDepartment maps a parameter's section to its department code.
	SectionDepartment(ctx context.Context, owner, section string) (string, bool, error)

	// PricingMode returns the owner's global pricing-mode configuration.
	// Defaults to PricingByRate when unset.
	PricingMode(ctx context.Context, owner string) (PricingMode, error)

	// DefaultMark returns the owner's default mark.
	DefaultMark(ctx context.Context, owner string) (string, bool, error)
}
