package memory

import (
	"context"

	"labcore/internal/core/apperror"
	"labcore/internal/domain/catalog"
)

// CatalogRepo is the in-memory catalog.Repository.
type CatalogRepo struct {
	store *Store
}

// NewCatalogRepo creates a catalog repository over the store.
func NewCatalogRepo(store *Store) *CatalogRepo {
	return &CatalogRepo{store: store}
}

// Parameter retrieves a parameter definition.
func (r *CatalogRepo) Parameter(ctx context.Context, owner, code string) (catalog.Parameter, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.parameters[operationKey{Owner: owner, Code: code}]
	if !ok {
		return catalog.Parameter{}, apperror.NewNotFound("parameter", code)
	}
	return p, nil
}

// ConsumptionTemplates lists material consumption rows in insertion order.
func (r *CatalogRepo) ConsumptionTemplates(ctx context.Context, owner, parameter string) ([]catalog.ConsumptionTemplate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []catalog.ConsumptionTemplate
	for _, t := range r.store.consumptionTemplates {
		if t.Owner == owner && t.Parameter == parameter {
			out = append(out, t)
		}
	}
	return out, nil
}

// EquipmentTemplates lists equipment-use rows in insertion order.
func (r *CatalogRepo) EquipmentTemplates(ctx context.Context, owner, parameter string) ([]catalog.EquipmentTemplate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []catalog.EquipmentTemplate
	for _, t := range r.store.equipmentTemplates {
		if t.Owner == owner && t.Parameter == parameter {
			out = append(out, t)
		}
	}
	return out, nil
}

// ColumnTemplates lists result-entry column slots in insertion order.
func (r *CatalogRepo) ColumnTemplates(ctx context.Context, owner, parameterType string) ([]catalog.ColumnTemplate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []catalog.ColumnTemplate
	for _, t := range r.store.columnTemplates {
		if t.Owner == owner && t.ParameterType == parameterType {
			out = append(out, t)
		}
	}
	return out, nil
}

// RatePrice returns the price override for (rate, parameter).
func (r *CatalogRepo) RatePrice(ctx context.Context, owner, rate, parameter string) (catalog.PriceOverride, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	o, ok := r.store.ratePrices[priceKey{Owner: owner, Key: rate, Parameter: parameter}]
	return o, ok, nil
}

// ClientPrice returns the price override for (client, parameter).
func (r *CatalogRepo) ClientPrice(ctx context.Context, owner, client, parameter string) (catalog.PriceOverride, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	o, ok := r.store.clientPrices[priceKey{Owner: owner, Key: client, Parameter: parameter}]
	return o, ok, nil
}

// Regulation returns the override text; empty text counts as absent.
func (r *CatalogRepo) Regulation(ctx context.Context, owner, parameter, serviceRegulation string) (string, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	text, ok := r.store.regulations[regulationKey{Owner: owner, Parameter: parameter, Group: serviceRegulation}]
	if !ok || text == "" {
		return "", false, nil
	}
	return text, true, nil
}

// DefaultAnalyst returns the lowest-position analyst assignment.
func (r *CatalogRepo) DefaultAnalyst(ctx context.Context, owner, parameter string) (string, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	best := ""
	bestPos := 0
	found := false
	for _, a := range r.store.analysts {
		if a.Owner != owner || a.Parameter != parameter {
			continue
		}
		if !found || a.Position < bestPos {
			best = a.Employee
			bestPos = a.Position
			found = true
		}
	}
	return best, found, nil
}

// SectionDepartment maps a section to its department code.
func (r *CatalogRepo) SectionDepartment(ctx context.Context, owner, section string) (string, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	department, ok := r.store.sections[settingKey{Owner: owner, Name: section}]
	return department, ok, nil
}

// PricingMode returns the owner's pricing mode, defaulting to by-rate.
func (r *CatalogRepo) PricingMode(ctx context.Context, owner string) (catalog.PricingMode, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	value, ok := r.store.settings[settingKey{Owner: owner, Name: "pricing_mode"}]
	if !ok || value == "" {
		return catalog.PricingByRate, nil
	}
	return catalog.PricingMode(value), nil
}

// DefaultMark returns the owner's default mark.
func (r *CatalogRepo) DefaultMark(ctx context.Context, owner string) (string, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	mark, ok := r.store.settings[settingKey{Owner: owner, Name: "default_mark"}]
	return mark, ok, nil
}

var _ catalog.Repository = (*CatalogRepo)(nil)
