// Package catalog_repo provides the PostgreSQL read side of the catalog.
package catalog_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"labcore/internal/core/apperror"
	"labcore/internal/domain/catalog"
	"labcore/internal/infrastructure/storage/postgres"
)

const (
	parametersTable   = "cat_parameters"
	consumptionTable  = "cat_consumption_templates"
	equipmentTable    = "cat_equipment_templates"
	columnsTable      = "cat_column_templates"
	ratePricesTable   = "cat_rate_prices"
	clientPricesTable = "cat_client_prices"
	regulationsTable  = "cat_regulations"
	analystsTable     = "cat_analysts"
	sectionsTable     = "cat_sections"
	settingsTable     = "cat_settings"
)

// Repo implements catalog.Repository.
type Repo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewRepo creates a new catalog repository.
func NewRepo(txm *postgres.TxManager) *Repo {
	return &Repo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Parameter retrieves a parameter definition. Missing parameter is a hard
// not-found error.
func (r *Repo) Parameter(ctx context.Context, owner, code string) (catalog.Parameter, error) {
	var param catalog.Parameter

	sql, args, err := r.builder.Select("owner", "code", "param_type", "section",
		"price", "discount", "regulation").
		From(parametersTable).
		Where(squirrel.Eq{"owner": owner, "code": code}).
		ToSql()
	if err != nil {
		return param, fmt.Errorf("build query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &param, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return param, apperror.NewNotFound("parameter", code)
		}
		return param, fmt.Errorf("get parameter: %w", err)
	}
	return param, nil
}

// ConsumptionTemplates lists material consumption rows in catalog order.
func (r *Repo) ConsumptionTemplates(ctx context.Context, owner, parameter string) ([]catalog.ConsumptionTemplate, error) {
	sql, args, err := r.builder.Select("owner", "parameter", "product", "quantity").
		From(consumptionTable).
		Where(squirrel.Eq{"owner": owner, "parameter": parameter}).
		OrderBy("product").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var templates []catalog.ConsumptionTemplate
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &templates, sql, args...); err != nil {
		return nil, fmt.Errorf("list consumption templates: %w", err)
	}
	return templates, nil
}

// EquipmentTemplates lists equipment-use rows for a parameter.
func (r *Repo) EquipmentTemplates(ctx context.Context, owner, parameter string) ([]catalog.EquipmentTemplate, error) {
	sql, args, err := r.builder.Select("owner", "parameter", "product").
		From(equipmentTable).
		Where(squirrel.Eq{"owner": owner, "parameter": parameter}).
		OrderBy("product").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var templates []catalog.EquipmentTemplate
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &templates, sql, args...); err != nil {
		return nil, fmt.Errorf("list equipment templates: %w", err)
	}
	return templates, nil
}

// ColumnTemplates lists result-entry column slots in template order.
func (r *Repo) ColumnTemplates(ctx context.Context, owner, parameterType string) ([]catalog.ColumnTemplate, error) {
	sql, args, err := r.builder.Select("owner", "param_type", "col", "default_value").
		From(columnsTable).
		Where(squirrel.Eq{"owner": owner, "param_type": parameterType}).
		OrderBy("ordinal").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var templates []catalog.ColumnTemplate
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &templates, sql, args...); err != nil {
		return nil, fmt.Errorf("list column templates: %w", err)
	}
	return templates, nil
}

// RatePrice returns the price override for a (rate, parameter) pair.
func (r *Repo) RatePrice(ctx context.Context, owner, rate, parameter string) (catalog.PriceOverride, bool, error) {
	return r.priceOverride(ctx, ratePricesTable, "rate", owner, rate, parameter)
}

// ClientPrice returns the price override for a (client, parameter) pair.
func (r *Repo) ClientPrice(ctx context.Context, owner, client, parameter string) (catalog.PriceOverride, bool, error) {
	return r.priceOverride(ctx, clientPricesTable, "client", owner, client, parameter)
}

func (r *Repo) priceOverride(ctx context.Context, table, keyColumn, owner, key, parameter string) (catalog.PriceOverride, bool, error) {
	var override catalog.PriceOverride

	sql, args, err := r.builder.Select("price", "discount").
		From(table).
		Where(squirrel.Eq{"owner": owner, keyColumn: key, "parameter": parameter}).
		ToSql()
	if err != nil {
		return override, false, fmt.Errorf("build query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &override, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return override, false, nil
		}
		return override, false, fmt.Errorf("get price override: %w", err)
	}
	return override, true, nil
}

// Regulation returns the override text for (parameter, serviceRegulation).
// Empty stored text counts as absent.
func (r *Repo) Regulation(ctx context.Context, owner, parameter, serviceRegulation string) (string, bool, error) {
	sql, args, err := r.builder.Select("text").
		From(regulationsTable).
		Where(squirrel.Eq{"owner": owner, "parameter": parameter, "regulation_group": serviceRegulation}).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build query: %w", err)
	}

	var text string
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&text); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get regulation: %w", err)
	}
	if text == "" {
		return "", false, nil
	}
	return text, true, nil
}

// DefaultAnalyst returns the lowest-position analyst assignment for the parameter.
func (r *Repo) DefaultAnalyst(ctx context.Context, owner, parameter string) (string, bool, error) {
	sql, args, err := r.builder.Select("employee").
		From(analystsTable).
		Where(squirrel.Eq{"owner": owner, "parameter": parameter}).
		OrderBy("position").
		Limit(1).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build query: %w", err)
	}

	var employee string
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&employee); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get analyst: %w", err)
	}
	return employee, true, nil
}

// SectionDepartment maps a parameter section to its department code.
func (r *Repo) SectionDepartment(ctx context.Context, owner, section string) (string, bool, error) {
	sql, args, err := r.builder.Select("department").
		From(sectionsTable).
		Where(squirrel.Eq{"owner": owner, "section": section}).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build query: %w", err)
	}

	var department string
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&department); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get section department: %w", err)
	}
	return department, true, nil
}

// PricingMode returns the owner's global pricing mode, defaulting to by-rate.
func (r *Repo) PricingMode(ctx context.Context, owner string) (catalog.PricingMode, error) {
	value, found, err := r.setting(ctx, owner, "pricing_mode")
	if err != nil {
		return catalog.PricingByRate, err
	}
	if !found || value == "" {
		return catalog.PricingByRate, nil
	}
	return catalog.PricingMode(value), nil
}

// DefaultMark returns the owner's default mark.
func (r *Repo) DefaultMark(ctx context.Context, owner string) (string, bool, error) {
	return r.setting(ctx, owner, "default_mark")
}

func (r *Repo) setting(ctx context.Context, owner, name string) (string, bool, error) {
	sql, args, err := r.builder.Select("value").
		From(settingsTable).
		Where(squirrel.Eq{"owner": owner, "name": name}).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build query: %w", err)
	}

	var value string
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get setting %s: %w", name, err)
	}
	return value, true, nil
}

var _ catalog.Repository = (*Repo)(nil)
