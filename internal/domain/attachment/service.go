package attachment

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"labcore/internal/core/apperror"
	"labcore/internal/core/tx"
	"labcore/internal/core/types"
	"labcore/internal/domain/catalog"
	"labcore/internal/domain/inventory"
	"labcore/pkg/logger"
)

var tracer = otel.Tracer("labcore/attachment")

// Service is the parameter attachment orchestrator.
type Service struct {
	ops      OperationRepository
	results  ResultRepository
	catalog  catalog.Repository
	recorder *inventory.Recorder
	txm      tx.Manager
}

// NewService creates a new attachment service.
func NewService(
	ops OperationRepository,
	results ResultRepository,
	cat catalog.Repository,
	recorder *inventory.Recorder,
	txm tx.Manager,
) *Service {
	return &Service{
		ops:      ops,
		results:  results,
		catalog:  cat,
		recorder: recorder,
		txm:      txm,
	}
}

// Attach attaches a catalog parameter to an operation.
//
// Order of steps: finalization guard, price/discount resolution, regulation
// resolution, analyst and department resolution, idempotent result row,
// idempotent column rows, consumption and equipment-use recording. All
// writes run inside one serializable transaction; catalog resolution happens
// before it as plain reads.
func (s *Service) Attach(ctx context.Context, req AttachRequest) (AttachResult, error) {
	ctx, span := tracer.Start(ctx, "attachment.attach",
		trace.WithAttributes(
			attribute.String("operation", req.Operation),
			attribute.String("parameter", req.Parameter),
		))
	defer span.End()

	result := NewAttachResult()

	if req.Owner == "" || req.Operation == "" || req.Parameter == "" {
		return result, apperror.NewValidation("owner, operation and parameter are required")
	}

	op, err := s.ops.Get(ctx, req.Owner, req.Operation)
	if err != nil {
		return result, err
	}
	if op.Finalized() {
		return result, apperror.NewOperationFinalized(req.Owner, req.Operation)
	}

	param, err := s.catalog.Parameter(ctx, req.Owner, req.Parameter)
	if err != nil {
		return result, err
	}

	price, discount, err := s.resolvePrice(ctx, req, op, param)
	if err != nil {
		return result, err
	}

	regulation, err := s.resolveRegulation(ctx, req, param)
	if err != nil {
		return result, err
	}

	analyst, department, err := s.resolveResponsible(ctx, req.Owner, param)
	if err != nil {
		return result, err
	}
	if analyst != "" {
		result.Employees[AccumKey(req.Owner, analyst)] = struct{}{}
	}
	if department != "" {
		result.Departments[AccumKey(req.Owner, department)] = struct{}{}
	}

	mark, err := s.resolveMark(ctx, req)
	if err != nil {
		return result, err
	}

	columns, err := s.catalog.ColumnTemplates(ctx, req.Owner, param.Type)
	if err != nil {
		return result, fmt.Errorf("load column templates: %w", err)
	}

	err = s.txm.RunSerializable(ctx, func(ctx context.Context) error {
		inserted, err := s.results.InsertResult(ctx, ParameterResult{
			Owner:      req.Owner,
			Operation:  req.Operation,
			Parameter:  req.Parameter,
			Service:    req.Service,
			Position:   req.Position,
			Price:      price,
			Discount:   discount,
			Regulation: regulation,
			Analyst:    analyst,
			Department: department,
			Mark:       mark,
		})
		if err != nil {
			return fmt.Errorf("insert result: %w", err)
		}
		if !inserted {
			logger.Debug(ctx, "parameter result already present",
				"operation", req.Operation,
				"parameter", req.Parameter,
			)
		}

		for i, tpl := range columns {
			value := ""
			if req.UseDefaultValue {
				value = tpl.DefaultValue
			}
			if _, err := s.results.InsertColumn(ctx, ResultColumn{
				Owner:     req.Owner,
				Operation: req.Operation,
				Parameter: req.Parameter,
				Column:    tpl.Column,
				Number:    i + 1,
				Value:     value,
			}); err != nil {
				return fmt.Errorf("insert column %s: %w", tpl.Column, err)
			}
		}

		products, err := s.recorder.RecordConsumptions(ctx, req.Owner, req.Operation, req.Parameter)
		if err != nil {
			return err
		}
		for _, p := range products {
			result.Products[AccumKey(p.Owner, p.Product)] = struct{}{}
		}

		return s.recorder.RecordEquipmentUse(ctx, req.Owner, req.Operation, req.Parameter)
	})
	if err != nil {
		return NewAttachResult(), err
	}

	logger.Info(ctx, "parameter attached",
		"owner", req.Owner,
		"operation", req.Operation,
		"parameter", req.Parameter,
		"price", price,
		"products", len(result.Products),
	)

	return result, nil
}

// Detach reverses an attachment: cancels the pair's movements and removes
// the column and result rows. Guarded by the same finalization rule.
func (s *Service) Detach(ctx context.Context, owner, operation, parameter string) error {
	ctx, span := tracer.Start(ctx, "attachment.detach",
		trace.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("parameter", parameter),
		))
	defer span.End()

	op, err := s.ops.Get(ctx, owner, operation)
	if err != nil {
		return err
	}
	if op.Finalized() {
		return apperror.NewOperationFinalized(owner, operation)
	}

	err = s.txm.RunSerializable(ctx, func(ctx context.Context) error {
		if err := s.recorder.CancelConsumptions(ctx, owner, operation, parameter); err != nil {
			return err
		}
		if err := s.results.DeleteColumns(ctx, owner, operation, parameter); err != nil {
			return fmt.Errorf("delete columns: %w", err)
		}
		if err := s.results.DeleteResult(ctx, owner, operation, parameter); err != nil {
			return fmt.Errorf("delete result: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "parameter detached",
		"owner", owner,
		"operation", operation,
		"parameter", parameter,
	)
	return nil
}

// Cancel reverses every movement of an operation across all parameters.
// Used when the whole operation is withdrawn.
func (s *Service) Cancel(ctx context.Context, owner, operation string) error {
	op, err := s.ops.Get(ctx, owner, operation)
	if err != nil {
		return err
	}
	if op.Finalized() {
		return apperror.NewOperationFinalized(owner, operation)
	}

	return s.txm.RunSerializable(ctx, func(ctx context.Context) error {
		return s.recorder.CancelConsumptions(ctx, owner, operation, "")
	})
}

// resolvePrice computes price and discount for the attachment.
// By-rate mode consults the rate catalog, by-client mode the client catalog;
// a missing override falls back to the parameter's own defaults. A missing
// override is never an error.
func (s *Service) resolvePrice(ctx context.Context, req AttachRequest, op Operation, param catalog.Parameter) (types.Money, string, error) {
	mode := req.PricingMode
	if mode == "" {
		m, err := s.catalog.PricingMode(ctx, req.Owner)
		if err != nil {
			return types.Zero(), "", fmt.Errorf("resolve pricing mode: %w", err)
		}
		mode = m
	}

	switch mode {
	case catalog.PricingByRate:
		rate := req.Rate
		if rate == "" {
			rate = op.Rate
		}
		override, found, err := s.catalog.RatePrice(ctx, req.Owner, rate, req.Parameter)
		if err != nil {
			return types.Zero(), "", fmt.Errorf("rate price lookup: %w", err)
		}
		if found {
			return override.Price, override.Discount, nil
		}
	default:
		client := req.Client
		if client == "" {
			client = op.Client
		}
		override, found, err := s.catalog.ClientPrice(ctx, req.Owner, client, req.Parameter)
		if err != nil {
			return types.Zero(), "", fmt.Errorf("client price lookup: %w", err)
		}
		if found {
			return override.Price, override.Discount, nil
		}
	}

	return param.Price, param.Discount, nil
}

// resolveRegulation prefers the (parameter, service-regulation) override when
// present and non-empty, else the parameter's own text.
func (s *Service) resolveRegulation(ctx context.Context, req AttachRequest, param catalog.Parameter) (string, error) {
	text, found, err := s.catalog.Regulation(ctx, req.Owner, req.Parameter, req.ServiceRegulation)
	if err != nil {
		return "", fmt.Errorf("regulation lookup: %w", err)
	}
	if found && text != "" {
		return text, nil
	}
	return param.Regulation, nil
}

// resolveResponsible finds the default analyst (lowest-position assignment)
// and the department mapped from the parameter's section. Both are soft:
// absent entries resolve to empty strings.
func (s *Service) resolveResponsible(ctx context.Context, owner string, param catalog.Parameter) (analyst, department string, err error) {
	analyst, _, err = s.catalog.DefaultAnalyst(ctx, owner, param.Code)
	if err != nil {
		return "", "", fmt.Errorf("analyst lookup: %w", err)
	}

	if param.Section != "" {
		department, _, err = s.catalog.SectionDepartment(ctx, owner, param.Section)
		if err != nil {
			return "", "", fmt.Errorf("department lookup: %w", err)
		}
	}

	return analyst, department, nil
}

// resolveMark prefers the request mark, then the owner's default mark,
// then empty.
func (s *Service) resolveMark(ctx context.Context, req AttachRequest) (string, error) {
	if req.Mark != "" {
		return req.Mark, nil
	}
	mark, _, err := s.catalog.DefaultMark(ctx, req.Owner)
	if err != nil {
		return "", fmt.Errorf("mark lookup: %w", err)
	}
	return mark, nil
}
