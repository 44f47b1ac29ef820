package handlers

import (
	"sort"

	"github.com/gin-gonic/gin"

	"labcore/internal/domain/attachment"
	"labcore/internal/domain/catalog"
	"labcore/internal/infrastructure/http/v1/dto"
)

// AttachmentHandler exposes the attachment orchestrator.
type AttachmentHandler struct {
	base    *BaseHandler
	service *attachment.Service
}

// NewAttachmentHandler creates a new attachment handler.
func NewAttachmentHandler(base *BaseHandler, service *attachment.Service) *AttachmentHandler {
	return &AttachmentHandler{base: base, service: service}
}

// Attach handles POST /attachments.
func (h *AttachmentHandler) Attach(c *gin.Context) {
	var req dto.AttachRequest
	if !h.base.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Attach(c.Request.Context(), attachment.AttachRequest{
		Owner:             req.Owner,
		Operation:         req.Operation,
		Parameter:         req.Parameter,
		Service:           req.Service,
		ServiceRegulation: req.ServiceRegulation,
		Position:          req.Position,
		PricingMode:       catalog.PricingMode(req.PricingMode),
		UseDefaultValue:   req.UseDefaultValue,
		Mark:              req.Mark,
		Rate:              req.Rate,
		Client:            req.Client,
	})
	if err != nil {
		h.base.Error(c, err)
		return
	}

	h.base.Created(c, dto.AttachResponse{
		Employees:   sortedKeys(result.Employees),
		Departments: sortedKeys(result.Departments),
		Products:    sortedKeys(result.Products),
	})
}

// Detach handles POST /attachments/detach.
func (h *AttachmentHandler) Detach(c *gin.Context) {
	var req dto.DetachRequest
	if !h.base.BindJSON(c, &req) {
		return
	}

	if err := h.service.Detach(c.Request.Context(), req.Owner, req.Operation, req.Parameter); err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.NoContent(c)
}

// Cancel handles POST /operations/cancel: reverses every movement of the
// operation across all parameters.
func (h *AttachmentHandler) Cancel(c *gin.Context) {
	var req dto.CancelRequest
	if !h.base.BindJSON(c, &req) {
		return
	}

	if err := h.service.Cancel(c.Request.Context(), req.Owner, req.Operation); err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.NoContent(c)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
