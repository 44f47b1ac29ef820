package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"labcore/internal/domain/sequence"
	"labcore/internal/infrastructure/http/v1/dto"
)

// SequenceHandler exposes counter allocation for the surrounding CRUD layer.
type SequenceHandler struct {
	base    *BaseHandler
	service *sequence.Service
}

// NewSequenceHandler creates a new sequence handler.
func NewSequenceHandler(base *BaseHandler, service *sequence.Service) *SequenceHandler {
	return &SequenceHandler{base: base, service: service}
}

// Next handles POST /sequences/next. Always uses the locked path: values
// handed out over HTTP have no enclosing transaction to lean on.
func (h *SequenceHandler) Next(c *gin.Context) {
	var req dto.SequenceNextRequest
	if !h.base.BindJSON(c, &req) {
		return
	}

	key := sequence.Key{Owner: req.Owner, Table: req.Table, Series: req.Series}

	if req.Prefix != "" {
		value, formatted, err := h.service.NextFormatted(c.Request.Context(), key, sequence.DefaultFormat(req.Prefix), time.Now())
		if err != nil {
			h.base.Error(c, err)
			return
		}
		h.base.OK(c, dto.SequenceNextResponse{Value: value, Formatted: formatted})
		return
	}

	value, err := h.service.Next(c.Request.Context(), key, true)
	if err != nil {
		h.base.Error(c, err)
		return
	}
	h.base.OK(c, dto.SequenceNextResponse{Value: value})
}
