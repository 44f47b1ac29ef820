package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"labcore/internal/core/apperror"
	"labcore/internal/core/tx"
	"labcore/internal/domain/inventory"
	"labcore/internal/infrastructure/http/v1/dto"
)

// InventoryHandler exposes lot selection probes and stock summaries.
// Reads run in a read-only transaction: consistent snapshot, no row locks.
type InventoryHandler struct {
	base      *BaseHandler
	txm       tx.ReadOnlyManager
	selector  *inventory.Selector
	summaries inventory.SummaryRepository
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, txm tx.ReadOnlyManager, selector *inventory.Selector, summaries inventory.SummaryRepository) *InventoryHandler {
	return &InventoryHandler{base: base, txm: txm, selector: selector, summaries: summaries}
}

// DefaultLot handles GET /inventory/default-lot?owner=&product=.
// A miss is a regular response with found=false, not an error: the probe is
// advisory, only the recording path treats a miss as fatal.
func (h *InventoryHandler) DefaultLot(c *gin.Context) {
	owner := c.Query("owner")
	product := c.Query("product")
	if owner == "" || product == "" {
		h.base.Error(c, apperror.NewValidation("owner and product are required"))
		return
	}

	var (
		lot   string
		found bool
	)
	err := h.txm.ReadOnly(c.Request.Context(), func(ctx context.Context) error {
		var err error
		lot, found, err = h.selector.DefaultLot(ctx, owner, product)
		return err
	})
	if err != nil {
		h.base.Error(c, err)
		return
	}

	h.base.OK(c, dto.DefaultLotResponse{
		Owner:   owner,
		Product: product,
		Lot:     lot,
		Found:   found,
	})
}

// Summary handles GET /inventory/summary?owner=&product=.
func (h *InventoryHandler) Summary(c *gin.Context) {
	owner := c.Query("owner")
	product := c.Query("product")
	if owner == "" || product == "" {
		h.base.Error(c, apperror.NewValidation("owner and product are required"))
		return
	}

	var summary inventory.ProductSummary
	err := h.txm.ReadOnly(c.Request.Context(), func(ctx context.Context) error {
		var err error
		summary, err = h.summaries.Get(ctx, owner, product)
		return err
	})
	if err != nil {
		h.base.Error(c, err)
		return
	}

	h.base.OK(c, dto.SummaryResponse{
		Owner:    summary.Owner,
		Product:  summary.Product,
		Units:    summary.Units,
		Quantity: summary.Quantity,
	})
}
