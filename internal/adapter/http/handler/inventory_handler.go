package handler

import (
	"spareparts-billing/internal/core/ports"
	"spareparts-billing/pkg/apperror"
	"spareparts-billing/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// InventoryHandler serves cached global inventory views. The views are
// advisory reads for reservation flows; pricing and the ledger never
// depend on them.
type InventoryHandler struct {
	cache ports.InventoryCache
	log   zerolog.Logger
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(cache ports.InventoryCache, log zerolog.Logger) *InventoryHandler {
	return &InventoryHandler{cache: cache, log: log}
}

// GetView handles GET /api/v1/inventory/:part_id.
func (h *InventoryHandler) GetView(c *gin.Context) {
	partID := c.Param("part_id")
	if partID == "" {
		response.Error(c, apperror.Validation("part_id is required"))
		return
	}

	view, err := h.cache.Get(c.Request.Context(), partID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// InvalidateView handles DELETE /api/v1/inventory/:part_id/cache. The next
// read after invalidation goes to the inventory of record.
func (h *InventoryHandler) InvalidateView(c *gin.Context) {
	partID := c.Param("part_id")
	if partID == "" {
		response.Error(c, apperror.Validation("part_id is required"))
		return
	}

	if err := h.cache.Invalidate(c.Request.Context(), partID); err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}
	response.OK(c, gin.H{"part_id": partID, "invalidated": true})
}
