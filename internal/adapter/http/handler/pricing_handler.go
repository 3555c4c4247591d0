package handler

import (
	"spareparts-billing/internal/adapter/http/dto"
	"spareparts-billing/internal/core/domain"
	"spareparts-billing/internal/core/ports"
	"spareparts-billing/pkg/apperror"
	"spareparts-billing/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PricingHandler exposes the pricing calculator, the responsibility
// resolver and the rate configuration endpoints.
type PricingHandler struct {
	pricing  ports.PricingService
	resolver ports.ResponsibilityResolver
	log      zerolog.Logger
}

// NewPricingHandler creates a new PricingHandler.
func NewPricingHandler(pricing ports.PricingService, resolver ports.ResponsibilityResolver, log zerolog.Logger) *PricingHandler {
	return &PricingHandler{pricing: pricing, resolver: resolver, log: log}
}

// Calculate handles POST /api/v1/pricing/calculate.
func (h *PricingHandler) Calculate(c *gin.Context) {
	var req dto.PricingCalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	domReq := domain.PricingRequest{
		WeightKg:  decimal.NewFromFloat(req.WeightKg),
		Pieces:    req.Pieces,
		Pincode:   req.Pincode,
		Service:   domain.ServiceLevel(req.Service),
		Direction: domain.CourierDirection(req.Direction),
	}
	if req.BrandID != "" {
		brandID, err := uuid.Parse(req.BrandID)
		if err != nil {
			response.Error(c, apperror.Validation("brand_id must be a valid UUID"))
			return
		}
		domReq.BrandID = brandID
	}
	if req.ReturnReason != nil {
		reason, err := domain.ParseReturnReason(*req.ReturnReason)
		if err != nil {
			response.Error(c, apperror.ErrUnknownReturnReason(*req.ReturnReason))
			return
		}
		domReq.ReturnReason = &reason
	}

	breakdown, err := h.pricing.Calculate(c.Request.Context(), domReq)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toCostBreakdownResponse(breakdown))
}

// ResolvePayer handles GET /api/v1/pricing/responsibility.
func (h *PricingHandler) ResolvePayer(c *gin.Context) {
	direction := domain.CourierDirection(c.Query("direction"))
	if !direction.Valid() {
		response.Error(c, apperror.Validation("direction must be FORWARD or REVERSE"))
		return
	}

	var reason *domain.ReturnReason
	if raw := c.Query("return_reason"); raw != "" {
		parsed, err := domain.ParseReturnReason(raw)
		if err != nil {
			response.Error(c, apperror.ErrUnknownReturnReason(raw))
			return
		}
		reason = &parsed
	}

	payer, err := h.resolver.ResolvePayer(direction, reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.ResolvePayerResponse{
		Direction: string(direction),
		Payer:     string(payer),
	}
	if reason != nil {
		s := string(*reason)
		resp.ReturnReason = &s
	}
	response.OK(c, resp)
}

// GetConfig handles GET /api/v1/pricing/config.
func (h *PricingHandler) GetConfig(c *gin.Context) {
	cfg, err := h.pricing.GetConfig(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cfg)
}

// UpdateConfig handles PUT /api/v1/pricing/config. The body is a partial
// patch; omitted fields keep their current effective value.
func (h *PricingHandler) UpdateConfig(c *gin.Context) {
	var patch domain.PricingConfigPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	cfg, err := h.pricing.UpdateConfig(c.Request.Context(), &patch)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.log.Info().Int("version", cfg.Version).Msg("pricing config updated")
	response.OK(c, cfg)
}

// SetBrandOverride handles PUT /api/v1/pricing/brands/:brand_id/override.
func (h *PricingHandler) SetBrandOverride(c *gin.Context) {
	brandID, err := uuid.Parse(c.Param("brand_id"))
	if err != nil {
		response.Error(c, apperror.Validation("brand_id must be a valid UUID"))
		return
	}

	var req dto.BrandOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	rate, err := decimal.NewFromString(req.RatePerPiece)
	if err != nil || rate.IsNegative() {
		response.Error(c, apperror.Validation("rate_per_piece must be a non-negative decimal string"))
		return
	}

	if err := h.pricing.SetBrandOverride(c.Request.Context(), brandID, rate, req.IsActive); err != nil {
		response.Error(c, err)
		return
	}

	h.log.Info().
		Str("brand_id", brandID.String()).
		Str("rate_per_piece", rate.StringFixed(2)).
		Bool("is_active", req.IsActive).
		Msg("brand rate override set")
	response.OK(c, gin.H{"brand_id": brandID.String(), "rate_per_piece": rate.StringFixed(2), "is_active": req.IsActive})
}

func toCostBreakdownResponse(b *domain.CostBreakdown) dto.CostBreakdownResponse {
	return dto.CostBreakdownResponse{
		BaseRate:            b.BaseRate.StringFixed(2),
		WeightCharges:       b.WeightCharges.StringFixed(2),
		ServiceCharges:      b.ServiceCharges.StringFixed(2),
		RemoteAreaSurcharge: b.RemoteAreaSurcharge.StringFixed(2),
		PlatformMarkup:      b.PlatformMarkup.StringFixed(2),
		FinalCost:           b.FinalCost.StringFixed(2),
		AppliedRules:        b.AppliedRules,
		Degraded:            b.Degraded,
	}
}
