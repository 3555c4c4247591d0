package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"spareparts-billing/internal/core/domain"
	"spareparts-billing/internal/core/ports"
	"spareparts-billing/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	decimalOne     = decimal.NewFromInt(1)
	decimalHundred = decimal.NewFromInt(100)
)

// PricingServiceImpl implements ports.PricingService.
type PricingServiceImpl struct {
	cfgRepo ports.PricingConfigRepository
	log     zerolog.Logger
}

// NewPricingService creates a new PricingServiceImpl.
func NewPricingService(cfgRepo ports.PricingConfigRepository, log zerolog.Logger) *PricingServiceImpl {
	return &PricingServiceImpl{
		cfgRepo: cfgRepo,
		log:     log,
	}
}

// Calculate converts a shipment request into an itemised cost breakdown.
// The computation is deterministic: same request + same config = same
// breakdown, including the order of AppliedRules. Intermediate figures are
// kept unrounded; rounding to 2dp half-up happens once at assembly.
func (s *PricingServiceImpl) Calculate(ctx context.Context, req domain.PricingRequest) (*domain.CostBreakdown, error) {
	if err := validatePricingRequest(req); err != nil {
		return nil, err
	}

	cfg, degraded := s.loadConfig(ctx)

	rates := cfg.Forward
	if req.Direction == domain.DirectionReverse {
		rates = cfg.Reverse
	}

	pieces := decimal.NewFromInt(int64(req.Pieces))
	rules := make([]string, 0, 8)
	if degraded {
		rules = append(rules, "pricing configuration unavailable, default rates in effect")
	}

	// Step 1-2: resolve base rate per piece, then scale by piece count.
	baseRatePerUnit, rateRule, err := s.resolveBaseRate(ctx, req, cfg)
	if err != nil {
		return nil, err
	}
	rules = append(rules, rateRule)

	baseRate := baseRatePerUnit.Mul(pieces)
	rules = append(rules, fmt.Sprintf("base rate: %s x %d piece(s) = %s",
		baseRatePerUnit.StringFixed(2), req.Pieces, baseRate.StringFixed(2)))

	// Step 3: weight charges on weight above the free allowance.
	freeWeight := rates.FreeWeightPerPieceKg.Mul(pieces)
	excessWeight := req.WeightKg.Sub(freeWeight)
	weightCharges := decimal.Zero
	if excessWeight.GreaterThan(decimal.Zero) {
		weightCharges = excessWeight.Mul(rates.WeightRatePerKg)
		rules = append(rules, fmt.Sprintf("excess weight %skg x %s/kg = %s",
			excessWeight.StringFixed(2), rates.WeightRatePerKg.StringFixed(2), weightCharges.StringFixed(2)))
	} else {
		rules = append(rules, fmt.Sprintf("weight %skg within free allowance %skg, no weight charges",
			req.WeightKg.StringFixed(2), freeWeight.StringFixed(2)))
	}

	// Step 4: service multiplier applies on top of base + weight.
	serviceCharges := decimal.Zero
	if req.Service == domain.ServiceExpress {
		serviceCharges = baseRate.Add(weightCharges).Mul(rates.ExpressMultiplier.Sub(decimalOne))
		rules = append(rules, fmt.Sprintf("express multiplier %s: service charges %s",
			rates.ExpressMultiplier.String(), serviceCharges.StringFixed(2)))
	} else {
		rules = append(rules, "standard service: no service charges")
	}

	// Step 5: remote area surcharge by pincode prefix, per piece.
	remoteSurcharge := decimal.Zero
	if req.Pincode != "" {
		if prefix, ok := matchRemotePrefix(req.Pincode, cfg.RemotePincodePrefixes); ok {
			remoteSurcharge = rates.RemoteAreaRatePerPiece.Mul(pieces)
			rules = append(rules, fmt.Sprintf("remote area surcharge %s x %d piece(s) = %s (pincode prefix %s)",
				rates.RemoteAreaRatePerPiece.StringFixed(2), req.Pieces, remoteSurcharge.StringFixed(2), prefix))
		} else {
			rules = append(rules, fmt.Sprintf("pincode %s not in remote area list, no surcharge", req.Pincode))
		}
	}

	// Steps 6-7: subtotal and platform markup.
	subtotal := baseRate.Add(weightCharges).Add(serviceCharges).Add(remoteSurcharge)
	markup := subtotal.Mul(rates.MarkupPercent).Div(decimalHundred)
	rules = append(rules, fmt.Sprintf("platform markup %s%% on %s = %s",
		rates.MarkupPercent.String(), subtotal.StringFixed(2), markup.StringFixed(2)))

	// Step 8: minimum charge floor.
	finalCost := subtotal.Add(markup)
	if finalCost.LessThan(rates.MinimumCharge) {
		rules = append(rules, fmt.Sprintf("computed total %s below minimum charge, clamped to %s",
			finalCost.StringFixed(2), rates.MinimumCharge.StringFixed(2)))
		finalCost = rates.MinimumCharge
	}

	// Step 9: round only at assembly to avoid compounding rounding error.
	return &domain.CostBreakdown{
		BaseRate:            baseRate.Round(2),
		WeightCharges:       weightCharges.Round(2),
		ServiceCharges:      serviceCharges.Round(2),
		RemoteAreaSurcharge: remoteSurcharge.Round(2),
		PlatformMarkup:      markup.Round(2),
		FinalCost:           finalCost.Round(2),
		AppliedRules:        rules,
		Degraded:            degraded,
	}, nil
}

// resolveBaseRate picks the per-piece base rate: brand override or config
// default for forward, reason-specific or generic default for reverse.
func (s *PricingServiceImpl) resolveBaseRate(ctx context.Context, req domain.PricingRequest, cfg domain.PricingConfig) (decimal.Decimal, string, error) {
	if req.Direction == domain.DirectionForward {
		if req.BrandID != uuid.Nil {
			override, err := s.cfgRepo.GetBrandOverride(ctx, req.BrandID)
			if err != nil {
				s.log.Warn().Err(err).Str("brand_id", req.BrandID.String()).
					Msg("brand override lookup failed, using forward default rate")
			} else if override != nil && override.IsActive {
				return override.RatePerPiece,
					fmt.Sprintf("active brand rate override %s per piece", override.RatePerPiece.StringFixed(2)), nil
			}
		}
		return cfg.Forward.BaseRatePerPiece,
			fmt.Sprintf("forward base rate %s per piece", cfg.Forward.BaseRatePerPiece.StringFixed(2)), nil
	}

	if req.ReturnReason != nil {
		rate, ok := cfg.ReasonRate(*req.ReturnReason)
		if !ok {
			return decimal.Zero, "", apperror.ErrUnknownReturnReason(string(*req.ReturnReason))
		}
		return rate, fmt.Sprintf("reverse rate for %s: %s per piece",
			strings.ToLower(string(*req.ReturnReason)), rate.StringFixed(2)), nil
	}
	return cfg.Reverse.BaseRatePerPiece,
		fmt.Sprintf("reverse default rate %s per piece", cfg.Reverse.BaseRatePerPiece.StringFixed(2)), nil
}

// GetConfig returns the current rate table merged over hard defaults.
func (s *PricingServiceImpl) GetConfig(ctx context.Context) (*domain.PricingConfig, error) {
	patch, version, err := s.cfgRepo.GetConfig(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load pricing config: %w", err))
	}
	cfg := domain.MergePricingConfig(patch, version)
	return &cfg, nil
}

// UpdateConfig validates and persists a rate table patch, returning the
// resulting merged configuration.
func (s *PricingServiceImpl) UpdateConfig(ctx context.Context, patch *domain.PricingConfigPatch) (*domain.PricingConfig, error) {
	if patch == nil {
		return nil, apperror.ErrInvalidConfig("empty config update")
	}
	if err := validateConfigPatch(patch); err != nil {
		return nil, err
	}
	version, err := s.cfgRepo.UpsertConfig(ctx, patch)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("persist pricing config: %w", err))
	}
	cfg := domain.MergePricingConfig(patch, version)
	s.log.Info().Int("version", version).Msg("pricing configuration updated")
	return &cfg, nil
}

// SetBrandOverride upserts the forward base rate override for a brand.
func (s *PricingServiceImpl) SetBrandOverride(ctx context.Context, brandID uuid.UUID, rate decimal.Decimal, active bool) error {
	if brandID == uuid.Nil {
		return apperror.Validation("brand_id is required")
	}
	if rate.IsNegative() {
		return apperror.ErrInvalidConfig("override rate_per_piece must not be negative")
	}
	err := s.cfgRepo.UpsertBrandOverride(ctx, &domain.BrandRateOverride{
		BrandID:      brandID,
		RatePerPiece: rate,
		IsActive:     active,
		UpdatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("persist brand override: %w", err))
	}
	s.log.Info().
		Str("brand_id", brandID.String()).
		Str("rate", rate.StringFixed(2)).
		Bool("active", active).
		Msg("brand rate override updated")
	return nil
}

// loadConfig fetches the persisted rate table and merges it over defaults.
// Missing or unreadable config never fails a pricing call; it flags the
// result as degraded instead.
func (s *PricingServiceImpl) loadConfig(ctx context.Context) (domain.PricingConfig, bool) {
	patch, version, err := s.cfgRepo.GetConfig(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("pricing config load failed, using defaults")
		return domain.DefaultPricingConfig(), true
	}
	if patch == nil {
		s.log.Warn().Msg("no pricing config record, using defaults")
		return domain.DefaultPricingConfig(), true
	}
	return domain.MergePricingConfig(patch, version), false
}

func validatePricingRequest(req domain.PricingRequest) error {
	if !req.WeightKg.GreaterThan(decimal.Zero) {
		return apperror.Validation("weight_kg must be greater than zero")
	}
	if req.Pieces < 1 {
		return apperror.Validation("pieces must be at least 1")
	}
	if !req.Service.Valid() {
		return apperror.Validation("service must be STANDARD or EXPRESS")
	}
	if !req.Direction.Valid() {
		return apperror.Validation("direction must be FORWARD or REVERSE")
	}
	if req.ReturnReason != nil && !req.ReturnReason.Valid() {
		return apperror.ErrUnknownReturnReason(string(*req.ReturnReason))
	}
	return nil
}

func validateConfigPatch(patch *domain.PricingConfigPatch) error {
	for side, p := range map[string]*domain.CourierRatesPatch{"forward": patch.Forward, "reverse": patch.Reverse} {
		if p == nil {
			continue
		}
		for field, v := range map[string]*decimal.Decimal{
			"base_rate_per_piece":        p.BaseRatePerPiece,
			"weight_rate_per_kg":         p.WeightRatePerKg,
			"free_weight_per_piece_kg":   p.FreeWeightPerPieceKg,
			"markup_percent":             p.MarkupPercent,
			"minimum_charge":             p.MinimumCharge,
			"remote_area_rate_per_piece": p.RemoteAreaRatePerPiece,
		} {
			if v != nil && v.IsNegative() {
				return apperror.ErrInvalidConfig(fmt.Sprintf("%s.%s must not be negative", side, field))
			}
		}
		if p.ExpressMultiplier != nil && p.ExpressMultiplier.LessThan(decimalOne) {
			return apperror.ErrInvalidConfig(fmt.Sprintf("%s.express_multiplier must be at least 1", side))
		}
	}
	if rr := patch.ReturnReasons; rr != nil {
		for field, v := range map[string]*decimal.Decimal{
			"defective":       rr.Defective,
			"wrong_part":      rr.WrongPart,
			"excess_stock":    rr.ExcessStock,
			"customer_return": rr.CustomerReturn,
		} {
			if v != nil && v.IsNegative() {
				return apperror.ErrInvalidConfig(fmt.Sprintf("return_reasons.%s must not be negative", field))
			}
		}
	}
	return nil
}

func matchRemotePrefix(pincode string, prefixes []string) (string, bool) {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(pincode, p) {
			return p, true
		}
	}
	return "", false
}
