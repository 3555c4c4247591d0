package service

import (
	"context"
	"errors"
	"testing"

	"spareparts-billing/internal/core/domain"
	"spareparts-billing/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func errDetails(t *testing.T, err error) map[string]any {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Details
}

func setupPricingService() (*PricingServiceImpl, *fakeConfigRepo) {
	repo := newFakeConfigRepo()
	// A persisted (empty) patch means the rate table is the defaults,
	// loaded normally rather than as a degraded fallback.
	repo.patch = &domain.PricingConfigPatch{}
	repo.version = 1
	return NewPricingService(repo, zerolog.Nop()), repo
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func reasonPtr(r domain.ReturnReason) *domain.ReturnReason { return &r }

func TestPricingCalculate_ForwardStandard(t *testing.T) {
	svc, _ := setupPricingService()

	// 2 pieces, 1.5kg: free allowance 1.0kg, excess 0.5kg.
	breakdown, err := svc.Calculate(context.Background(), domain.PricingRequest{
		WeightKg:  dec("1.5"),
		Pieces:    2,
		Service:   domain.ServiceStandard,
		Direction: domain.DirectionForward,
	})
	require.NoError(t, err)

	assert.Equal(t, "100.00", breakdown.BaseRate.StringFixed(2))
	assert.Equal(t, "12.50", breakdown.WeightCharges.StringFixed(2))
	assert.Equal(t, "0.00", breakdown.ServiceCharges.StringFixed(2))
	assert.Equal(t, "0.00", breakdown.RemoteAreaSurcharge.StringFixed(2))
	assert.Equal(t, "16.88", breakdown.PlatformMarkup.StringFixed(2))
	assert.Equal(t, "129.38", breakdown.FinalCost.StringFixed(2))
	assert.False(t, breakdown.Degraded)
}

func TestPricingCalculate_ExpressMultiplier(t *testing.T) {
	svc, _ := setupPricingService()

	breakdown, err := svc.Calculate(context.Background(), domain.PricingRequest{
		WeightKg:  dec("0.5"),
		Pieces:    1,
		Service:   domain.ServiceExpress,
		Direction: domain.DirectionForward,
	})
	require.NoError(t, err)

	// base 50, no weight charges, express adds (1.5 - 1) * 50 = 25.
	assert.Equal(t, "50.00", breakdown.BaseRate.StringFixed(2))
	assert.Equal(t, "25.00", breakdown.ServiceCharges.StringFixed(2))
	assert.Equal(t, "11.25", breakdown.PlatformMarkup.StringFixed(2))
	assert.Equal(t, "86.25", breakdown.FinalCost.StringFixed(2))
}

func TestPricingCalculate_RemoteAreaSurcharge(t *testing.T) {
	svc, _ := setupPricingService()

	breakdown, err := svc.Calculate(context.Background(), domain.PricingRequest{
		WeightKg:  dec("0.5"),
		Pieces:    1,
		Pincode:   "790001",
		Service:   domain.ServiceStandard,
		Direction: domain.DirectionForward,
	})
	require.NoError(t, err)

	assert.Equal(t, "30.00", breakdown.RemoteAreaSurcharge.StringFixed(2))
	assert.Equal(t, "92.00", breakdown.FinalCost.StringFixed(2))
}

func TestPricingCalculate_NonRemotePincode(t *testing.T) {
	svc, _ := setupPricingService()

	breakdown, err := svc.Calculate(context.Background(), domain.PricingRequest{
		WeightKg:  dec("0.5"),
		Pieces:    1,
		Pincode:   "560001",
		Service:   domain.ServiceStandard,
		Direction: domain.DirectionForward,
	})
	require.NoError(t, err)
	assert.True(t, breakdown.RemoteAreaSurcharge.IsZero())
}

func TestPricingCalculate_MinimumChargeFloor(t *testing.T) {
	svc, _ := setupPricingService()

	// Defective return has a zero goodwill base rate and no excess weight,
	// so the computed total is zero and the reverse minimum applies.
	breakdown, err := svc.Calculate(context.Background(), domain.PricingRequest{
		WeightKg:     dec("0.4"),
		Pieces:       1,
		Service:      domain.ServiceStandard,
		Direction:    domain.DirectionReverse,
		ReturnReason: reasonPtr(domain.ReturnReasonDefective),
	})
	require.NoError(t, err)

	assert.True(t, breakdown.BaseRate.IsZero())
	assert.Equal(t, "50.00", breakdown.FinalCost.StringFixed(2))
	assert.Contains(t, breakdown.AppliedRules[len(breakdown.AppliedRules)-1], "minimum charge")
}

func TestPricingCalculate_ReverseReasonRates(t *testing.T) {
	svc, _ := setupPricingService()

	cases := []struct {
		reason   domain.ReturnReason
		baseRate string
	}{
		{domain.ReturnReasonDefective, "0.00"},
		{domain.ReturnReasonWrongPart, "0.00"},
		{domain.ReturnReasonExcessStock, "45.00"},
		{domain.ReturnReasonCustomerReturn, "60.00"},
	}
	for _, tc := range cases {
		t.Run(string(tc.reason), func(t *testing.T) {
			breakdown, err := svc.Calculate(context.Background(), domain.PricingRequest{
				WeightKg:     dec("0.5"),
				Pieces:       1,
				Service:      domain.ServiceStandard,
				Direction:    domain.DirectionReverse,
				ReturnReason: reasonPtr(tc.reason),
			})
			require.NoError(t, err)
			assert.Equal(t, tc.baseRate, breakdown.BaseRate.StringFixed(2))
		})
	}
}

func TestPricingCalculate_ReverseWithoutReasonUsesDefaultRate(t *testing.T) {
	svc, _ := setupPricingService()

	breakdown, err := svc.Calculate(context.Background(), domain.PricingRequest{
		WeightKg:  dec("0.5"),
		Pieces:    1,
		Service:   domain.ServiceStandard,
		Direction: domain.DirectionReverse,
	})
	require.NoError(t, err)
	assert.Equal(t, "40.00", breakdown.BaseRate.StringFixed(2))
}

func TestPricingCalculate_BrandOverride(t *testing.T) {
	svc, repo := setupPricingService()
	brandID := uuid.New()
	repo.overrides[brandID] = &domain.BrandRateOverride{
		BrandID:      brandID,
		RatePerPiece: dec("40"),
		IsActive:     true,
	}

	breakdown, err := svc.Calculate(context.Background(), domain.PricingRequest{
		BrandID:   brandID,
		WeightKg:  dec("0.5"),
		Pieces:    1,
		Service:   domain.ServiceStandard,
		Direction: domain.DirectionForward,
	})
	require.NoError(t, err)

	assert.Equal(t, "40.00", breakdown.BaseRate.StringFixed(2))
	// 40 + 6 markup = 46, below the forward minimum of 75.
	assert.Equal(t, "75.00", breakdown.FinalCost.StringFixed(2))
	assert.Contains(t, breakdown.AppliedRules[0], "brand rate override")
}

func TestPricingCalculate_InactiveOverrideIgnored(t *testing.T) {
	svc, repo := setupPricingService()
	brandID := uuid.New()
	repo.overrides[brandID] = &domain.BrandRateOverride{
		BrandID:      brandID,
		RatePerPiece: dec("40"),
		IsActive:     false,
	}

	breakdown, err := svc.Calculate(context.Background(), domain.PricingRequest{
		BrandID:   brandID,
		WeightKg:  dec("0.5"),
		Pieces:    1,
		Service:   domain.ServiceStandard,
		Direction: domain.DirectionForward,
	})
	require.NoError(t, err)
	assert.Equal(t, "50.00", breakdown.BaseRate.StringFixed(2))
}

func TestPricingCalculate_DegradedOnConfigFailure(t *testing.T) {
	repo := newFakeConfigRepo()
	repo.getErr = errors.New("connection refused")
	svc := NewPricingService(repo, zerolog.Nop())

	breakdown, err := svc.Calculate(context.Background(), domain.PricingRequest{
		WeightKg:  dec("1.5"),
		Pieces:    2,
		Service:   domain.ServiceStandard,
		Direction: domain.DirectionForward,
	})
	require.NoError(t, err)

	assert.True(t, breakdown.Degraded)
	assert.Contains(t, breakdown.AppliedRules[0], "default rates")
	// Default rates still produce the full computation.
	assert.Equal(t, "129.38", breakdown.FinalCost.StringFixed(2))
}

func TestPricingCalculate_RulesOrder(t *testing.T) {
	svc, _ := setupPricingService()

	breakdown, err := svc.Calculate(context.Background(), domain.PricingRequest{
		WeightKg:  dec("1.5"),
		Pieces:    2,
		Pincode:   "190011",
		Service:   domain.ServiceExpress,
		Direction: domain.DirectionForward,
	})
	require.NoError(t, err)

	require.Len(t, breakdown.AppliedRules, 6)
	assert.Contains(t, breakdown.AppliedRules[0], "forward base rate")
	assert.Contains(t, breakdown.AppliedRules[1], "base rate")
	assert.Contains(t, breakdown.AppliedRules[2], "excess weight")
	assert.Contains(t, breakdown.AppliedRules[3], "express multiplier")
	assert.Contains(t, breakdown.AppliedRules[4], "remote area surcharge")
	assert.Contains(t, breakdown.AppliedRules[5], "platform markup")
}

func TestPricingCalculate_Validation(t *testing.T) {
	svc, _ := setupPricingService()
	ctx := context.Background()

	valid := domain.PricingRequest{
		WeightKg:  dec("1"),
		Pieces:    1,
		Service:   domain.ServiceStandard,
		Direction: domain.DirectionForward,
	}

	req := valid
	req.WeightKg = decimal.Zero
	_, err := svc.Calculate(ctx, req)
	assertAppError(t, err, "PRC_001")

	req = valid
	req.Pieces = 0
	_, err = svc.Calculate(ctx, req)
	assertAppError(t, err, "PRC_001")

	req = valid
	req.Service = "OVERNIGHT"
	_, err = svc.Calculate(ctx, req)
	assertAppError(t, err, "PRC_001")

	req = valid
	req.Direction = "SIDEWAYS"
	_, err = svc.Calculate(ctx, req)
	assertAppError(t, err, "PRC_001")

	req = valid
	bogus := domain.ReturnReason("MELTED")
	req.ReturnReason = &bogus
	_, err = svc.Calculate(ctx, req)
	assertAppError(t, err, "PRC_002")
}

func TestPricingUpdateConfig(t *testing.T) {
	svc, _ := setupPricingService()

	newRate := dec("55")
	cfg, err := svc.UpdateConfig(context.Background(), &domain.PricingConfigPatch{
		Forward: &domain.CourierRatesPatch{BaseRatePerPiece: &newRate},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Version)
	assert.Equal(t, "55.00", cfg.Forward.BaseRatePerPiece.StringFixed(2))
	// Untouched fields keep their defaults.
	assert.Equal(t, "25.00", cfg.Forward.WeightRatePerKg.StringFixed(2))
	assert.Equal(t, "40.00", cfg.Reverse.BaseRatePerPiece.StringFixed(2))
}

func TestPricingUpdateConfig_RejectsNegativeRates(t *testing.T) {
	svc, _ := setupPricingService()

	negative := dec("-5")
	_, err := svc.UpdateConfig(context.Background(), &domain.PricingConfigPatch{
		Forward: &domain.CourierRatesPatch{BaseRatePerPiece: &negative},
	})
	assertAppError(t, err, "CFG_001")
}

func TestPricingUpdateConfig_RejectsMultiplierBelowOne(t *testing.T) {
	svc, _ := setupPricingService()

	half := dec("0.5")
	_, err := svc.UpdateConfig(context.Background(), &domain.PricingConfigPatch{
		Reverse: &domain.CourierRatesPatch{ExpressMultiplier: &half},
	})
	assertAppError(t, err, "CFG_001")
}

func TestSetBrandOverride_Validation(t *testing.T) {
	svc, _ := setupPricingService()

	err := svc.SetBrandOverride(context.Background(), uuid.Nil, dec("10"), true)
	assertAppError(t, err, "PRC_001")

	err = svc.SetBrandOverride(context.Background(), uuid.New(), dec("-10"), true)
	assertAppError(t, err, "CFG_001")
}
