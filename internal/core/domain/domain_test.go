package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPricingConfig(t *testing.T) {
	cfg := DefaultPricingConfig()

	assert.Equal(t, "50", cfg.Forward.BaseRatePerPiece.String())
	assert.Equal(t, "75", cfg.Forward.MinimumCharge.String())
	assert.Equal(t, "1.5", cfg.Forward.ExpressMultiplier.String())
	assert.Equal(t, "40", cfg.Reverse.BaseRatePerPiece.String())
	assert.Equal(t, "50", cfg.Reverse.MinimumCharge.String())
	assert.True(t, cfg.ReturnReasons.Defective.IsZero())
	assert.Equal(t, "60", cfg.ReturnReasons.CustomerReturn.String())
	assert.Equal(t, []string{"19", "79", "85"}, cfg.RemotePincodePrefixes)
}

func TestMergePricingConfig_PartialPatch(t *testing.T) {
	rate := decimal.RequireFromString("65")
	excess := decimal.RequireFromString("55")
	cfg := MergePricingConfig(&PricingConfigPatch{
		Forward:       &CourierRatesPatch{BaseRatePerPiece: &rate},
		ReturnReasons: &ReturnReasonRatesPatch{ExcessStock: &excess},
	}, 7)

	assert.Equal(t, 7, cfg.Version)
	assert.Equal(t, "65", cfg.Forward.BaseRatePerPiece.String())
	// Unpatched fields keep their defaults.
	assert.Equal(t, "25", cfg.Forward.WeightRatePerKg.String())
	assert.Equal(t, "40", cfg.Reverse.BaseRatePerPiece.String())
	assert.Equal(t, "55", cfg.ReturnReasons.ExcessStock.String())
	assert.Equal(t, "60", cfg.ReturnReasons.CustomerReturn.String())
}

func TestMergePricingConfig_NilPatch(t *testing.T) {
	cfg := MergePricingConfig(nil, 0)
	assert.Equal(t, DefaultPricingConfig(), cfg)
}

func TestReasonRate(t *testing.T) {
	cfg := DefaultPricingConfig()

	rate, ok := cfg.ReasonRate(ReturnReasonExcessStock)
	require.True(t, ok)
	assert.Equal(t, "45", rate.String())

	_, ok = cfg.ReasonRate(ReturnReason("UNKNOWN"))
	assert.False(t, ok)
}

func TestParseReturnReason(t *testing.T) {
	reason, err := ParseReturnReason("WRONG_PART")
	require.NoError(t, err)
	assert.Equal(t, ReturnReasonWrongPart, reason)

	_, err = ParseReturnReason("wrong_part")
	assert.Error(t, err)
}

func TestRefundReference(t *testing.T) {
	assert.Equal(t, "REFUND-SHP-1001", RefundReference("SHP-1001"))
}

func TestBuildLedgerIdempotencyKey(t *testing.T) {
	ownerID := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	key := BuildLedgerIdempotencyKey(ownerID, LedgerOpDebit, "SHP-1001")
	assert.Equal(t, "11111111-2222-3333-4444-555555555555:debit:SHP-1001", key)
}

func TestValidAmount(t *testing.T) {
	assert.True(t, ValidAmount(decimal.RequireFromString("0.01")))
	assert.False(t, ValidAmount(decimal.Zero))
	assert.False(t, ValidAmount(decimal.RequireFromString("-1")))
}

func TestWalletConsistent(t *testing.T) {
	w := NewWallet(uuid.New(), PartyRoleBrand)
	assert.True(t, w.Consistent())

	w.TotalCredited = decimal.RequireFromString("100")
	w.TotalDebited = decimal.RequireFromString("40")
	w.Balance = decimal.RequireFromString("60")
	assert.True(t, w.Consistent())

	w.Balance = decimal.RequireFromString("59")
	assert.False(t, w.Consistent())
}
