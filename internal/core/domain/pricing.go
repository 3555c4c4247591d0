package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricingConfigKey is the key of the singleton persisted rate table.
const PricingConfigKey = "unified_pricing"

// CourierRates holds the rate constants for one courier direction.
type CourierRates struct {
	BaseRatePerPiece       decimal.Decimal `json:"base_rate_per_piece"`
	WeightRatePerKg        decimal.Decimal `json:"weight_rate_per_kg"`
	FreeWeightPerPieceKg   decimal.Decimal `json:"free_weight_per_piece_kg"`
	ExpressMultiplier      decimal.Decimal `json:"express_multiplier"`
	MarkupPercent          decimal.Decimal `json:"markup_percent"`
	MinimumCharge          decimal.Decimal `json:"minimum_charge"`
	RemoteAreaRatePerPiece decimal.Decimal `json:"remote_area_rate_per_piece"`
}

// ReturnReasonRates holds the reverse base rate per piece selected by return
// reason. Defective and wrong-part are goodwill rates the brand absorbs and
// default to zero; excess-stock and customer-return are fully assessed.
type ReturnReasonRates struct {
	Defective      decimal.Decimal `json:"defective"`
	WrongPart      decimal.Decimal `json:"wrong_part"`
	ExcessStock    decimal.Decimal `json:"excess_stock"`
	CustomerReturn decimal.Decimal `json:"customer_return"`
}

// PricingConfig is the fully-resolved rate table the calculator runs on.
// It is always the product of merging a persisted patch over hard defaults,
// so every field is populated.
type PricingConfig struct {
	Version               int               `json:"version"`
	Forward               CourierRates      `json:"forward"`
	Reverse               CourierRates      `json:"reverse"`
	ReturnReasons         ReturnReasonRates `json:"return_reasons"`
	RemotePincodePrefixes []string          `json:"remote_pincode_prefixes"`
}

// CourierRatesPatch is the persisted / update form of CourierRates. Nil
// fields mean "keep the default", so partial and legacy records stay valid.
type CourierRatesPatch struct {
	BaseRatePerPiece       *decimal.Decimal `json:"base_rate_per_piece,omitempty"`
	WeightRatePerKg        *decimal.Decimal `json:"weight_rate_per_kg,omitempty"`
	FreeWeightPerPieceKg   *decimal.Decimal `json:"free_weight_per_piece_kg,omitempty"`
	ExpressMultiplier      *decimal.Decimal `json:"express_multiplier,omitempty"`
	MarkupPercent          *decimal.Decimal `json:"markup_percent,omitempty"`
	MinimumCharge          *decimal.Decimal `json:"minimum_charge,omitempty"`
	RemoteAreaRatePerPiece *decimal.Decimal `json:"remote_area_rate_per_piece,omitempty"`
}

// ReturnReasonRatesPatch is the persisted / update form of ReturnReasonRates.
type ReturnReasonRatesPatch struct {
	Defective      *decimal.Decimal `json:"defective,omitempty"`
	WrongPart      *decimal.Decimal `json:"wrong_part,omitempty"`
	ExcessStock    *decimal.Decimal `json:"excess_stock,omitempty"`
	CustomerReturn *decimal.Decimal `json:"customer_return,omitempty"`
}

// PricingConfigPatch is the JSON payload stored for the unified pricing
// record and accepted by the config update operation.
type PricingConfigPatch struct {
	Forward               *CourierRatesPatch      `json:"forward,omitempty"`
	Reverse               *CourierRatesPatch      `json:"reverse,omitempty"`
	ReturnReasons         *ReturnReasonRatesPatch `json:"return_reasons,omitempty"`
	RemotePincodePrefixes []string                `json:"remote_pincode_prefixes,omitempty"`
}

// DefaultPricingConfig returns the hard-coded rate table used when no
// persisted record exists and as the base every persisted patch merges onto.
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		Version: 0,
		Forward: CourierRates{
			BaseRatePerPiece:       decimal.NewFromInt(50),
			WeightRatePerKg:        decimal.NewFromInt(25),
			FreeWeightPerPieceKg:   decimal.RequireFromString("0.5"),
			ExpressMultiplier:      decimal.RequireFromString("1.5"),
			MarkupPercent:          decimal.NewFromInt(15),
			MinimumCharge:          decimal.NewFromInt(75),
			RemoteAreaRatePerPiece: decimal.NewFromInt(30),
		},
		Reverse: CourierRates{
			BaseRatePerPiece:       decimal.NewFromInt(40),
			WeightRatePerKg:        decimal.NewFromInt(20),
			FreeWeightPerPieceKg:   decimal.RequireFromString("0.5"),
			ExpressMultiplier:      decimal.RequireFromString("1.25"),
			MarkupPercent:          decimal.NewFromInt(10),
			MinimumCharge:          decimal.NewFromInt(50),
			RemoteAreaRatePerPiece: decimal.NewFromInt(30),
		},
		ReturnReasons: ReturnReasonRates{
			Defective:      decimal.Zero,
			WrongPart:      decimal.Zero,
			ExcessStock:    decimal.NewFromInt(45),
			CustomerReturn: decimal.NewFromInt(60),
		},
		RemotePincodePrefixes: []string{"19", "79", "85"},
	}
}

// MergePricingConfig applies a persisted patch over the hard defaults.
// A nil patch yields the defaults unchanged.
func MergePricingConfig(patch *PricingConfigPatch, version int) PricingConfig {
	cfg := DefaultPricingConfig()
	cfg.Version = version
	if patch == nil {
		return cfg
	}
	mergeRates(&cfg.Forward, patch.Forward)
	mergeRates(&cfg.Reverse, patch.Reverse)
	if rr := patch.ReturnReasons; rr != nil {
		if rr.Defective != nil {
			cfg.ReturnReasons.Defective = *rr.Defective
		}
		if rr.WrongPart != nil {
			cfg.ReturnReasons.WrongPart = *rr.WrongPart
		}
		if rr.ExcessStock != nil {
			cfg.ReturnReasons.ExcessStock = *rr.ExcessStock
		}
		if rr.CustomerReturn != nil {
			cfg.ReturnReasons.CustomerReturn = *rr.CustomerReturn
		}
	}
	if patch.RemotePincodePrefixes != nil {
		cfg.RemotePincodePrefixes = patch.RemotePincodePrefixes
	}
	return cfg
}

func mergeRates(dst *CourierRates, p *CourierRatesPatch) {
	if p == nil {
		return
	}
	if p.BaseRatePerPiece != nil {
		dst.BaseRatePerPiece = *p.BaseRatePerPiece
	}
	if p.WeightRatePerKg != nil {
		dst.WeightRatePerKg = *p.WeightRatePerKg
	}
	if p.FreeWeightPerPieceKg != nil {
		dst.FreeWeightPerPieceKg = *p.FreeWeightPerPieceKg
	}
	if p.ExpressMultiplier != nil {
		dst.ExpressMultiplier = *p.ExpressMultiplier
	}
	if p.MarkupPercent != nil {
		dst.MarkupPercent = *p.MarkupPercent
	}
	if p.MinimumCharge != nil {
		dst.MinimumCharge = *p.MinimumCharge
	}
	if p.RemoteAreaRatePerPiece != nil {
		dst.RemoteAreaRatePerPiece = *p.RemoteAreaRatePerPiece
	}
}

// ReasonRate returns the reverse base rate per piece for a return reason.
func (c PricingConfig) ReasonRate(reason ReturnReason) (decimal.Decimal, bool) {
	switch reason {
	case ReturnReasonDefective:
		return c.ReturnReasons.Defective, true
	case ReturnReasonWrongPart:
		return c.ReturnReasons.WrongPart, true
	case ReturnReasonExcessStock:
		return c.ReturnReasons.ExcessStock, true
	case ReturnReasonCustomerReturn:
		return c.ReturnReasons.CustomerReturn, true
	}
	return decimal.Zero, false
}

// BrandRateOverride replaces the forward base rate for one brand while
// active. Absence or inactivity falls back to the config default.
type BrandRateOverride struct {
	BrandID      uuid.UUID       `json:"brand_id"`
	RatePerPiece decimal.Decimal `json:"rate_per_piece"`
	IsActive     bool            `json:"is_active"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// PricingRequest is the validated input to the pricing calculator.
type PricingRequest struct {
	BrandID      uuid.UUID
	WeightKg     decimal.Decimal
	Pieces       int
	Pincode      string
	Service      ServiceLevel
	Direction    CourierDirection
	ReturnReason *ReturnReason
}

// CostBreakdown is the itemised result of a pricing computation. It is not
// persisted as its own entity; callers embed it in the audit trail of the
// resulting ledger transaction. AppliedRules lists every pricing decision
// in evaluation order; that ordering is consumed by dispute-resolution
// tooling and is part of the contract.
type CostBreakdown struct {
	BaseRate            decimal.Decimal `json:"base_rate"`
	WeightCharges       decimal.Decimal `json:"weight_charges"`
	ServiceCharges      decimal.Decimal `json:"service_charges"`
	RemoteAreaSurcharge decimal.Decimal `json:"remote_area_surcharge"`
	PlatformMarkup      decimal.Decimal `json:"platform_markup"`
	FinalCost           decimal.Decimal `json:"final_cost"`
	AppliedRules        []string        `json:"applied_rules"`
	Degraded            bool            `json:"degraded,omitempty"`
}
