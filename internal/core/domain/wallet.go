package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet is the prepaid balance owned 1:1 by a party. The ledger row is the
// source of truth for financial decisions; Balance must always equal
// TotalCredited - TotalDebited.
type Wallet struct {
	ID             uuid.UUID       `json:"id"`
	OwnerID        uuid.UUID       `json:"owner_id"`
	OwnerRole      PartyRole       `json:"owner_role"`
	Balance        decimal.Decimal `json:"balance"`
	TotalCredited  decimal.Decimal `json:"total_credited"`
	TotalDebited   decimal.Decimal `json:"total_debited"`
	LastRechargeAt *time.Time      `json:"last_recharge_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewWallet creates a zero-balance wallet for a party.
func NewWallet(ownerID uuid.UUID, role PartyRole) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		OwnerRole:     role,
		Balance:       decimal.Zero,
		TotalCredited: decimal.Zero,
		TotalDebited:  decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Consistent reports whether the running totals agree with the balance.
func (w *Wallet) Consistent() bool {
	return w.Balance.Equal(w.TotalCredited.Sub(w.TotalDebited))
}

// BalanceCheck is the result of a pre-debit sufficiency probe.
type BalanceCheck struct {
	Sufficient     bool            `json:"sufficient"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	Shortfall      decimal.Decimal `json:"shortfall"`
}
