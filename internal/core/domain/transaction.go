package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a wallet movement.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "CREDIT"
	TransactionTypeDebit  TransactionType = "DEBIT"
)

// TransactionStatus is the terminal outcome of a wallet movement. There is
// no pending state; a transaction either committed or it was never recorded.
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// WalletTransaction is an immutable ledger entry. Corrections happen via a
// compensating refund credit, never by mutating an existing row.
type WalletTransaction struct {
	ID            uuid.UUID         `json:"id"`
	WalletID      uuid.UUID         `json:"wallet_id"`
	OwnerID       uuid.UUID         `json:"owner_id"`
	Type          TransactionType   `json:"type"`
	Amount        decimal.Decimal   `json:"amount"`
	Description   string            `json:"description"`
	Reference     string            `json:"reference"`
	BalanceAfter  decimal.Decimal   `json:"balance_after"`
	Status        TransactionStatus `json:"status"`
	AdminOverride bool              `json:"admin_override,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// RefundReference derives the reference under which a compensating refund
// credit is recorded for an original debit reference.
func RefundReference(originalReference string) string {
	return "REFUND-" + originalReference
}

// LedgerOp names a ledger operation for idempotency key construction.
type LedgerOp string

const (
	LedgerOpDebit  LedgerOp = "debit"
	LedgerOpCredit LedgerOp = "credit"
	LedgerOpRefund LedgerOp = "refund"
)

// BuildLedgerIdempotencyKey builds the correlation key under which a ledger
// operation's outcome is recorded. Retries with the same key must resolve
// against the recorded outcome, never re-execute blindly.
func BuildLedgerIdempotencyKey(ownerID uuid.UUID, op LedgerOp, reference string) string {
	return fmt.Sprintf("%s:%s:%s", ownerID.String(), op, reference)
}

// IdempotencyLog is the durable record of a completed ledger operation,
// written in the same database transaction as the wallet mutation.
type IdempotencyLog struct {
	Key           string    `json:"key"`
	TransactionID uuid.UUID `json:"transaction_id"`
	ResponseJSON  []byte    `json:"response_json"`
	CreatedAt     time.Time `json:"created_at"`
}

// ValidAmount reports whether an amount is acceptable for a ledger movement.
func ValidAmount(amount decimal.Decimal) bool {
	return amount.GreaterThan(decimal.Zero)
}
