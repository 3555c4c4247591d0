package ports

import (
	"context"
	"time"

	"spareparts-billing/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricingService computes shipment cost breakdowns and manages the rate
// configuration they are computed from.
type PricingService interface {
	Calculate(ctx context.Context, req domain.PricingRequest) (*domain.CostBreakdown, error)
	GetConfig(ctx context.Context) (*domain.PricingConfig, error)
	UpdateConfig(ctx context.Context, patch *domain.PricingConfigPatch) (*domain.PricingConfig, error)
	SetBrandOverride(ctx context.Context, brandID uuid.UUID, rate decimal.Decimal, active bool) error
}

// ResponsibilityResolver maps shipment direction and return reason to the
// party whose wallet is debited for the courier cost.
type ResponsibilityResolver interface {
	ResolvePayer(direction domain.CourierDirection, reason *domain.ReturnReason) (domain.PartyRole, error)
}

// DebitRequest holds validated input for a wallet debit.
type DebitRequest struct {
	OwnerID       uuid.UUID
	OwnerRole     domain.PartyRole
	Amount        decimal.Decimal
	Description   string
	Reference     string
	AdminOverride bool
}

// CreditRequest holds validated input for a wallet credit.
type CreditRequest struct {
	OwnerID     uuid.UUID
	OwnerRole   domain.PartyRole
	Amount      decimal.Decimal
	Description string
	Reference   string
}

// RefundRequest holds validated input for a compensating refund credit.
type RefundRequest struct {
	OwnerID           uuid.UUID
	Amount            decimal.Decimal
	Reason            string
	OriginalReference string
}

// LedgerResult is the outcome of a successful ledger mutation.
type LedgerResult struct {
	Transaction *domain.WalletTransaction
	NewBalance  decimal.Decimal
}

// LedgerService is the wallet mutation engine. Every operation is atomic
// and idempotent per reference: either the balance change and its ledger
// row both commit, or neither exists.
type LedgerService interface {
	Debit(ctx context.Context, req DebitRequest) (*LedgerResult, error)
	Credit(ctx context.Context, req CreditRequest) (*LedgerResult, error)
	Refund(ctx context.Context, req RefundRequest) (*LedgerResult, error)
	CheckBalance(ctx context.Context, ownerID uuid.UUID, required decimal.Decimal) (*domain.BalanceCheck, error)
	GetWallet(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
}

// TransactionQueryService is the read side of the ledger for reporting.
type TransactionQueryService interface {
	List(ctx context.Context, params TransactionListParams) ([]domain.WalletTransaction, int64, error)
	Summary(ctx context.Context, ownerID uuid.UUID, period string) (*TransactionSummary, error)
}

// InventorySource is the inventory-of-record collaborator the cache
// repopulates from on miss or expiry.
type InventorySource interface {
	FetchGlobalInventory(ctx context.Context, partID string) (*domain.GlobalInventoryView, error)
}

// InventoryCache serves TTL-bounded inventory views. On source failure a
// stale cached value is returned rather than an error; callers must treat
// the view as eventually consistent.
type InventoryCache interface {
	Get(ctx context.Context, partID string) (*domain.GlobalInventoryView, error)
	Invalidate(ctx context.Context, partID string) error
}

// IdempotencyCache is the fast-path idempotency check in front of the
// durable idempotency log. Misses and cache failures fall through to the
// database; the cache is never authoritative.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // nil means no cached outcome
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// EventPublisher publishes typed events to the broadcast bus. Publishing
// happens after commit and is best-effort.
type EventPublisher interface {
	PublishBalanceChanged(ctx context.Context, event domain.BalanceChangedEvent) error
	PublishInventoryEvent(ctx context.Context, event domain.InventoryEvent) error
}

// EventSubscriber delivers broadcast inventory events to a handler.
type EventSubscriber interface {
	SubscribeInventoryEvents(ctx context.Context, handler func(domain.InventoryEvent)) error
}
