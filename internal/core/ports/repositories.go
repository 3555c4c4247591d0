package ports

import (
	"context"
	"time"

	"spareparts-billing/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx are used inside transaction blocks for
// pessimistic locking; every balance mutation goes through them.
type WalletRepository interface {
	Create(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
	GetByOwnerIDForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error)
	UpdateBalances(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance, totalCredited, totalDebited decimal.Decimal, lastRechargeAt *time.Time) error
}

// TransactionRepository defines persistence operations for the append-only
// ledger. Rows are inserted exactly once and never updated or deleted.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, txn *domain.WalletTransaction) error
	GetByReference(ctx context.Context, ownerID uuid.UUID, reference string, txnType domain.TransactionType) (*domain.WalletTransaction, error)
	List(ctx context.Context, params TransactionListParams) ([]domain.WalletTransaction, int64, error)
	Summary(ctx context.Context, ownerID uuid.UUID, periodStart *time.Time) (*TransactionSummary, error)
}

// TransactionListParams holds filter + pagination for ledger queries.
type TransactionListParams struct {
	OwnerID   uuid.UUID
	Type      *domain.TransactionType
	Status    *domain.TransactionStatus
	Reference *string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

// TransactionSummary holds aggregates over one wallet's ledger history.
type TransactionSummary struct {
	TotalTransactions int64
	Credits           int64
	Debits            int64
	TotalCredited     decimal.Decimal
	TotalDebited      decimal.Decimal
}

// PricingConfigRepository persists the singleton rate table and per-brand
// overrides. Readers receive the raw patch; merging onto defaults happens
// in the pricing service.
type PricingConfigRepository interface {
	GetConfig(ctx context.Context) (*domain.PricingConfigPatch, int, error)
	UpsertConfig(ctx context.Context, patch *domain.PricingConfigPatch) (int, error)
	GetBrandOverride(ctx context.Context, brandID uuid.UUID) (*domain.BrandRateOverride, error)
	UpsertBrandOverride(ctx context.Context, override *domain.BrandRateOverride) error
}

// IdempotencyRepository defines persistence for ledger idempotency logs.
// Create runs inside the same transaction as the wallet mutation so that
// the recorded outcome and the mutation commit or roll back together.
type IdempotencyRepository interface {
	Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error
	Get(ctx context.Context, key string) (*domain.IdempotencyLog, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
