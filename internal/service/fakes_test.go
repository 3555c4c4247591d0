package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"spareparts-billing/internal/core/domain"
	"spareparts-billing/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// fakeTx is a no-op pgx.Tx. Methods not overridden panic if called, which
// is what we want in unit tests.
type fakeTx struct{ pgx.Tx }

func (t *fakeTx) Commit(_ context.Context) error   { return nil }
func (t *fakeTx) Rollback(_ context.Context) error { return nil }

type fakeTransactor struct{}

func (fakeTransactor) Begin(_ context.Context) (pgx.Tx, error) { return &fakeTx{}, nil }

type fakeWalletRepo struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]*domain.Wallet // keyed by owner id
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *fakeWalletRepo) put(w *domain.Wallet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	r.wallets[w.OwnerID] = &cp
}

func (r *fakeWalletRepo) Create(_ context.Context, _ pgx.Tx, w *domain.Wallet) error {
	r.put(w)
	return nil
}

func (r *fakeWalletRepo) GetByOwnerID(_ context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[ownerID]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *fakeWalletRepo) GetByOwnerIDForUpdate(ctx context.Context, _ pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error) {
	return r.GetByOwnerID(ctx, ownerID)
}

func (r *fakeWalletRepo) UpdateBalances(_ context.Context, _ pgx.Tx, walletID uuid.UUID, balance, totalCredited, totalDebited decimal.Decimal, lastRechargeAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.wallets {
		if w.ID == walletID {
			w.Balance = balance
			w.TotalCredited = totalCredited
			w.TotalDebited = totalDebited
			if lastRechargeAt != nil {
				w.LastRechargeAt = lastRechargeAt
			}
			w.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return errors.New("wallet not found")
}

type fakeTransactionRepo struct {
	mu   sync.Mutex
	txns []domain.WalletTransaction
}

func newFakeTransactionRepo() *fakeTransactionRepo { return &fakeTransactionRepo{} }

func (r *fakeTransactionRepo) Create(_ context.Context, _ pgx.Tx, t *domain.WalletTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txns = append(r.txns, *t)
	return nil
}

func (r *fakeTransactionRepo) GetByReference(_ context.Context, ownerID uuid.UUID, reference string, txnType domain.TransactionType) (*domain.WalletTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.txns) - 1; i >= 0; i-- {
		t := r.txns[i]
		if t.OwnerID == ownerID && t.Reference == reference && t.Type == txnType {
			return &t, nil
		}
	}
	return nil, nil
}

func (r *fakeTransactionRepo) List(_ context.Context, params ports.TransactionListParams) ([]domain.WalletTransaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []domain.WalletTransaction
	for _, t := range r.txns {
		if t.OwnerID != params.OwnerID {
			continue
		}
		if params.Type != nil && t.Type != *params.Type {
			continue
		}
		if params.Status != nil && t.Status != *params.Status {
			continue
		}
		if params.Reference != nil && t.Reference != *params.Reference {
			continue
		}
		matched = append(matched, t)
	}
	total := int64(len(matched))
	start := (params.Page - 1) * params.PageSize
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + params.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakeTransactionRepo) Summary(_ context.Context, ownerID uuid.UUID, periodStart *time.Time) (*ports.TransactionSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &ports.TransactionSummary{
		TotalCredited: decimal.Zero,
		TotalDebited:  decimal.Zero,
	}
	for _, t := range r.txns {
		if t.OwnerID != ownerID {
			continue
		}
		if periodStart != nil && t.CreatedAt.Before(*periodStart) {
			continue
		}
		s.TotalTransactions++
		switch t.Type {
		case domain.TransactionTypeCredit:
			s.Credits++
			s.TotalCredited = s.TotalCredited.Add(t.Amount)
		case domain.TransactionTypeDebit:
			s.Debits++
			s.TotalDebited = s.TotalDebited.Add(t.Amount)
		}
	}
	return s, nil
}

type fakeIdempotencyRepo struct {
	mu   sync.Mutex
	logs map[string]*domain.IdempotencyLog
}

func newFakeIdempotencyRepo() *fakeIdempotencyRepo {
	return &fakeIdempotencyRepo{logs: make(map[string]*domain.IdempotencyLog)}
}

func (r *fakeIdempotencyRepo) Create(_ context.Context, _ pgx.Tx, log *domain.IdempotencyLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.logs[log.Key]; exists {
		return errors.New("duplicate idempotency key")
	}
	r.logs[log.Key] = log
	return nil
}

func (r *fakeIdempotencyRepo) Get(_ context.Context, key string) (*domain.IdempotencyLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logs[key], nil
}

type fakeIdempotencyCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
}

func newFakeIdempotencyCache() *fakeIdempotencyCache {
	return &fakeIdempotencyCache{entries: make(map[string][]byte)}
}

func (c *fakeIdempotencyCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.entries[key], nil
}

func (c *fakeIdempotencyCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

type fakePublisher struct {
	mu             sync.Mutex
	balanceEvents  []domain.BalanceChangedEvent
	inventoryEvent []domain.InventoryEvent
}

func (p *fakePublisher) PublishBalanceChanged(_ context.Context, e domain.BalanceChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balanceEvents = append(p.balanceEvents, e)
	return nil
}

func (p *fakePublisher) PublishInventoryEvent(_ context.Context, e domain.InventoryEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inventoryEvent = append(p.inventoryEvent, e)
	return nil
}

type fakeConfigRepo struct {
	mu        sync.Mutex
	patch     *domain.PricingConfigPatch
	version   int
	getErr    error
	overrides map[uuid.UUID]*domain.BrandRateOverride
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{overrides: make(map[uuid.UUID]*domain.BrandRateOverride)}
}

func (r *fakeConfigRepo) GetConfig(_ context.Context) (*domain.PricingConfigPatch, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, 0, r.getErr
	}
	return r.patch, r.version, nil
}

func (r *fakeConfigRepo) UpsertConfig(_ context.Context, patch *domain.PricingConfigPatch) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patch = patch
	r.version++
	return r.version, nil
}

func (r *fakeConfigRepo) GetBrandOverride(_ context.Context, brandID uuid.UUID) (*domain.BrandRateOverride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overrides[brandID], nil
}

func (r *fakeConfigRepo) UpsertBrandOverride(_ context.Context, o *domain.BrandRateOverride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[o.BrandID] = o
	return nil
}
