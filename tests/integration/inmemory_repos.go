package integration

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

// --- In-Memory Transactor ---

// memTx emulates a database transaction just far enough for the ledger
// service: row locks acquired through GetByOwnerIDForUpdate are held
// until Commit or Rollback. Writes are applied directly, so these repos
// model lock serialization, not rollback of partial writes.
type memTx struct {
	pgx.Tx
	mu       sync.Mutex
	finished bool
	releases []func()
}

func (t *memTx) hold(release func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.releases = append(t.releases, release)
}

func (t *memTx) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return
	}
	t.finished = true
	for i := len(t.releases) - 1; i >= 0; i-- {
		t.releases[i]()
	}
	t.releases = nil
}

func (t *memTx) Commit(_ context.Context) error   { t.finish(); return nil }
func (t *memTx) Rollback(_ context.Context) error { t.finish(); return nil }

type inMemoryTransactor struct{}

func (inMemoryTransactor) Begin(_ context.Context) (pgx.Tx, error) {
	return &memTx{}, nil
}

// --- In-Memory Wallet Repo ---

// inMemoryWalletRepo emulates the wallets table including the pessimistic
// row lock taken by SELECT ... FOR UPDATE. A second locker for the same
// owner blocks until the first transaction finishes, which is what makes
// the double-spend test deterministic.
type inMemoryWalletRepo struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]*domain.Wallet // keyed by owner id
	locks   map[uuid.UUID]*sync.Mutex
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{
		wallets: make(map[uuid.UUID]*domain.Wallet),
		locks:   make(map[uuid.UUID]*sync.Mutex),
	}
}

func (r *inMemoryWalletRepo) ownerLock(ownerID uuid.UUID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[ownerID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[ownerID] = l
	}
	return l
}

func (r *inMemoryWalletRepo) Create(_ context.Context, _ pgx.Tx, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.wallets[w.OwnerID]; exists {
		return errors.New("wallet already exists for owner")
	}
	cp := *w
	r.wallets[w.OwnerID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) GetByOwnerID(_ context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[ownerID]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) GetByOwnerIDForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error) {
	l := r.ownerLock(ownerID)
	l.Lock()
	if mt, ok := tx.(*memTx); ok {
		mt.hold(l.Unlock)
	} else {
		l.Unlock()
	}
	return r.GetByOwnerID(ctx, ownerID)
}

func (r *inMemoryWalletRepo) UpdateBalances(_ context.Context, _ pgx.Tx, walletID uuid.UUID, balance, totalCredited, totalDebited decimal.Decimal, lastRechargeAt *time.Time) error {
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

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu   sync.Mutex
	txns []domain.WalletTransaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{}
}

func (r *inMemoryTransactionRepo) Create(_ context.Context, _ pgx.Tx, t *domain.WalletTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txns = append(r.txns, *t)
	return nil
}

func (r *inMemoryTransactionRepo) GetByReference(_ context.Context, ownerID uuid.UUID, reference string, txnType domain.TransactionType) (*domain.WalletTransaction, error) {
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

func (r *inMemoryTransactionRepo) List(_ context.Context, params ports.TransactionListParams) ([]domain.WalletTransaction, int64, error) {
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
		if params.From != nil && t.CreatedAt.Before(*params.From) {
			continue
		}
		if params.To != nil && t.CreatedAt.After(*params.To) {
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

func (r *inMemoryTransactionRepo) Summary(_ context.Context, ownerID uuid.UUID, periodStart *time.Time) (*ports.TransactionSummary, error) {
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

// --- In-Memory Idempotency Repo ---

type inMemoryIdempotencyRepo struct {
	mu   sync.Mutex
	logs map[string]*domain.IdempotencyLog
}

func newInMemoryIdempotencyRepo() *inMemoryIdempotencyRepo {
	return &inMemoryIdempotencyRepo{logs: make(map[string]*domain.IdempotencyLog)}
}

func (r *inMemoryIdempotencyRepo) Create(_ context.Context, _ pgx.Tx, log *domain.IdempotencyLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.logs[log.Key]; exists {
		return errors.New("duplicate idempotency key")
	}
	r.logs[log.Key] = log
	return nil
}

func (r *inMemoryIdempotencyRepo) Get(_ context.Context, key string) (*domain.IdempotencyLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logs[key], nil
}

// --- In-Memory Pricing Config Repo ---

type inMemoryConfigRepo struct {
	mu        sync.Mutex
	patch     *domain.PricingConfigPatch
	version   int
	overrides map[uuid.UUID]*domain.BrandRateOverride
}

func newInMemoryConfigRepo() *inMemoryConfigRepo {
	return &inMemoryConfigRepo{
		patch:     &domain.PricingConfigPatch{},
		version:   1,
		overrides: make(map[uuid.UUID]*domain.BrandRateOverride),
	}
}

func (r *inMemoryConfigRepo) GetConfig(_ context.Context) (*domain.PricingConfigPatch, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.patch, r.version, nil
}

func (r *inMemoryConfigRepo) UpsertConfig(_ context.Context, patch *domain.PricingConfigPatch) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patch = patch
	r.version++
	return r.version, nil
}

func (r *inMemoryConfigRepo) GetBrandOverride(_ context.Context, brandID uuid.UUID) (*domain.BrandRateOverride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overrides[brandID], nil
}

func (r *inMemoryConfigRepo) UpsertBrandOverride(_ context.Context, o *domain.BrandRateOverride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[o.BrandID] = o
	return nil
}
