package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"spareparts-billing/internal/core/domain"
	"spareparts-billing/internal/core/ports"
	"spareparts-billing/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LedgerServiceImpl implements ports.LedgerService with pessimistic
// per-wallet locking. Every mutation runs as one database transaction:
// lock wallet row, apply the business check, write the new balance and the
// ledger row and the idempotency log, commit. Any failure rolls the whole
// unit back, so the balance and the transaction history can never diverge.
type LedgerServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	idempRepo  ports.IdempotencyRepository
	idempCache ports.IdempotencyCache
	publisher  ports.EventPublisher // nil = notifications disabled
	transactor ports.DBTransactor
	idempTTL   time.Duration
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	publisher ports.EventPublisher,
	transactor ports.DBTransactor,
	idempTTL time.Duration,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		idempRepo:  idempRepo,
		idempCache: idempCache,
		publisher:  publisher,
		transactor: transactor,
		idempTTL:   idempTTL,
		log:        log,
	}
}

// Debit removes funds from a party's wallet. It fails atomically with no
// row written when the balance is insufficient, unless AdminOverride is
// set, in which case the balance may go negative and the transaction is
// flagged and logged distinctly. Retries with the same reference return
// the originally recorded outcome.
func (s *LedgerServiceImpl) Debit(ctx context.Context, req ports.DebitRequest) (*ports.LedgerResult, error) {
	if !domain.ValidAmount(req.Amount) {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.Reference == "" {
		return nil, apperror.Validation("reference is required")
	}

	idempKey := domain.BuildLedgerIdempotencyKey(req.OwnerID, domain.LedgerOpDebit, req.Reference)
	if prior, err := s.priorOutcome(ctx, idempKey); err != nil {
		return nil, err
	} else if prior != nil {
		return prior, nil
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByOwnerIDForUpdate(ctx, dbTx, req.OwnerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	if wallet.Balance.LessThan(req.Amount) && !req.AdminOverride {
		return nil, apperror.ErrInsufficientBalance(wallet.Balance, req.Amount.Sub(wallet.Balance))
	}

	newBalance := wallet.Balance.Sub(req.Amount)
	newTotalDebited := wallet.TotalDebited.Add(req.Amount)

	now := time.Now().UTC()
	txn := &domain.WalletTransaction{
		ID:            uuid.New(),
		WalletID:      wallet.ID,
		OwnerID:       req.OwnerID,
		Type:          domain.TransactionTypeDebit,
		Amount:        req.Amount,
		Description:   req.Description,
		Reference:     req.Reference,
		BalanceAfter:  newBalance,
		Status:        domain.TransactionStatusCompleted,
		AdminOverride: req.AdminOverride,
		CreatedAt:     now,
	}

	if err := s.commitMutation(ctx, dbTx, wallet, txn, newBalance, wallet.TotalCredited, newTotalDebited, nil, idempKey); err != nil {
		return nil, err
	}

	if req.AdminOverride {
		s.log.Warn().
			Str("tx_id", txn.ID.String()).
			Str("owner_id", req.OwnerID.String()).
			Str("amount", req.Amount.StringFixed(2)).
			Str("balance_after", newBalance.StringFixed(2)).
			Msg("admin override debit applied")
	} else {
		s.log.Info().
			Str("tx_id", txn.ID.String()).
			Str("owner_id", req.OwnerID.String()).
			Str("amount", req.Amount.StringFixed(2)).
			Str("reference", req.Reference).
			Msg("wallet debited")
	}

	s.announce(ctx, txn)
	return &ports.LedgerResult{Transaction: txn, NewBalance: newBalance}, nil
}

// Credit adds funds to a party's wallet. Crediting never fails on business
// grounds, only on validation. A missing wallet is created inside the same
// transaction, with zero balance, before the credit is applied.
func (s *LedgerServiceImpl) Credit(ctx context.Context, req ports.CreditRequest) (*ports.LedgerResult, error) {
	if !domain.ValidAmount(req.Amount) {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.Reference == "" {
		return nil, apperror.Validation("reference is required")
	}

	idempKey := domain.BuildLedgerIdempotencyKey(req.OwnerID, domain.LedgerOpCredit, req.Reference)
	if prior, err := s.priorOutcome(ctx, idempKey); err != nil {
		return nil, err
	} else if prior != nil {
		return prior, nil
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByOwnerIDForUpdate(ctx, dbTx, req.OwnerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		if !req.OwnerRole.Valid() {
			return nil, apperror.Validation("owner_role is required to create a wallet on first credit")
		}
		wallet = domain.NewWallet(req.OwnerID, req.OwnerRole)
		if err := s.walletRepo.Create(ctx, dbTx, wallet); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
		}
		s.log.Info().
			Str("owner_id", req.OwnerID.String()).
			Str("owner_role", string(req.OwnerRole)).
			Msg("wallet auto-created on first credit")
	}

	newBalance := wallet.Balance.Add(req.Amount)
	newTotalCredited := wallet.TotalCredited.Add(req.Amount)
	now := time.Now().UTC()

	txn := &domain.WalletTransaction{
		ID:           uuid.New(),
		WalletID:     wallet.ID,
		OwnerID:      req.OwnerID,
		Type:         domain.TransactionTypeCredit,
		Amount:       req.Amount,
		Description:  req.Description,
		Reference:    req.Reference,
		BalanceAfter: newBalance,
		Status:       domain.TransactionStatusCompleted,
		CreatedAt:    now,
	}

	if err := s.commitMutation(ctx, dbTx, wallet, txn, newBalance, newTotalCredited, wallet.TotalDebited, &now, idempKey); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("owner_id", req.OwnerID.String()).
		Str("amount", req.Amount.StringFixed(2)).
		Str("reference", req.Reference).
		Msg("wallet credited")

	s.announce(ctx, txn)
	return &ports.LedgerResult{Transaction: txn, NewBalance: newBalance}, nil
}

// Refund issues a compensating credit linked to a prior debit's reference.
// A second refund for the same original reference is detected via the
// idempotency log and rejected, never applied twice.
func (s *LedgerServiceImpl) Refund(ctx context.Context, req ports.RefundRequest) (*ports.LedgerResult, error) {
	if !domain.ValidAmount(req.Amount) {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.OriginalReference == "" {
		return nil, apperror.Validation("original_reference is required")
	}

	idempKey := domain.BuildLedgerIdempotencyKey(req.OwnerID, domain.LedgerOpRefund, req.OriginalReference)
	if prior, err := s.priorOutcome(ctx, idempKey); err != nil {
		return nil, err
	} else if prior != nil {
		return nil, apperror.ErrDuplicateRefund(req.OriginalReference)
	}

	origDebit, err := s.txRepo.GetByReference(ctx, req.OwnerID, req.OriginalReference, domain.TransactionTypeDebit)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find original debit: %w", err))
	}
	if origDebit == nil {
		return nil, apperror.ErrNotFound("original debit transaction")
	}
	if req.Amount.GreaterThan(origDebit.Amount) {
		return nil, apperror.ErrRefundExceedsOriginal()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByOwnerIDForUpdate(ctx, dbTx, req.OwnerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	newBalance := wallet.Balance.Add(req.Amount)
	newTotalCredited := wallet.TotalCredited.Add(req.Amount)
	now := time.Now().UTC()

	txn := &domain.WalletTransaction{
		ID:           uuid.New(),
		WalletID:     wallet.ID,
		OwnerID:      req.OwnerID,
		Type:         domain.TransactionTypeCredit,
		Amount:       req.Amount,
		Description:  req.Reason,
		Reference:    domain.RefundReference(req.OriginalReference),
		BalanceAfter: newBalance,
		Status:       domain.TransactionStatusCompleted,
		CreatedAt:    now,
	}

	if err := s.commitMutation(ctx, dbTx, wallet, txn, newBalance, newTotalCredited, wallet.TotalDebited, nil, idempKey); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("original_reference", req.OriginalReference).
		Str("amount", req.Amount.StringFixed(2)).
		Msg("refund issued")

	s.announce(ctx, txn)
	return &ports.LedgerResult{Transaction: txn, NewBalance: newBalance}, nil
}

// CheckBalance reports whether the wallet can cover a required amount.
// It reads the wallet row directly so the answer reflects the same balance
// a concurrent debit would see; a missing wallet counts as zero balance.
func (s *LedgerServiceImpl) CheckBalance(ctx context.Context, ownerID uuid.UUID, required decimal.Decimal) (*domain.BalanceCheck, error) {
	if required.IsNegative() {
		return nil, apperror.ErrInvalidAmount()
	}

	current := decimal.Zero
	wallet, err := s.walletRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet != nil {
		current = wallet.Balance
	}

	check := &domain.BalanceCheck{
		Sufficient:     current.GreaterThanOrEqual(required),
		CurrentBalance: current,
		Shortfall:      decimal.Zero,
	}
	if !check.Sufficient {
		check.Shortfall = required.Sub(current)
	}
	return check, nil
}

// GetWallet returns a party's wallet.
func (s *LedgerServiceImpl) GetWallet(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return wallet, nil
}

// priorOutcome resolves the idempotency key against the redis fast path
// and the durable log. A non-nil result is the recorded outcome of an
// earlier attempt with the same key.
func (s *LedgerServiceImpl) priorOutcome(ctx context.Context, idempKey string) (*ports.LedgerResult, error) {
	cached, err := s.idempCache.Get(ctx, idempKey)
	if err != nil {
		s.log.Warn().Err(err).Str("key", idempKey).Msg("redis idempotency check failed, falling through to DB")
	}
	if cached == nil {
		idempLog, err := s.idempRepo.Get(ctx, idempKey)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
		}
		if idempLog == nil {
			return nil, nil
		}
		cached = idempLog.ResponseJSON
	}

	txn := &domain.WalletTransaction{}
	if err := json.Unmarshal(cached, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal recorded outcome: %w", err))
	}
	return &ports.LedgerResult{Transaction: txn, NewBalance: txn.BalanceAfter}, nil
}

// commitMutation performs the write half of a ledger operation: balance
// update, ledger row, idempotency log, commit, then the best-effort redis
// cache fill. Everything before the commit rolls back together.
func (s *LedgerServiceImpl) commitMutation(
	ctx context.Context,
	dbTx pgx.Tx,
	wallet *domain.Wallet,
	txn *domain.WalletTransaction,
	balance, totalCredited, totalDebited decimal.Decimal,
	lastRechargeAt *time.Time,
	idempKey string,
) error {
	if err := s.walletRepo.UpdateBalances(ctx, dbTx, wallet.ID, balance, totalCredited, totalDebited, lastRechargeAt); err != nil {
		return apperror.InternalError(fmt.Errorf("update balances: %w", err))
	}
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	respJSON, err := json.Marshal(txn)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("marshal outcome: %w", err))
	}
	if err := s.idempRepo.Create(ctx, dbTx, &domain.IdempotencyLog{
		Key:           idempKey,
		TransactionID: txn.ID,
		ResponseJSON:  respJSON,
		CreatedAt:     txn.CreatedAt,
	}); err != nil {
		return apperror.InternalError(fmt.Errorf("save idempotency log: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	if err := s.idempCache.Set(ctx, idempKey, respJSON, s.idempTTL); err != nil {
		s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache ledger outcome in redis")
	}
	return nil
}

// announce publishes a balance-changed event after commit. Notification
// failure never reverses the committed transaction.
func (s *LedgerServiceImpl) announce(ctx context.Context, txn *domain.WalletTransaction) {
	if s.publisher == nil {
		return
	}
	event := domain.BalanceChangedEvent{
		OwnerID:       txn.OwnerID.String(),
		TransactionID: txn.ID.String(),
		Type:          txn.Type,
		Amount:        txn.Amount.StringFixed(2),
		BalanceAfter:  txn.BalanceAfter.StringFixed(2),
		Reference:     txn.Reference,
		OccurredAt:    txn.CreatedAt,
	}
	if err := s.publisher.PublishBalanceChanged(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("tx_id", txn.ID.String()).Msg("balance change notification failed")
	}
}
