package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spareparts-billing/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepo implements ports.WalletRepository. Monetary columns are
// NUMERIC; they are selected as text and parsed into decimal.Decimal so no
// float ever touches a balance.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

const walletColumns = `id, owner_id, owner_role, balance::text, total_credited::text, total_debited::text, last_recharge_at, created_at, updated_at`

// Create inserts a new wallet inside the caller's transaction.
func (r *WalletRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, owner_id, owner_role, balance, total_credited, total_debited, last_recharge_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		w.ID, w.OwnerID, string(w.OwnerRole),
		w.Balance.String(), w.TotalCredited.String(), w.TotalDebited.String(),
		w.LastRechargeAt, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByOwnerID fetches a wallet by its owning party (non-locking read).
func (r *WalletRepo) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE owner_id = $1`

	w, err := scanWallet(r.pool.QueryRow(ctx, query, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet by owner id: %w", err)
	}
	return w, nil
}

// GetByOwnerIDForUpdate fetches a wallet with pessimistic locking.
// This MUST be called within a transaction; the row stays locked until
// the transaction commits or rolls back.
func (r *WalletRepo) GetByOwnerIDForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE owner_id = $1 FOR UPDATE`

	w, err := scanWallet(tx.QueryRow(ctx, query, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet for update: %w", err)
	}
	return w, nil
}

// UpdateBalances writes the new balance and running totals within a
// transaction. A nil lastRechargeAt keeps the stored value.
func (r *WalletRepo) UpdateBalances(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance, totalCredited, totalDebited decimal.Decimal, lastRechargeAt *time.Time) error {
	query := `UPDATE wallets
		SET balance = $1, total_credited = $2, total_debited = $3,
		    last_recharge_at = COALESCE($4, last_recharge_at), updated_at = NOW()
		WHERE id = $5`

	tag, err := tx.Exec(ctx, query,
		balance.String(), totalCredited.String(), totalDebited.String(),
		lastRechargeAt, walletID,
	)
	if err != nil {
		return fmt.Errorf("update wallet balances: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	return nil
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	var role, balance, credited, debited string
	if err := row.Scan(
		&w.ID, &w.OwnerID, &role, &balance, &credited, &debited,
		&w.LastRechargeAt, &w.CreatedAt, &w.UpdatedAt,
	); err != nil {
		return nil, err
	}
	w.OwnerRole = domain.PartyRole(role)

	var err error
	if w.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("parse balance: %w", err)
	}
	if w.TotalCredited, err = decimal.NewFromString(credited); err != nil {
		return nil, fmt.Errorf("parse total_credited: %w", err)
	}
	if w.TotalDebited, err = decimal.NewFromString(debited); err != nil {
		return nil, fmt.Errorf("parse total_debited: %w", err)
	}
	return w, nil
}
