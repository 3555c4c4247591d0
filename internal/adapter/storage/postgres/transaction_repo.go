package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"spareparts-billing/internal/core/domain"
	"spareparts-billing/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// TransactionRepo implements ports.TransactionRepository. The table is
// append-only: there is no update or delete path.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

const transactionColumns = `id, wallet_id, owner_id, type, amount::text, description, reference, balance_after::text, status, admin_override, created_at`

// Create appends a ledger row inside the caller's transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, txn *domain.WalletTransaction) error {
	query := `INSERT INTO wallet_transactions
		(id, wallet_id, owner_id, type, amount, description, reference, balance_after, status, admin_override, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := tx.Exec(ctx, query,
		txn.ID, txn.WalletID, txn.OwnerID, string(txn.Type),
		txn.Amount.String(), txn.Description, txn.Reference,
		txn.BalanceAfter.String(), string(txn.Status), txn.AdminOverride, txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet transaction: %w", err)
	}
	return nil
}

// GetByReference fetches the most recent transaction of a type recorded
// under an external reference for one wallet owner.
func (r *TransactionRepo) GetByReference(ctx context.Context, ownerID uuid.UUID, reference string, txnType domain.TransactionType) (*domain.WalletTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions
		WHERE owner_id = $1 AND reference = $2 AND type = $3
		ORDER BY created_at DESC LIMIT 1`

	txn, err := scanTransaction(r.pool.QueryRow(ctx, query, ownerID, reference, string(txnType)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction by reference: %w", err)
	}
	return txn, nil
}

// List returns a filtered page of a wallet's history plus the total count.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.WalletTransaction, int64, error) {
	where := []string{"owner_id = $1"}
	args := []any{params.OwnerID}

	if params.Type != nil {
		args = append(args, string(*params.Type))
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if params.Status != nil {
		args = append(args, string(*params.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.Reference != nil {
		args = append(args, *params.Reference)
		where = append(where, fmt.Sprintf("reference = $%d", len(args)))
	}
	if params.From != nil {
		args = append(args, *params.From)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if params.To != nil {
		args = append(args, *params.To)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM wallet_transactions WHERE ` + whereClause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)
	listQuery := fmt.Sprintf(`SELECT %s FROM wallet_transactions WHERE %s
		ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		transactionColumns, whereClause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.WalletTransaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transactions: %w", err)
	}
	return txns, total, nil
}

// Summary aggregates one wallet's ledger history, optionally from a
// period start.
func (r *TransactionRepo) Summary(ctx context.Context, ownerID uuid.UUID, periodStart *time.Time) (*ports.TransactionSummary, error) {
	query := `SELECT COUNT(*),
		COUNT(*) FILTER (WHERE type = 'CREDIT'),
		COUNT(*) FILTER (WHERE type = 'DEBIT'),
		COALESCE(SUM(amount) FILTER (WHERE type = 'CREDIT' AND status = 'COMPLETED'), 0)::text,
		COALESCE(SUM(amount) FILTER (WHERE type = 'DEBIT' AND status = 'COMPLETED'), 0)::text
		FROM wallet_transactions WHERE owner_id = $1`
	args := []any{ownerID}
	if periodStart != nil {
		query += " AND created_at >= $2"
		args = append(args, *periodStart)
	}

	s := &ports.TransactionSummary{}
	var credited, debited string
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&s.TotalTransactions, &s.Credits, &s.Debits, &credited, &debited,
	)
	if err != nil {
		return nil, fmt.Errorf("transaction summary: %w", err)
	}
	if s.TotalCredited, err = decimal.NewFromString(credited); err != nil {
		return nil, fmt.Errorf("parse total credited: %w", err)
	}
	if s.TotalDebited, err = decimal.NewFromString(debited); err != nil {
		return nil, fmt.Errorf("parse total debited: %w", err)
	}
	return s, nil
}

func scanTransaction(row pgx.Row) (*domain.WalletTransaction, error) {
	txn := &domain.WalletTransaction{}
	var txnType, amount, balanceAfter, status string
	if err := row.Scan(
		&txn.ID, &txn.WalletID, &txn.OwnerID, &txnType, &amount,
		&txn.Description, &txn.Reference, &balanceAfter, &status,
		&txn.AdminOverride, &txn.CreatedAt,
	); err != nil {
		return nil, err
	}
	txn.Type = domain.TransactionType(txnType)
	txn.Status = domain.TransactionStatus(status)

	var err error
	if txn.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	if txn.BalanceAfter, err = decimal.NewFromString(balanceAfter); err != nil {
		return nil, fmt.Errorf("parse balance_after: %w", err)
	}
	return txn, nil
}
