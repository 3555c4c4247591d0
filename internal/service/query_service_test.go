package service

import (
	"context"
	"testing"
	"time"

	"spareparts-billing/internal/core/domain"
	"spareparts-billing/internal/core/ports"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTxns(t *testing.T, repo *fakeTransactionRepo, ownerID uuid.UUID, n int, txnType domain.TransactionType, amount string, age time.Duration) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := repo.Create(context.Background(), nil, &domain.WalletTransaction{
			ID:        uuid.New(),
			OwnerID:   ownerID,
			Type:      txnType,
			Amount:    dec(amount),
			Reference: uuid.NewString(),
			Status:    domain.TransactionStatusCompleted,
			CreatedAt: time.Now().UTC().Add(-age),
		})
		require.NoError(t, err)
	}
}

func TestQueryList_PaginationDefaults(t *testing.T) {
	repo := newFakeTransactionRepo()
	ownerID := uuid.New()
	seedTxns(t, repo, ownerID, 25, domain.TransactionTypeDebit, "10", 0)

	svc := NewTransactionQueryService(repo)

	// Out-of-range paging values fall back to page 1, size 20.
	items, total, err := svc.List(context.Background(), ports.TransactionListParams{
		OwnerID:  ownerID,
		Page:     0,
		PageSize: 500,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	assert.Len(t, items, 20)
}

func TestQueryList_TypeFilter(t *testing.T) {
	repo := newFakeTransactionRepo()
	ownerID := uuid.New()
	seedTxns(t, repo, ownerID, 3, domain.TransactionTypeDebit, "10", 0)
	seedTxns(t, repo, ownerID, 2, domain.TransactionTypeCredit, "50", 0)

	svc := NewTransactionQueryService(repo)

	credit := domain.TransactionTypeCredit
	items, total, err := svc.List(context.Background(), ports.TransactionListParams{
		OwnerID: ownerID,
		Type:    &credit,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, item := range items {
		assert.Equal(t, domain.TransactionTypeCredit, item.Type)
	}
}

func TestQuerySummary_Periods(t *testing.T) {
	repo := newFakeTransactionRepo()
	ownerID := uuid.New()
	// Two recent debits, one old credit outside the weekly window.
	seedTxns(t, repo, ownerID, 2, domain.TransactionTypeDebit, "30", time.Hour)
	seedTxns(t, repo, ownerID, 1, domain.TransactionTypeCredit, "100", 30*24*time.Hour)

	svc := NewTransactionQueryService(repo)

	all, err := svc.Summary(context.Background(), ownerID, "all")
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.TotalTransactions)
	assert.Equal(t, int64(1), all.Credits)
	assert.Equal(t, int64(2), all.Debits)
	assert.Equal(t, "100.00", all.TotalCredited.StringFixed(2))
	assert.Equal(t, "60.00", all.TotalDebited.StringFixed(2))

	week, err := svc.Summary(context.Background(), ownerID, "week")
	require.NoError(t, err)
	assert.Equal(t, int64(2), week.TotalTransactions)
	assert.Equal(t, "0.00", week.TotalCredited.StringFixed(2))
}

func TestQuerySummary_InvalidPeriod(t *testing.T) {
	svc := NewTransactionQueryService(newFakeTransactionRepo())

	_, err := svc.Summary(context.Background(), uuid.New(), "fortnight")
	assertAppError(t, err, "PRC_001")
}
