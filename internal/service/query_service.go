package service

import (
	"context"
	"time"

	"spareparts-billing/internal/core/domain"
	"spareparts-billing/internal/core/ports"
	"spareparts-billing/pkg/apperror"

	"github.com/google/uuid"
)

// queryService implements ports.TransactionQueryService, the read side of
// the ledger used for reporting and dispute review.
type queryService struct {
	txRepo ports.TransactionRepository
}

// NewTransactionQueryService creates a new ledger query service.
func NewTransactionQueryService(txRepo ports.TransactionRepository) ports.TransactionQueryService {
	return &queryService{txRepo: txRepo}
}

// List returns a filtered, paginated slice of a wallet's ledger history.
func (s *queryService) List(ctx context.Context, params ports.TransactionListParams) ([]domain.WalletTransaction, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	txns, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(err)
	}
	return txns, total, nil
}

// Summary returns aggregates over one wallet's history for a period:
// day, week, month or all.
func (s *queryService) Summary(ctx context.Context, ownerID uuid.UUID, period string) (*ports.TransactionSummary, error) {
	var periodStart *time.Time

	switch period {
	case "day":
		t := time.Now().UTC().AddDate(0, 0, -1)
		periodStart = &t
	case "week":
		t := time.Now().UTC().AddDate(0, 0, -7)
		periodStart = &t
	case "month":
		t := time.Now().UTC().AddDate(0, -1, 0)
		periodStart = &t
	case "all", "":
		// No time filter
	default:
		return nil, apperror.Validation("invalid period: must be day, week, month, or all")
	}

	summary, err := s.txRepo.Summary(ctx, ownerID, periodStart)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return summary, nil
}
