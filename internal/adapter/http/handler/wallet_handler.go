package handler

import (
	"strconv"
	"time"

	"spareparts-billing/internal/adapter/http/dto"
	"spareparts-billing/internal/core/domain"
	"spareparts-billing/internal/core/ports"
	"spareparts-billing/pkg/apperror"
	"spareparts-billing/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// WalletHandler exposes wallet mutations and the ledger read side.
type WalletHandler struct {
	ledger  ports.LedgerService
	queries ports.TransactionQueryService
	log     zerolog.Logger
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ledger ports.LedgerService, queries ports.TransactionQueryService, log zerolog.Logger) *WalletHandler {
	return &WalletHandler{ledger: ledger, queries: queries, log: log}
}

// Debit handles POST /api/v1/wallets/:owner_id/debit.
func (h *WalletHandler) Debit(c *gin.Context) {
	ownerID, ok := ownerIDParam(c)
	if !ok {
		return
	}
	var req dto.DebitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.ledger.Debit(c.Request.Context(), ports.DebitRequest{
		OwnerID:       ownerID,
		Amount:        amount,
		Description:   req.Description,
		Reference:     req.Reference,
		AdminOverride: req.AdminOverride,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toLedgerResultResponse(result))
}

// Credit handles POST /api/v1/wallets/:owner_id/credit.
func (h *WalletHandler) Credit(c *gin.Context) {
	ownerID, ok := ownerIDParam(c)
	if !ok {
		return
	}
	var req dto.CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.ledger.Credit(c.Request.Context(), ports.CreditRequest{
		OwnerID:     ownerID,
		OwnerRole:   domain.PartyRole(req.OwnerRole),
		Amount:      amount,
		Description: req.Description,
		Reference:   req.Reference,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toLedgerResultResponse(result))
}

// Refund handles POST /api/v1/wallets/:owner_id/refund.
func (h *WalletHandler) Refund(c *gin.Context) {
	ownerID, ok := ownerIDParam(c)
	if !ok {
		return
	}
	var req dto.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.ledger.Refund(c.Request.Context(), ports.RefundRequest{
		OwnerID:           ownerID,
		Amount:            amount,
		Reason:            req.Reason,
		OriginalReference: req.OriginalReference,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toLedgerResultResponse(result))
}

// CheckBalance handles GET /api/v1/wallets/:owner_id/balance-check.
func (h *WalletHandler) CheckBalance(c *gin.Context) {
	ownerID, ok := ownerIDParam(c)
	if !ok {
		return
	}
	required, err := decimal.NewFromString(c.DefaultQuery("required", "0"))
	if err != nil {
		response.Error(c, apperror.Validation("required must be a decimal string"))
		return
	}

	check, err := h.ledger.CheckBalance(c.Request.Context(), ownerID, required)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.BalanceCheckResponse{
		Sufficient:     check.Sufficient,
		CurrentBalance: check.CurrentBalance.StringFixed(2),
		Shortfall:      check.Shortfall.StringFixed(2),
	})
}

// GetWallet handles GET /api/v1/wallets/:owner_id.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	ownerID, ok := ownerIDParam(c)
	if !ok {
		return
	}
	wallet, err := h.ledger.GetWallet(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toWalletResponse(wallet))
}

// ListTransactions handles GET /api/v1/wallets/:owner_id/transactions.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	ownerID, ok := ownerIDParam(c)
	if !ok {
		return
	}

	params := ports.TransactionListParams{OwnerID: ownerID}
	params.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	params.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	if raw := c.Query("type"); raw != "" {
		t := domain.TransactionType(raw)
		if t != domain.TransactionTypeCredit && t != domain.TransactionTypeDebit {
			response.Error(c, apperror.Validation("type must be CREDIT or DEBIT"))
			return
		}
		params.Type = &t
	}
	if raw := c.Query("status"); raw != "" {
		s := domain.TransactionStatus(raw)
		if s != domain.TransactionStatusCompleted && s != domain.TransactionStatusFailed {
			response.Error(c, apperror.Validation("status must be COMPLETED or FAILED"))
			return
		}
		params.Status = &s
	}
	if raw := c.Query("reference"); raw != "" {
		params.Reference = &raw
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, apperror.Validation("from must be an RFC3339 timestamp"))
			return
		}
		params.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, apperror.Validation("to must be an RFC3339 timestamp"))
			return
		}
		params.To = &to
	}

	items, total, err := h.queries.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	page, pageSize := params.Page, params.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	resp := dto.TransactionListResponse{
		Items:      make([]dto.TransactionResponse, 0, len(items)),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
	for i := range items {
		resp.Items = append(resp.Items, toTransactionResponse(&items[i]))
	}
	response.OK(c, resp)
}

// TransactionSummary handles GET /api/v1/wallets/:owner_id/transactions/summary.
func (h *WalletHandler) TransactionSummary(c *gin.Context) {
	ownerID, ok := ownerIDParam(c)
	if !ok {
		return
	}
	period := c.DefaultQuery("period", "all")

	summary, err := h.queries.Summary(c.Request.Context(), ownerID, period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.TransactionSummaryResponse{
		TotalTransactions: summary.TotalTransactions,
		Credits:           summary.Credits,
		Debits:            summary.Debits,
		TotalCredited:     summary.TotalCredited.StringFixed(2),
		TotalDebited:      summary.TotalDebited.StringFixed(2),
	})
}

func ownerIDParam(c *gin.Context) (uuid.UUID, bool) {
	ownerID, err := uuid.Parse(c.Param("owner_id"))
	if err != nil {
		response.Error(c, apperror.Validation("owner_id must be a valid UUID"))
		return uuid.Nil, false
	}
	return ownerID, true
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperror.Validation("amount must be a decimal string")
	}
	return amount, nil
}

func toLedgerResultResponse(result *ports.LedgerResult) dto.LedgerResultResponse {
	return dto.LedgerResultResponse{
		Transaction: toTransactionResponse(result.Transaction),
		NewBalance:  result.NewBalance.StringFixed(2),
	}
}

func toTransactionResponse(txn *domain.WalletTransaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:            txn.ID.String(),
		OwnerID:       txn.OwnerID.String(),
		Type:          string(txn.Type),
		Amount:        txn.Amount.StringFixed(2),
		Description:   txn.Description,
		Reference:     txn.Reference,
		BalanceAfter:  txn.BalanceAfter.StringFixed(2),
		Status:        string(txn.Status),
		AdminOverride: txn.AdminOverride,
		CreatedAt:     txn.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toWalletResponse(w *domain.Wallet) dto.WalletResponse {
	resp := dto.WalletResponse{
		OwnerID:       w.OwnerID.String(),
		OwnerRole:     string(w.OwnerRole),
		Balance:       w.Balance.StringFixed(2),
		TotalCredited: w.TotalCredited.StringFixed(2),
		TotalDebited:  w.TotalDebited.StringFixed(2),
	}
	if w.LastRechargeAt != nil {
		s := w.LastRechargeAt.UTC().Format(time.RFC3339)
		resp.LastRechargeAt = &s
	}
	return resp
}
