package dto

// PricingCalculateRequest is the request body for pricing computation.
type PricingCalculateRequest struct {
	BrandID      string  `json:"brand_id,omitempty"`
	WeightKg     float64 `json:"weight_kg" binding:"required"`
	Pieces       int     `json:"pieces" binding:"required,min=1"`
	Pincode      string  `json:"pincode,omitempty"`
	Service      string  `json:"service" binding:"required,oneof=STANDARD EXPRESS"`
	Direction    string  `json:"direction" binding:"required,oneof=FORWARD REVERSE"`
	ReturnReason *string `json:"return_reason,omitempty"`
}

// CostBreakdownResponse is the itemised pricing result. All monetary
// figures are fixed to 2 decimal places.
type CostBreakdownResponse struct {
	BaseRate            string   `json:"base_rate"`
	WeightCharges       string   `json:"weight_charges"`
	ServiceCharges      string   `json:"service_charges"`
	RemoteAreaSurcharge string   `json:"remote_area_surcharge"`
	PlatformMarkup      string   `json:"platform_markup"`
	FinalCost           string   `json:"final_cost"`
	AppliedRules        []string `json:"applied_rules"`
	Degraded            bool     `json:"degraded,omitempty"`
}

// ResolvePayerResponse names the party responsible for a shipment's cost.
type ResolvePayerResponse struct {
	Direction    string  `json:"direction"`
	ReturnReason *string `json:"return_reason,omitempty"`
	Payer        string  `json:"payer"`
}

// BrandOverrideRequest sets a brand's forward base rate override.
type BrandOverrideRequest struct {
	RatePerPiece string `json:"rate_per_piece" binding:"required"`
	IsActive     bool   `json:"is_active"`
}

// DebitRequest is the request body for a wallet debit.
type DebitRequest struct {
	Amount        string `json:"amount" binding:"required"`
	Description   string `json:"description" binding:"required,max=500"`
	Reference     string `json:"reference" binding:"required,max=100"`
	AdminOverride bool   `json:"admin_override,omitempty"`
}

// CreditRequest is the request body for a wallet credit. OwnerRole is only
// consulted when the wallet does not exist yet and must be created.
type CreditRequest struct {
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description" binding:"required,max=500"`
	Reference   string `json:"reference" binding:"required,max=100"`
	OwnerRole   string `json:"owner_role,omitempty" binding:"omitempty,oneof=BRAND DISTRIBUTOR SERVICE_CENTER CUSTOMER"`
}

// RefundRequest is the request body for a compensating refund.
type RefundRequest struct {
	Amount            string `json:"amount" binding:"required"`
	Reason            string `json:"reason" binding:"required,max=500"`
	OriginalReference string `json:"original_reference" binding:"required,max=100"`
}

// TransactionResponse is the response body for ledger entries.
type TransactionResponse struct {
	ID            string `json:"id"`
	OwnerID       string `json:"owner_id"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	Description   string `json:"description"`
	Reference     string `json:"reference"`
	BalanceAfter  string `json:"balance_after"`
	Status        string `json:"status"`
	AdminOverride bool   `json:"admin_override,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// LedgerResultResponse wraps a committed mutation and the new balance.
type LedgerResultResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	NewBalance  string              `json:"new_balance"`
}

// BalanceCheckResponse is the response for a sufficiency probe.
type BalanceCheckResponse struct {
	Sufficient     bool   `json:"sufficient"`
	CurrentBalance string `json:"current_balance"`
	Shortfall      string `json:"shortfall"`
}

// WalletResponse is the response body for wallet detail.
type WalletResponse struct {
	OwnerID        string  `json:"owner_id"`
	OwnerRole      string  `json:"owner_role"`
	Balance        string  `json:"balance"`
	TotalCredited  string  `json:"total_credited"`
	TotalDebited   string  `json:"total_debited"`
	LastRechargeAt *string `json:"last_recharge_at,omitempty"`
}

// TransactionListResponse wraps a paginated transaction list.
type TransactionListResponse struct {
	Items      []TransactionResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// TransactionSummaryResponse aggregates one wallet's ledger history.
type TransactionSummaryResponse struct {
	TotalTransactions int64  `json:"total_transactions"`
	Credits           int64  `json:"credits"`
	Debits            int64  `json:"debits"`
	TotalCredited     string `json:"total_credited"`
	TotalDebited      string `json:"total_debited"`
}
