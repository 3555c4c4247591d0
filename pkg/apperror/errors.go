package apperror

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string         `json:"error_code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// WithDetails attaches structured detail fields for the client.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

// ---- Ledger Business Logic (LED) ----

// ErrInsufficientBalance carries the exact shortfall so callers can present
// a top-up prompt.
func ErrInsufficientBalance(current, shortfall decimal.Decimal) *AppError {
	return New("LED_001", "Insufficient wallet balance", http.StatusPaymentRequired).
		WithDetails(map[string]any{
			"current_balance": current.StringFixed(2),
			"shortfall":       shortfall.StringFixed(2),
		})
}

func ErrInvalidAmount() *AppError {
	return New("LED_002", "Amount must be greater than zero", http.StatusBadRequest)
}

func ErrDuplicateRefund(originalReference string) *AppError {
	return New("LED_003", "Refund already issued for this reference", http.StatusConflict).
		WithDetails(map[string]any{"original_reference": originalReference})
}

func ErrNotFound(entity string) *AppError {
	return New("LED_004", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrRefundExceedsOriginal() *AppError {
	return New("LED_005", "Refund amount exceeds original debit amount", http.StatusBadRequest)
}

// ---- Pricing (PRC) ----

// Validation returns a field-level validation error. The message must name
// the offending field.
func Validation(message string) *AppError {
	return New("PRC_001", message, http.StatusBadRequest)
}

func ErrUnknownReturnReason(reason string) *AppError {
	return New("PRC_002", fmt.Sprintf("unknown return reason: %s", reason), http.StatusBadRequest)
}

func ErrUnresolvedResponsibility(direction string) *AppError {
	return New("PRC_003", fmt.Sprintf("no cost responsibility defined for direction %s", direction), http.StatusBadRequest)
}

// ---- Configuration (CFG) ----

func ErrInvalidConfig(message string) *AppError {
	return New("CFG_001", message, http.StatusBadRequest)
}

// ---- External Dependencies (EXT) ----

func ErrInventoryUnavailable(err error) *AppError {
	return Wrap("EXT_001", "Inventory source unavailable", http.StatusServiceUnavailable, err)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
