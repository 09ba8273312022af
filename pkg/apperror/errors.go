package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
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

// HasCode reports whether err is (or wraps) an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Error codes grouped by domain. Codes are stable; messages are not.
const (
	CodeMerchantNotFound  = "MER_001"
	CodeMerchantExists    = "MER_002"
	CodeBalanceNotFound   = "BAL_001"
	CodeBalanceExists     = "BAL_002"
	CodeInsufficientFunds = "TRF_001"
	CodeTransferExists    = "TRF_002"
	CodeSelfTransfer      = "TRF_003"
	CodeValidation        = "VAL_001"
	CodeInternal          = "SYS_001"
	CodeLockTimeout       = "SYS_002"
)

// ---- Merchants (MER) ----

func ErrMerchantNotFound() *AppError {
	return New(CodeMerchantNotFound, "Merchant does not exist", http.StatusNotFound)
}

func ErrMerchantExists(name string) *AppError {
	return New(CodeMerchantExists, fmt.Sprintf("Merchant %q already exists", name), http.StatusConflict)
}

// ---- Balances (BAL) ----

func ErrBalanceNotFound(currency string) *AppError {
	return New(CodeBalanceNotFound, fmt.Sprintf("Balance with currency %s does not exist", currency), http.StatusNotFound)
}

func ErrBalanceExists() *AppError {
	return New(CodeBalanceExists, "Balance already exists for this merchant and currency", http.StatusConflict)
}

// ---- Transfers (TRF) ----

func ErrInsufficientFunds() *AppError {
	return New(CodeInsufficientFunds, "Insufficient funds", http.StatusBadRequest)
}

func ErrTransferExists(key string) *AppError {
	return New(CodeTransferExists, fmt.Sprintf("Transfer with idempotency key %q already exists", key), http.StatusConflict)
}

func ErrSelfTransfer() *AppError {
	return New(CodeSelfTransfer, "Cannot transfer to the same merchant", http.StatusUnprocessableEntity)
}

// ---- Validation (VAL) ----

// Validation returns a request-validation error (422).
func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusUnprocessableEntity)
}

// ---- System & Infrastructure (SYS) ----

// ErrLockTimeout signals a transient contention failure. The caller may safely
// retry with the same idempotency key.
func ErrLockTimeout(err error) *AppError {
	return Wrap(CodeLockTimeout, "Lock acquisition timeout", http.StatusServiceUnavailable, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap(CodeInternal, "Internal server error", http.StatusInternalServerError, err)
}
