package apperror

import (
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

// ---- Ledger Business Logic (PAY) ----

func ErrInsufficientFunds() *AppError {
	return New("PAY_001", "Insufficient funds in wallet", http.StatusPaymentRequired)
}

func ErrInvalidAmount() *AppError {
	return New("PAY_002", "Amount must be positive", http.StatusBadRequest)
}

func ErrSelfTransfer() *AppError {
	return New("PAY_003", "Cannot transfer funds to your own wallet", http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New("PAY_004", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrDuplicateAuthority() *AppError {
	return New("PAY_005", "Payment authority already registered", http.StatusConflict)
}

func ErrAmountMismatch() *AppError {
	return New("PAY_006", "Amount does not match the original payment request", http.StatusBadRequest)
}

func ErrAlreadyExists(entity string) *AppError {
	return New("PAY_007", fmt.Sprintf("%s already exists", entity), http.StatusConflict)
}

// ---- Payment Gateway (GW) ----

func ErrGatewayUnavailable(err error) *AppError {
	return Wrap("GW_001", "Payment gateway unavailable", http.StatusBadGateway, err)
}

// ErrGatewayRejected carries the gateway's own error detail back to the caller.
func ErrGatewayRejected(detail string) *AppError {
	return New("GW_002", fmt.Sprintf("Payment gateway rejected the request: %s", detail), http.StatusBadRequest)
}

func ErrPaymentCanceled() *AppError {
	return New("GW_003", "Payment was canceled by the payer", http.StatusBadRequest)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrUsernameExists() *AppError {
	return New("AUTH_002", "Username already exists", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a PAY_002-style validation error with a custom message.
func Validation(message string) *AppError {
	return New("PAY_002", message, http.StatusBadRequest)
}
