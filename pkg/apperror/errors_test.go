package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("PAY_001", "Insufficient funds", http.StatusPaymentRequired),
			expected: "[PAY_001] Insufficient funds",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("PAY_001", "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestLedgerErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InsufficientFunds", ErrInsufficientFunds(), "PAY_001", 402},
		{"InvalidAmount", ErrInvalidAmount(), "PAY_002", 400},
		{"SelfTransfer", ErrSelfTransfer(), "PAY_003", 400},
		{"NotFound", ErrNotFound("Wallet"), "PAY_004", 404},
		{"DuplicateAuthority", ErrDuplicateAuthority(), "PAY_005", 409},
		{"AmountMismatch", ErrAmountMismatch(), "PAY_006", 400},
		{"AlreadyExists", ErrAlreadyExists("Wallet"), "PAY_007", 409},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestGatewayErrors(t *testing.T) {
	inner := fmt.Errorf("dial tcp: connection refused")
	unavailable := ErrGatewayUnavailable(inner)
	assert.Equal(t, "GW_001", unavailable.Code)
	assert.Equal(t, http.StatusBadGateway, unavailable.HTTPStatus)
	assert.True(t, errors.Is(unavailable, inner))

	rejected := ErrGatewayRejected("merchant id invalid")
	assert.Equal(t, "GW_002", rejected.Code)
	assert.Contains(t, rejected.Message, "merchant id invalid")

	canceled := ErrPaymentCanceled()
	assert.Equal(t, "GW_003", canceled.Code)
	assert.Equal(t, http.StatusBadRequest, canceled.HTTPStatus)
}

func TestAuthErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InvalidCredentials", ErrInvalidCredentials(), "AUTH_001", 401},
		{"UsernameExists", ErrUsernameExists(), "AUTH_002", 409},
		{"InvalidToken", ErrInvalidToken(), "AUTH_003", 401},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestRateLimitError(t *testing.T) {
	err := ErrRateLimitExceeded()
	assert.Equal(t, "RATE_001", err.Code)
	assert.Equal(t, 429, err.HTTPStatus)
}

func TestNotFoundEntity(t *testing.T) {
	err := ErrNotFound("Payment")
	assert.Contains(t, err.Message, "Payment")
	assert.Equal(t, "PAY_004", err.Code)
}
