package dto

import (
	"time"

	"wallet-ledger-service/internal/core/domain"
)

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	Email    string `json:"email,omitempty" binding:"omitempty,email"`
	Phone    string `json:"phone,omitempty" binding:"omitempty,max=20"`
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// ChargeRequest is the request body for a direct wallet charge.
// Amounts travel as decimal strings so nothing rounds in transit.
type ChargeRequest struct {
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description,omitempty" binding:"max=255"`
}

// TransferRequest is the request body for a wallet-to-wallet transfer.
type TransferRequest struct {
	ReceiverWalletID string `json:"receiver_wallet_id" binding:"required,uuid"`
	Amount           string `json:"amount" binding:"required"`
}

// SettleRequest is the request body for a settlement (withdrawal).
type SettleRequest struct {
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description,omitempty" binding:"max=255"`
}

// PaymentInitiateRequest is the request body for starting a gateway top-up.
// The gateway deals in the smallest currency unit, hence the integer.
type PaymentInitiateRequest struct {
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description,omitempty" binding:"max=255"`
}

// PaymentVerifyRequest is the request body for verifying a gateway payment.
type PaymentVerifyRequest struct {
	Authority string `json:"authority" binding:"required,max=64"`
	Amount    int64  `json:"amount" binding:"required,gt=0"`
}

// PaymentCancelRequest is the request body for canceling a pending payment.
type PaymentCancelRequest struct {
	Authority string `json:"authority" binding:"required,max=64"`
}

// WalletResponse is the response body for wallet queries and mutations.
type WalletResponse struct {
	ID        string `json:"id"`
	Balance   string `json:"balance"`
	Currency  string `json:"currency"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// TransactionResponse is the response body for one ledger entry.
type TransactionResponse struct {
	ID          string `json:"id"`
	Type        string `json:"transaction_type"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// PaymentResponse is the response body for payment records.
type PaymentResponse struct {
	ID        string  `json:"id"`
	Amount    int64   `json:"amount"`
	Status    string  `json:"status"`
	Authority string  `json:"authority"`
	RefID     *string `json:"ref_id,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// PaymentInitiateResponse is the response for a started top-up.
type PaymentInitiateResponse struct {
	Payment    PaymentResponse `json:"payment"`
	PaymentURL string          `json:"payment_url"`
}

// PaymentVerifyResponse is the response for a verified top-up.
type PaymentVerifyResponse struct {
	Payment         PaymentResponse `json:"payment"`
	RefID           string          `json:"ref_id,omitempty"`
	AlreadyVerified bool            `json:"already_verified"`
}

// FromWallet converts a domain wallet to its API shape.
func FromWallet(w *domain.Wallet) WalletResponse {
	return WalletResponse{
		ID:        w.ID.String(),
		Balance:   w.Balance.StringFixed(2),
		Currency:  w.Currency,
		CreatedAt: w.CreatedAt.Format(time.RFC3339),
		UpdatedAt: w.UpdatedAt.Format(time.RFC3339),
	}
}

// FromTransaction converts a domain ledger entry to its API shape.
func FromTransaction(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID.String(),
		Type:        string(t.Type),
		Amount:      t.Amount.StringFixed(2),
		Description: t.Description,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
}

// FromPayment converts a domain payment to its API shape.
func FromPayment(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:        p.ID.String(),
		Amount:    p.Amount,
		Status:    string(p.Status),
		Authority: p.Authority,
		RefID:     p.RefID,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}
