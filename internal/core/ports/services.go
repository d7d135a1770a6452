package ports

import (
	"context"
	"time"

	"wallet-ledger-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// LedgerService owns every balance mutation. All mutations run inside a
// database transaction with the affected wallet rows locked for update.
type LedgerService interface {
	// Charge credits the wallet and records a CHARGE entry.
	Charge(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*domain.Wallet, error)
	// ChargeTx is Charge running inside the caller's transaction. The
	// caller is responsible for commit and rollback.
	ChargeTx(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal, description string) (*domain.Wallet, error)
	// Transfer atomically debits the sender and credits the receiver,
	// recording a TRANSFER_OUT and a TRANSFER_IN entry.
	Transfer(ctx context.Context, senderUserID uuid.UUID, receiverWalletID uuid.UUID, amount decimal.Decimal) (*domain.Wallet, error)
	// Settle debits the wallet and records a SETTLEMENT entry.
	Settle(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*domain.Wallet, error)
	// GetWallet returns the caller's wallet.
	GetWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	// ListRecentTransactions returns the newest ledger entries for the
	// caller's wallet, most recent first. A limit of zero or less, or one
	// above the configured cap, falls back to the cap.
	ListRecentTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Transaction, error)
}

// PaymentService drives the external gateway top-up flow.
type PaymentService interface {
	// InitiatePayment registers a pending payment with the gateway and
	// returns the redirect URL the user must visit.
	InitiatePayment(ctx context.Context, userID uuid.UUID, amount int64, description string) (*PaymentInitiation, error)
	// VerifyPayment confirms a payment with the gateway and, on first
	// successful verification, credits the wallet. Verifying an already
	// settled authority returns the stored outcome without re-charging.
	VerifyPayment(ctx context.Context, userID uuid.UUID, authority string, amount int64) (*PaymentVerification, error)
	// CancelPayment marks a pending payment canceled after the user
	// aborted at the gateway.
	CancelPayment(ctx context.Context, userID uuid.UUID, authority string) (*domain.Payment, error)
}

// PaymentInitiation is the outcome of registering a payment.
type PaymentInitiation struct {
	Payment    *domain.Payment `json:"payment"`
	PaymentURL string          `json:"payment_url"`
}

// PaymentVerification is the outcome of verifying a payment.
type PaymentVerification struct {
	Payment         *domain.Payment `json:"payment"`
	RefID           string          `json:"ref_id,omitempty"`
	AlreadyVerified bool            `json:"already_verified"`
}

// ProvisioningService creates wallets for new users.
type ProvisioningService interface {
	// ProvisionWallet creates the user's wallet seeded with the welcome
	// bonus and records the opening CHARGE entry. Provisioning an
	// already provisioned user is a no-op returning the existing wallet.
	ProvisionWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
}

// AuthService handles registration and login.
type AuthService interface {
	Register(ctx context.Context, username, password, email, phone string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
}

// TokenClaims carries the authenticated identity extracted from a token.
type TokenClaims struct {
	UserID uuid.UUID
}

// TokenService issues and validates bearer tokens.
type TokenService interface {
	Generate(userID uuid.UUID) (string, error)
	Validate(token string) (*TokenClaims, error)
}

// HashService hashes and verifies user passwords.
type HashService interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// GatewayRequest is the data needed to register a payment at the gateway.
type GatewayRequest struct {
	Amount      int64
	Description string
	Email       string
	Mobile      string
}

// GatewayRequestResult is the gateway's answer to a registration.
type GatewayRequestResult struct {
	Authority  string
	PaymentURL string
}

// GatewayVerifyResult is the gateway's answer to a verification.
type GatewayVerifyResult struct {
	RefID   string
	CardPan string
	Code    int
}

// GatewayClient talks to the external payment gateway. Implementations
// must not hold database locks while calling out.
type GatewayClient interface {
	RequestPayment(ctx context.Context, req GatewayRequest) (*GatewayRequestResult, error)
	VerifyPayment(ctx context.Context, authority string, amount int64) (*GatewayVerifyResult, error)
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // Unix timestamp
}

// RateLimitStore tracks request counts per client within a window.
type RateLimitStore interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
}
