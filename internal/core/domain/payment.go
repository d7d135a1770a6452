package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the lifecycle state of a gateway payment.
// Transitions are monotonic: pending moves to exactly one terminal
// state and never back.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusSuccess  PaymentStatus = "success"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusCanceled PaymentStatus = "canceled"
)

// Payment is the local reconciliation record for one payment attempt
// at the external gateway, correlated by the gateway's authority token.
type Payment struct {
	ID        uuid.UUID     `json:"id"`
	WalletID  uuid.UUID     `json:"wallet_id"`
	Amount    int64         `json:"amount"` // Smallest currency unit, as the gateway expects
	Status    PaymentStatus `json:"status"`
	Authority string        `json:"authority"`
	RefID     *string       `json:"ref_id,omitempty"` // Gateway receipt number, set on success
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// IsTerminal returns true once the payment left the pending state.
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusSuccess ||
		p.Status == PaymentStatusFailed ||
		p.Status == PaymentStatusCanceled
}
