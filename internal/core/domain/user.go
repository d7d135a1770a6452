package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity record. Registration, OTP delivery and profile
// completion live with the identity collaborator; the ledger only needs
// the reference for wallet provisioning and request authentication.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
