package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of money movement on a wallet.
type TransactionType string

const (
	TransactionTypeCharge      TransactionType = "CHARGE"
	TransactionTypeTransferOut TransactionType = "TRANSFER_OUT"
	TransactionTypeTransferIn  TransactionType = "TRANSFER_IN"
	TransactionTypeSettlement  TransactionType = "SETTLEMENT"
)

// Transaction is an immutable ledger entry for one balance-affecting event.
// The amount is always positive; direction is implied by the type.
// Entries are never updated or deleted once written.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	WalletID    uuid.UUID       `json:"wallet_id"`
	Type        TransactionType `json:"transaction_type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// IsCredit reports whether the entry increases the wallet balance.
func (t *Transaction) IsCredit() bool {
	return t.Type == TransactionTypeCharge || t.Type == TransactionTypeTransferIn
}

// IsDebit reports whether the entry decreases the wallet balance.
func (t *Transaction) IsDebit() bool {
	return t.Type == TransactionTypeTransferOut || t.Type == TransactionTypeSettlement
}
