package ports

import (
	"context"
	"errors"

	"wallet-ledger-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ErrDuplicateKey is returned by Create methods when a unique constraint
// (one wallet per user, unique payment authority, unique username) is hit.
var ErrDuplicateKey = errors.New("duplicate key")

// UserRepository defines persistence operations for identity records.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx run inside the caller's transaction; the
// ForUpdate variants take a row-level exclusive lock held until commit.
type WalletRepository interface {
	Create(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	GetByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error
}

// TransactionRepository defines persistence for immutable ledger entries.
// There is deliberately no update or delete.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	ListRecent(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.Transaction, error)
}

// PaymentRepository defines persistence for gateway reconciliation records.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByAuthority(ctx context.Context, authority string) (*domain.Payment, error)
	GetByAuthorityForUpdate(ctx context.Context, tx pgx.Tx, authority string) (*domain.Payment, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.PaymentStatus, refID *string) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
