package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-ledger-service/internal/core/domain"
	"wallet-ledger-service/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PaymentRepo implements ports.PaymentRepository.
type PaymentRepo struct {
	pool Pool
}

// NewPaymentRepo creates a new PaymentRepo.
func NewPaymentRepo(pool Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

const paymentColumns = `id, wallet_id, amount, status, authority, ref_id, created_at, updated_at`

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	p := &domain.Payment{}
	err := row.Scan(&p.ID, &p.WalletID, &p.Amount, &p.Status, &p.Authority, &p.RefID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a new payment record. A replayed gateway authority
// violates the unique constraint and is reported as ports.ErrDuplicateKey.
func (r *PaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	query := `INSERT INTO payments (id, wallet_id, amount, status, authority, ref_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.WalletID, p.Amount, p.Status, p.Authority, p.RefID, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ports.ErrDuplicateKey
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetByAuthority fetches a payment by its gateway authority (non-locking read).
func (r *PaymentRepo) GetByAuthority(ctx context.Context, authority string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE authority = $1`

	p, err := scanPayment(r.pool.QueryRow(ctx, query, authority))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment by authority: %w", err)
	}
	return p, nil
}

// GetByAuthorityForUpdate fetches a payment with pessimistic locking.
// This MUST be called within a transaction.
func (r *PaymentRepo) GetByAuthorityForUpdate(ctx context.Context, tx pgx.Tx, authority string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE authority = $1 FOR UPDATE`

	p, err := scanPayment(tx.QueryRow(ctx, query, authority))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment for update: %w", err)
	}
	return p, nil
}

// UpdateStatus moves a payment to a new status within a transaction,
// recording the gateway receipt when one exists.
func (r *PaymentRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.PaymentStatus, refID *string) error {
	query := `UPDATE payments SET status = $1, ref_id = $2, updated_at = NOW() WHERE id = $3`

	tag, err := tx.Exec(ctx, query, status, refID, id)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment not found: %s", id)
	}
	return nil
}
