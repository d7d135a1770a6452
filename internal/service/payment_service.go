package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-ledger-service/internal/core/domain"
	"wallet-ledger-service/internal/core/ports"
	"wallet-ledger-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PaymentServiceImpl implements ports.PaymentService: the top-up flow
// through the external payment gateway.
//
// Gateway calls never run while database locks are held. Verification
// talks to the gateway first and only then opens a transaction, locking
// the payment row to decide whether this caller is the one that credits
// the wallet.
type PaymentServiceImpl struct {
	paymentRepo ports.PaymentRepository
	walletRepo  ports.WalletRepository
	userRepo    ports.UserRepository
	ledger      ports.LedgerService
	gateway     ports.GatewayClient
	transactor  ports.DBTransactor
	log         zerolog.Logger
}

// NewPaymentService creates a new PaymentServiceImpl.
func NewPaymentService(
	paymentRepo ports.PaymentRepository,
	walletRepo ports.WalletRepository,
	userRepo ports.UserRepository,
	ledger ports.LedgerService,
	gateway ports.GatewayClient,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		paymentRepo: paymentRepo,
		walletRepo:  walletRepo,
		userRepo:    userRepo,
		ledger:      ledger,
		gateway:     gateway,
		transactor:  transactor,
		log:         log,
	}
}

// InitiatePayment registers a payment with the gateway and records a
// pending payment correlated by the returned authority.
func (s *PaymentServiceImpl) InitiatePayment(ctx context.Context, userID uuid.UUID, amount int64, description string) (*ports.PaymentInitiation, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrNotFound("user")
	}

	result, err := s.gateway.RequestPayment(ctx, ports.GatewayRequest{
		Amount:      amount,
		Description: description,
		Email:       user.Email,
		Mobile:      user.Phone,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	payment := &domain.Payment{
		ID:        uuid.New(),
		WalletID:  wallet.ID,
		Amount:    amount,
		Status:    domain.PaymentStatusPending,
		Authority: result.Authority,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		if errors.Is(err, ports.ErrDuplicateKey) {
			return nil, apperror.ErrDuplicateAuthority()
		}
		return nil, apperror.InternalError(fmt.Errorf("create payment: %w", err))
	}

	s.log.Info().
		Str("payment_id", payment.ID.String()).
		Str("authority", payment.Authority).
		Int64("amount", amount).
		Msg("payment initiated")

	return &ports.PaymentInitiation{
		Payment:    payment,
		PaymentURL: result.PaymentURL,
	}, nil
}

// VerifyPayment confirms a payment with the gateway. The first verifier
// of a pending payment credits the wallet; later verifiers of the same
// authority get the stored outcome and no second credit.
func (s *PaymentServiceImpl) VerifyPayment(ctx context.Context, userID uuid.UUID, authority string, amount int64) (*ports.PaymentVerification, error) {
	payment, err := s.ownedPayment(ctx, userID, authority)
	if err != nil {
		return nil, err
	}
	if payment.Amount != amount {
		return nil, apperror.ErrAmountMismatch()
	}
	if payment.IsTerminal() {
		return s.terminalOutcome(payment)
	}

	// Gateway call runs outside any database transaction.
	result, err := s.gateway.VerifyPayment(ctx, authority, amount)
	if err != nil {
		// Rejected or unreachable, either way the payment settles as
		// failed; the caller can initiate a fresh one.
		if failErr := s.settlePayment(ctx, payment.ID, authority, domain.PaymentStatusFailed, nil); failErr != nil {
			s.log.Error().Err(failErr).Str("authority", authority).Msg("failed to mark payment failed")
		}
		return nil, err
	}

	// Gateway confirmed: credit the wallet exactly once.
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	locked, err := s.paymentRepo.GetByAuthorityForUpdate(ctx, dbTx, authority)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock payment: %w", err))
	}
	if locked == nil {
		return nil, apperror.ErrNotFound("payment")
	}
	if locked.IsTerminal() {
		// A concurrent verifier settled it first.
		return s.terminalOutcome(locked)
	}

	refID := result.RefID
	if err := s.paymentRepo.UpdateStatus(ctx, dbTx, locked.ID, domain.PaymentStatusSuccess, &refID); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update payment status: %w", err))
	}

	chargeAmount := decimal.NewFromInt(locked.Amount)
	desc := fmt.Sprintf("Gateway charge, ref %s", refID)
	if _, err := s.ledger.ChargeTx(ctx, dbTx, locked.WalletID, chargeAmount, desc); err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	locked.Status = domain.PaymentStatusSuccess
	locked.RefID = &refID
	locked.UpdatedAt = time.Now().UTC()

	s.log.Info().
		Str("payment_id", locked.ID.String()).
		Str("authority", authority).
		Str("ref_id", refID).
		Msg("payment verified and wallet credited")

	return &ports.PaymentVerification{
		Payment: locked,
		RefID:   refID,
	}, nil
}

// CancelPayment marks a pending payment canceled after the user aborted
// at the gateway. Canceling an already canceled payment is a no-op.
func (s *PaymentServiceImpl) CancelPayment(ctx context.Context, userID uuid.UUID, authority string) (*domain.Payment, error) {
	payment, err := s.ownedPayment(ctx, userID, authority)
	if err != nil {
		return nil, err
	}
	if payment.Status == domain.PaymentStatusCanceled {
		return payment, nil
	}
	if payment.IsTerminal() {
		return nil, apperror.Validation("payment is not pending")
	}

	if err := s.settlePayment(ctx, payment.ID, authority, domain.PaymentStatusCanceled, nil); err != nil {
		return nil, err
	}
	payment.Status = domain.PaymentStatusCanceled
	payment.UpdatedAt = time.Now().UTC()

	s.log.Info().
		Str("payment_id", payment.ID.String()).
		Str("authority", authority).
		Msg("payment canceled")

	return payment, nil
}

// ownedPayment fetches a payment by authority and checks it belongs to
// the caller's wallet. Foreign payments are indistinguishable from
// missing ones.
func (s *PaymentServiceImpl) ownedPayment(ctx context.Context, userID uuid.UUID, authority string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByAuthority(ctx, authority)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get payment: %w", err))
	}
	if payment == nil {
		return nil, apperror.ErrNotFound("payment")
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil || wallet.ID != payment.WalletID {
		return nil, apperror.ErrNotFound("payment")
	}
	return payment, nil
}

// terminalOutcome maps a settled payment to the caller's response.
func (s *PaymentServiceImpl) terminalOutcome(payment *domain.Payment) (*ports.PaymentVerification, error) {
	switch payment.Status {
	case domain.PaymentStatusSuccess:
		refID := ""
		if payment.RefID != nil {
			refID = *payment.RefID
		}
		return &ports.PaymentVerification{
			Payment:         payment,
			RefID:           refID,
			AlreadyVerified: true,
		}, nil
	case domain.PaymentStatusCanceled:
		return nil, apperror.ErrPaymentCanceled()
	default:
		return nil, apperror.ErrGatewayRejected("payment previously failed")
	}
}

// settlePayment moves a still-pending payment to a terminal status under
// a row lock. A payment that settled concurrently is left as is.
func (s *PaymentServiceImpl) settlePayment(ctx context.Context, paymentID uuid.UUID, authority string, status domain.PaymentStatus, refID *string) error {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	locked, err := s.paymentRepo.GetByAuthorityForUpdate(ctx, dbTx, authority)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock payment: %w", err))
	}
	if locked == nil {
		return apperror.ErrNotFound("payment")
	}
	if locked.IsTerminal() {
		return nil
	}

	if err := s.paymentRepo.UpdateStatus(ctx, dbTx, paymentID, status, refID); err != nil {
		return apperror.InternalError(fmt.Errorf("update payment status: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}
