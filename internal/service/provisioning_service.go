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

// ProvisioningServiceImpl implements ports.ProvisioningService.
// Every new user gets exactly one wallet seeded with the welcome bonus;
// the bonus appears in the ledger as the wallet's opening CHARGE entry.
type ProvisioningServiceImpl struct {
	walletRepo   ports.WalletRepository
	txRepo       ports.TransactionRepository
	transactor   ports.DBTransactor
	welcomeBonus decimal.Decimal
	currency     string
	log          zerolog.Logger
}

// NewProvisioningService creates a new ProvisioningServiceImpl.
func NewProvisioningService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	transactor ports.DBTransactor,
	welcomeBonus decimal.Decimal,
	currency string,
	log zerolog.Logger,
) *ProvisioningServiceImpl {
	return &ProvisioningServiceImpl{
		walletRepo:   walletRepo,
		txRepo:       txRepo,
		transactor:   transactor,
		welcomeBonus: welcomeBonus,
		currency:     currency,
		log:          log,
	}
}

// ProvisionWallet creates the user's wallet with the welcome bonus.
// The one-wallet-per-user unique constraint makes this idempotent: a
// concurrent or repeated call loses the insert race and gets the
// already provisioned wallet back, with no second bonus.
func (s *ProvisioningServiceImpl) ProvisionWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	now := time.Now().UTC()
	wallet := &domain.Wallet{
		ID:        uuid.New(),
		UserID:    userID,
		Balance:   s.welcomeBonus,
		Currency:  s.currency,
		CreatedAt: now,
		UpdatedAt: now,
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.walletRepo.Create(ctx, dbTx, wallet); err != nil {
		if errors.Is(err, ports.ErrDuplicateKey) {
			return s.existingWallet(ctx, userID)
		}
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	if s.welcomeBonus.IsPositive() {
		entry := &domain.Transaction{
			ID:          uuid.New(),
			WalletID:    wallet.ID,
			Type:        domain.TransactionTypeCharge,
			Amount:      s.welcomeBonus,
			Description: "Welcome bonus",
			CreatedAt:   now,
		}
		if err := s.txRepo.Create(ctx, dbTx, entry); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("create welcome bonus entry: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("user_id", userID.String()).
		Str("welcome_bonus", s.welcomeBonus.String()).
		Msg("wallet provisioned")

	return wallet, nil
}

func (s *ProvisioningServiceImpl) existingWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get existing wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return wallet, nil
}
