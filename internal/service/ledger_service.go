package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"wallet-ledger-service/internal/core/domain"
	"wallet-ledger-service/internal/core/ports"
	"wallet-ledger-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LedgerServiceImpl implements ports.LedgerService. It is the only code
// path that writes balances: every mutation locks the wallet row with
// SELECT ... FOR UPDATE and records a ledger entry in the same database
// transaction.
type LedgerServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	transactor ports.DBTransactor
	txLimit    int
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	transactor ports.DBTransactor,
	recentTxLimit int,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		transactor: transactor,
		txLimit:    recentTxLimit,
		log:        log,
	}
}

// Charge credits the user's wallet and records a CHARGE entry.
func (s *LedgerServiceImpl) Charge(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*domain.Wallet, error) {
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByUserIDForUpdate(ctx, dbTx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	wallet, err = s.credit(ctx, dbTx, wallet, amount, domain.TransactionTypeCharge, description)
	if err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("amount", amount.String()).
		Msg("wallet charged")

	return wallet, nil
}

// ChargeTx credits a wallet inside the caller's transaction. The wallet
// row must already be locked or lockable by the caller's transaction;
// this method takes the lock itself via GetByIDForUpdate.
func (s *LedgerServiceImpl) ChargeTx(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal, description string) (*domain.Wallet, error) {
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, tx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	return s.credit(ctx, tx, wallet, amount, domain.TransactionTypeCharge, description)
}

// Transfer atomically moves funds between two wallets. Both rows are
// locked in ascending wallet-ID order so two opposing transfers cannot
// deadlock each other.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, senderUserID uuid.UUID, receiverWalletID uuid.UUID, amount decimal.Decimal) (*domain.Wallet, error) {
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	senderWallet, err := s.walletRepo.GetByUserID(ctx, senderUserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get sender wallet: %w", err))
	}
	if senderWallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	if senderWallet.ID == receiverWalletID {
		return nil, apperror.ErrSelfTransfer()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock order: ascending wallet ID, regardless of direction.
	first, second := senderWallet.ID, receiverWalletID
	if bytes.Compare(second[:], first[:]) < 0 {
		first, second = second, first
	}

	locked := make(map[uuid.UUID]*domain.Wallet, 2)
	for _, id := range []uuid.UUID{first, second} {
		w, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, id)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
		}
		if w == nil {
			return nil, apperror.ErrNotFound("wallet")
		}
		locked[id] = w
	}

	sender := locked[senderWallet.ID]
	receiver := locked[receiverWalletID]

	if !sender.CanDebit(amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	outDesc := fmt.Sprintf("Transfer to wallet %s", receiver.ID)
	inDesc := fmt.Sprintf("Transfer from wallet %s", sender.ID)

	sender, err = s.debit(ctx, dbTx, sender, amount, domain.TransactionTypeTransferOut, outDesc)
	if err != nil {
		return nil, err
	}
	if _, err = s.credit(ctx, dbTx, receiver, amount, domain.TransactionTypeTransferIn, inDesc); err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("sender_wallet_id", sender.ID.String()).
		Str("receiver_wallet_id", receiver.ID.String()).
		Str("amount", amount.String()).
		Msg("transfer completed")

	return sender, nil
}

// Settle debits the user's wallet and records a SETTLEMENT entry.
func (s *LedgerServiceImpl) Settle(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*domain.Wallet, error) {
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByUserIDForUpdate(ctx, dbTx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	if !wallet.CanDebit(amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	wallet, err = s.debit(ctx, dbTx, wallet, amount, domain.TransactionTypeSettlement, description)
	if err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("amount", amount.String()).
		Msg("settlement completed")

	return wallet, nil
}

// GetWallet returns the user's wallet without locking.
func (s *LedgerServiceImpl) GetWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return wallet, nil
}

// ListRecentTransactions returns the newest ledger entries for the
// user's wallet, most recent first. The limit is clamped to the
// configured cap.
func (s *LedgerServiceImpl) ListRecentTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Transaction, error) {
	if limit <= 0 || limit > s.txLimit {
		limit = s.txLimit
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	txns, err := s.txRepo.ListRecent(ctx, wallet.ID, limit)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return txns, nil
}

// credit applies a balance increase and its ledger entry. The wallet
// must already be locked by dbTx.
func (s *LedgerServiceImpl) credit(ctx context.Context, dbTx pgx.Tx, wallet *domain.Wallet, amount decimal.Decimal, txType domain.TransactionType, description string) (*domain.Wallet, error) {
	newBalance := wallet.Balance.Add(amount)
	return s.apply(ctx, dbTx, wallet, newBalance, amount, txType, description)
}

// debit applies a balance decrease and its ledger entry. The caller is
// responsible for the sufficient-funds check; the wallet must already be
// locked by dbTx.
func (s *LedgerServiceImpl) debit(ctx context.Context, dbTx pgx.Tx, wallet *domain.Wallet, amount decimal.Decimal, txType domain.TransactionType, description string) (*domain.Wallet, error) {
	newBalance := wallet.Balance.Sub(amount)
	return s.apply(ctx, dbTx, wallet, newBalance, amount, txType, description)
}

func (s *LedgerServiceImpl) apply(ctx context.Context, dbTx pgx.Tx, wallet *domain.Wallet, newBalance, amount decimal.Decimal, txType domain.TransactionType, description string) (*domain.Wallet, error) {
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, newBalance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	entry := &domain.Transaction{
		ID:          uuid.New(),
		WalletID:    wallet.ID,
		Type:        txType,
		Amount:      amount,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.txRepo.Create(ctx, dbTx, entry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	updated := *wallet
	updated.Balance = newBalance
	updated.UpdatedAt = entry.CreatedAt
	return &updated, nil
}
