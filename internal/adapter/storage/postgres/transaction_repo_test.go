package postgres

import (
	"context"
	"testing"
	"time"

	"wallet-ledger-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransaction(walletID uuid.UUID, txType domain.TransactionType) *domain.Transaction {
	return &domain.Transaction{
		ID:          uuid.New(),
		WalletID:    walletID,
		Type:        txType,
		Amount:      decimal.RequireFromString("25000.00"),
		Description: "wallet charge",
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func transactionColumnNames() []string {
	return []string{"id", "wallet_id", "transaction_type", "amount", "description", "created_at"}
}

func TestTransactionRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	entry := newTestTransaction(uuid.New(), domain.TransactionTypeCharge)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(entry.ID, entry.WalletID, entry.Type, entry.Amount.String(),
			entry.Description, entry.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, entry)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_ListRecent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	walletID := uuid.New()

	newer := newTestTransaction(walletID, domain.TransactionTypeTransferIn)
	older := newTestTransaction(walletID, domain.TransactionTypeCharge)
	older.CreatedAt = newer.CreatedAt.Add(-time.Minute)

	rows := pgxmock.NewRows(transactionColumnNames()).
		AddRow(newer.ID, newer.WalletID, newer.Type, newer.Amount.String(), newer.Description, newer.CreatedAt).
		AddRow(older.ID, older.WalletID, older.Type, older.Amount.String(), older.Description, older.CreatedAt)

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE wallet_id .+ ORDER BY created_at DESC").
		WithArgs(walletID, 10).
		WillReturnRows(rows)

	result, err := repo.ListRecent(context.Background(), walletID, 10)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, newer.ID, result[0].ID)
	assert.Equal(t, older.ID, result[1].ID)
	assert.True(t, newer.Amount.Equal(result[0].Amount))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_ListRecent_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	walletID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE wallet_id").
		WithArgs(walletID, 10).
		WillReturnRows(pgxmock.NewRows(transactionColumnNames()))

	result, err := repo.ListRecent(context.Background(), walletID, 10)
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}
