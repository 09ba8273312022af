package postgres

import (
	"context"
	"testing"
	"time"

	"merchant-ledger/internal/core/domain"
	"merchant-ledger/internal/core/ports"
	"merchant-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransfer(t *testing.T) *domain.Transfer {
	t.Helper()
	amount, err := decimal.NewFromString("0.1")
	require.NoError(t, err)
	fee, err := decimal.NewFromString("2.0")
	require.NoError(t, err)
	return &domain.Transfer{
		ID:             uuid.New(),
		FromMerchantID: uuid.New(),
		ToMerchantID:   uuid.New(),
		Amount:         amount,
		Currency:       "BTC",
		PercentFee:     fee,
		IdempotencyKey: "key-1",
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
		UpdatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
}

func transferColumns() []string {
	return []string{"id", "from_merchant_id", "to_merchant_id", "amount", "currency", "percent_fee", "idempotency_key", "archived", "created", "updated"}
}

func transferRow(tr *domain.Transfer) *pgxmock.Rows {
	return pgxmock.NewRows(transferColumns()).AddRow(
		tr.ID, tr.FromMerchantID, tr.ToMerchantID,
		tr.Amount.StringFixed(domain.MoneyScale), tr.Currency,
		tr.PercentFee.StringFixed(domain.MoneyScale), tr.IdempotencyKey,
		tr.Archived, tr.CreatedAt, tr.UpdatedAt,
	)
}

func TestTransferRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	tr := newTestTransfer(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transfers").
		WithArgs(tr.ID, tr.FromMerchantID, tr.ToMerchantID,
			"0.10000000", "BTC", "2.00000000", "key-1",
			tr.Archived, tr.CreatedAt, tr.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	require.NoError(t, repo.Create(context.Background(), tx, tr))
	require.NoError(t, tx.Commit(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepo_Create_DuplicateKey(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	tr := newTestTransfer(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transfers").
		WithArgs(tr.ID, tr.FromMerchantID, tr.ToMerchantID,
			"0.10000000", "BTC", "2.00000000", "key-1",
			tr.Archived, tr.CreatedAt, tr.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, tr)
	assert.True(t, apperror.HasCode(err, apperror.CodeTransferExists))
}

func TestTransferRepo_GetByIdempotencyKey(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	tr := newTestTransfer(t)

	mock.ExpectQuery("SELECT .+ FROM transfers WHERE idempotency_key").
		WithArgs("key-1").
		WillReturnRows(transferRow(tr))

	result, err := repo.GetByIdempotencyKey(context.Background(), "key-1")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, tr.ID, result.ID)
	assert.True(t, tr.Amount.Equal(result.Amount))
	assert.True(t, tr.PercentFee.Equal(result.PercentFee))
}

func TestTransferRepo_GetByIdempotencyKey_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM transfers WHERE idempotency_key").
		WithArgs("fresh-key").
		WillReturnRows(pgxmock.NewRows(transferColumns()))

	result, err := repo.GetByIdempotencyKey(context.Background(), "fresh-key")
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestTransferRepo_List_Unfiltered(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	tr := newTestTransfer(t)

	mock.ExpectQuery("SELECT .+ FROM transfers WHERE archived IS FALSE ORDER BY created DESC").
		WillReturnRows(transferRow(tr))

	result, err := repo.List(context.Background(), ports.TransferFilter{})
	require.NoError(t, err)
	assert.Len(t, result, 1)
}

func TestTransferRepo_List_AllFilters(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransferRepo(mock)
	tr := newTestTransfer(t)
	currency := "BTC"

	mock.ExpectQuery(`SELECT .+ FROM transfers WHERE archived IS FALSE AND from_merchant_id = \$1 AND to_merchant_id = \$2 AND currency = \$3`).
		WithArgs(tr.FromMerchantID, tr.ToMerchantID, currency).
		WillReturnRows(transferRow(tr))

	result, err := repo.List(context.Background(), ports.TransferFilter{
		FromMerchantID: &tr.FromMerchantID,
		ToMerchantID:   &tr.ToMerchantID,
		Currency:       &currency,
	})
	require.NoError(t, err)
	assert.Len(t, result, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
