package postgres

import (
	"context"
	"testing"
	"time"

	"merchant-ledger/internal/core/domain"
	"merchant-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMerchant(t *testing.T) *domain.Merchant {
	t.Helper()
	fee, err := decimal.NewFromString("2.0")
	require.NoError(t, err)
	return &domain.Merchant{
		ID:         uuid.New(),
		Name:       "alice",
		PercentFee: fee,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
		UpdatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

func merchantColumns() []string {
	return []string{"id", "name", "percent_fee", "archived", "created", "updated"}
}

func merchantRow(m *domain.Merchant) *pgxmock.Rows {
	return pgxmock.NewRows(merchantColumns()).AddRow(
		m.ID, m.Name, m.PercentFee.StringFixed(domain.MoneyScale),
		m.Archived, m.CreatedAt, m.UpdatedAt,
	)
}

func TestMerchantRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewMerchantRepo(mock)
	m := newTestMerchant(t)

	mock.ExpectExec("INSERT INTO merchants").
		WithArgs(m.ID, m.Name, "2.00000000", m.Archived, m.CreatedAt, m.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), m)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMerchantRepo_Create_DuplicateName(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewMerchantRepo(mock)
	m := newTestMerchant(t)

	mock.ExpectExec("INSERT INTO merchants").
		WithArgs(m.ID, m.Name, "2.00000000", m.Archived, m.CreatedAt, m.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

	err = repo.Create(context.Background(), m)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeMerchantExists))
}

func TestMerchantRepo_GetByName(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewMerchantRepo(mock)
	m := newTestMerchant(t)

	mock.ExpectQuery("SELECT .+ FROM merchants WHERE name").
		WithArgs(m.Name).
		WillReturnRows(merchantRow(m))

	result, err := repo.GetByName(context.Background(), m.Name)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, m.ID, result.ID)
	assert.True(t, m.PercentFee.Equal(result.PercentFee))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMerchantRepo_GetByName_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewMerchantRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM merchants WHERE name").
		WithArgs("nobody").
		WillReturnRows(pgxmock.NewRows(merchantColumns()))

	result, err := repo.GetByName(context.Background(), "nobody")
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestMerchantRepo_GetByNames_Batched(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewMerchantRepo(mock)
	alice := newTestMerchant(t)
	bob := newTestMerchant(t)
	bob.Name = "bob"

	rows := merchantRow(alice).AddRow(
		bob.ID, bob.Name, bob.PercentFee.StringFixed(domain.MoneyScale),
		bob.Archived, bob.CreatedAt, bob.UpdatedAt,
	)

	mock.ExpectQuery(`SELECT .+ FROM merchants WHERE name IN \(\$1, \$2\)`).
		WithArgs("alice", "bob").
		WillReturnRows(rows)

	result, err := repo.GetByNames(context.Background(), []string{"alice", "bob"})
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "alice", result[0].Name)
	assert.Equal(t, "bob", result[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMerchantRepo_GetByNames_PartialMatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewMerchantRepo(mock)
	alice := newTestMerchant(t)

	mock.ExpectQuery(`SELECT .+ FROM merchants WHERE name IN`).
		WithArgs("alice", "ghost").
		WillReturnRows(merchantRow(alice))

	result, err := repo.GetByNames(context.Background(), []string{"alice", "ghost"})
	require.NoError(t, err)
	assert.Len(t, result, 1)
}

func TestMerchantRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewMerchantRepo(mock)
	m := newTestMerchant(t)

	mock.ExpectQuery("SELECT .+ FROM merchants WHERE id").
		WithArgs(m.ID).
		WillReturnRows(merchantRow(m))

	result, err := repo.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, m.Name, result.Name)
}
