package ports

import (
	"context"

	"merchant-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=repositories.go -destination=mocks/repositories.go -package=mocks

// MerchantRepository defines persistence operations for merchants.
// All reads exclude archived rows.
type MerchantRepository interface {
	Create(ctx context.Context, merchant *domain.Merchant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	GetByName(ctx context.Context, name string) (*domain.Merchant, error)
	// GetByNames is a batched lookup so the transfer engine resolves both
	// sides of a transfer with one query.
	GetByNames(ctx context.Context, names []string) ([]domain.Merchant, error)
}

// BalanceRepository defines persistence operations for balances.
// Methods accepting pgx.Tx run inside the engine's atomic mutation scope.
type BalanceRepository interface {
	Create(ctx context.Context, balance *domain.Balance) error
	CreateTx(ctx context.Context, tx pgx.Tx, balance *domain.Balance) error
	GetByMerchantID(ctx context.Context, merchantID uuid.UUID, currency string) (*domain.Balance, error)
	// GetByMerchantIDs is a batched lookup for both sides of a transfer.
	GetByMerchantIDs(ctx context.Context, merchantIDs []uuid.UUID, currency string) ([]domain.Balance, error)
	ListByMerchantID(ctx context.Context, merchantID uuid.UUID) ([]domain.Balance, error)
	UpdateAmount(ctx context.Context, tx pgx.Tx, balanceID uuid.UUID, amount decimal.Decimal) error
}

// TransferFilter narrows a transfer listing. Nil fields are ignored.
type TransferFilter struct {
	FromMerchantID *uuid.UUID
	ToMerchantID   *uuid.UUID
	Currency       *string
}

// TransferRepository defines persistence operations for transfer records.
type TransferRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transfer *domain.Transfer) error
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transfer, error)
	List(ctx context.Context, filter TransferFilter) ([]domain.Transfer, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
