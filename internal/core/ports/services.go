package ports

import (
	"context"
	"time"

	"merchant-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=services.go -destination=mocks/services.go -package=mocks

// Lease is a held distributed lock. Release is safe to call once; the
// underlying lease also expires on its own TTL if the holder dies.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker provides named, timeout-bounded mutual-exclusion leases visible
// across all process instances.
type Locker interface {
	// Acquire blocks up to timeout waiting for the named lease.
	Acquire(ctx context.Context, key string, timeout time.Duration) (Lease, error)
	// AcquirePair acquires two leases in lexicographic key order regardless
	// of argument order, so opposite-direction callers cannot deadlock.
	AcquirePair(ctx context.Context, keyA, keyB string, timeout time.Duration) (Lease, error)
}

// CreateTransferRequest carries the parameters of a transfer submission.
type CreateTransferRequest struct {
	FromMerchant   string
	ToMerchant     string
	Amount         decimal.Decimal
	Currency       string
	IdempotencyKey string
}

// TransferService is the transfer engine.
type TransferService interface {
	CreateTransfer(ctx context.Context, req CreateTransferRequest) (*domain.Transfer, error)
	ListTransfers(ctx context.Context, fromMerchant, toMerchant, currency string) ([]domain.Transfer, error)
}

// CreateMerchantRequest carries the parameters of merchant creation.
type CreateMerchantRequest struct {
	Name       string
	PercentFee decimal.Decimal
}

// MerchantService manages merchant registration.
type MerchantService interface {
	CreateMerchant(ctx context.Context, req CreateMerchantRequest) (*domain.Merchant, error)
}

// CreateBalanceRequest carries the parameters of explicit balance creation.
type CreateBalanceRequest struct {
	MerchantID    uuid.UUID
	Currency      string
	InitialAmount decimal.Decimal
}

// BalanceService manages merchant balances outside the transfer path.
type BalanceService interface {
	CreateBalance(ctx context.Context, req CreateBalanceRequest) (*domain.Balance, error)
	GetBalances(ctx context.Context, merchantName string) ([]domain.Balance, error)
}
