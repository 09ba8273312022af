package service

import (
	"context"
	"fmt"

	"merchant-ledger/internal/core/domain"
	"merchant-ledger/internal/core/ports"
	"merchant-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// BalanceServiceImpl implements ports.BalanceService.
type BalanceServiceImpl struct {
	merchantRepo ports.MerchantRepository
	balanceRepo  ports.BalanceRepository
	log          zerolog.Logger
}

// NewBalanceService creates a new BalanceServiceImpl.
func NewBalanceService(merchantRepo ports.MerchantRepository, balanceRepo ports.BalanceRepository, log zerolog.Logger) *BalanceServiceImpl {
	return &BalanceServiceImpl{
		merchantRepo: merchantRepo,
		balanceRepo:  balanceRepo,
		log:          log,
	}
}

// CreateBalance opens a balance in the given currency for an existing
// merchant, optionally seeded with an initial amount.
func (s *BalanceServiceImpl) CreateBalance(ctx context.Context, req ports.CreateBalanceRequest) (*domain.Balance, error) {
	if req.Currency == "" {
		return nil, apperror.Validation("currency must not be empty")
	}
	if req.InitialAmount.IsNegative() {
		return nil, apperror.Validation("amount must not be negative")
	}

	merchant, err := s.merchantRepo.GetByID(ctx, req.MerchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrMerchantNotFound()
	}

	balance := domain.NewBalance(merchant.ID, req.Currency, req.InitialAmount)
	if err := s.balanceRepo.Create(ctx, balance); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("balance_id", balance.ID.String()).
		Str("merchant_id", merchant.ID.String()).
		Str("currency", balance.Currency).
		Str("amount", balance.Amount.String()).
		Msg("balance created")

	return balance, nil
}

// GetBalances returns all balances held by the named merchant.
func (s *BalanceServiceImpl) GetBalances(ctx context.Context, merchantName string) ([]domain.Balance, error) {
	merchant, err := s.merchantRepo.GetByName(ctx, merchantName)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrMerchantNotFound()
	}

	balances, err := s.balanceRepo.ListByMerchantID(ctx, merchant.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list balances: %w", err))
	}
	return balances, nil
}
