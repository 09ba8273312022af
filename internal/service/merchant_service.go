package service

import (
	"context"
	"strings"

	"merchant-ledger/internal/core/domain"
	"merchant-ledger/internal/core/ports"
	"merchant-ledger/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var maxPercentFee = decimal.NewFromInt(100)

// MerchantServiceImpl implements ports.MerchantService.
type MerchantServiceImpl struct {
	merchantRepo ports.MerchantRepository
	log          zerolog.Logger
}

// NewMerchantService creates a new MerchantServiceImpl.
func NewMerchantService(merchantRepo ports.MerchantRepository, log zerolog.Logger) *MerchantServiceImpl {
	return &MerchantServiceImpl{merchantRepo: merchantRepo, log: log}
}

// CreateMerchant registers a new merchant with its fee percentage.
func (s *MerchantServiceImpl) CreateMerchant(ctx context.Context, req ports.CreateMerchantRequest) (*domain.Merchant, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("merchant name must not be empty")
	}
	if !req.PercentFee.IsPositive() || req.PercentFee.GreaterThan(maxPercentFee) {
		return nil, apperror.Validation("percent_fee must be greater than 0 and at most 100")
	}

	merchant := domain.NewMerchant(name, req.PercentFee)
	if err := s.merchantRepo.Create(ctx, merchant); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("merchant_id", merchant.ID.String()).
		Str("name", merchant.Name).
		Str("percent_fee", merchant.PercentFee.String()).
		Msg("merchant created")

	return merchant, nil
}
