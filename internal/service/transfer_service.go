package service

import (
	"context"
	"fmt"
	"time"

	"merchant-ledger/internal/core/domain"
	"merchant-ledger/internal/core/ports"
	"merchant-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// balanceLockKey names the distributed lock guarding one merchant balance.
func balanceLockKey(merchantName, currency string) string {
	return fmt.Sprintf("balance:%s:%s", merchantName, currency)
}

// TransferServiceImpl implements ports.TransferService.
type TransferServiceImpl struct {
	merchantRepo ports.MerchantRepository
	balanceRepo  ports.BalanceRepository
	transferRepo ports.TransferRepository
	transactor   ports.DBTransactor
	locker       ports.Locker
	lockTimeout  time.Duration
	log          zerolog.Logger
}

// NewTransferService creates a new TransferServiceImpl.
func NewTransferService(
	merchantRepo ports.MerchantRepository,
	balanceRepo ports.BalanceRepository,
	transferRepo ports.TransferRepository,
	transactor ports.DBTransactor,
	locker ports.Locker,
	lockTimeout time.Duration,
	log zerolog.Logger,
) *TransferServiceImpl {
	return &TransferServiceImpl{
		merchantRepo: merchantRepo,
		balanceRepo:  balanceRepo,
		transferRepo: transferRepo,
		transactor:   transactor,
		locker:       locker,
		lockTimeout:  lockTimeout,
		log:          log,
	}
}

// CreateTransfer moves funds between two merchant balances, deducting the
// percentage fee from the sender on top of the transferred amount. Both
// balances are guarded by distributed locks for the duration of the mutation,
// and the idempotency key makes retries return the original transfer.
func (s *TransferServiceImpl) CreateTransfer(ctx context.Context, req ports.CreateTransferRequest) (*domain.Transfer, error) {
	if req.FromMerchant == req.ToMerchant {
		return nil, apperror.ErrSelfTransfer()
	}
	if !req.Amount.IsPositive() {
		return nil, apperror.Validation("amount must be positive")
	}

	// Lock both balances before any read. Key order is canonical inside
	// AcquirePair, so opposite-direction transfers cannot deadlock.
	lease, err := s.locker.AcquirePair(ctx,
		balanceLockKey(req.FromMerchant, req.Currency),
		balanceLockKey(req.ToMerchant, req.Currency),
		s.lockTimeout,
	)
	if err != nil {
		return nil, err
	}

	// Once the locks are held, run to completion even if the caller goes
	// away. An abandoned half-applied transfer would be worse than a late
	// response.
	ctx = context.WithoutCancel(ctx)
	defer func() {
		if relErr := lease.Release(ctx); relErr != nil {
			s.log.Warn().Err(relErr).Msg("failed to release balance locks")
		}
	}()

	// Idempotency: a replayed key returns the original transfer untouched,
	// regardless of the parameters on the retry.
	existing, err := s.transferRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("idempotency check: %w", err))
	}
	if existing != nil {
		s.log.Info().
			Str("idempotency_key", req.IdempotencyKey).
			Str("transfer_id", existing.ID.String()).
			Msg("idempotency key replayed, returning original transfer")
		return existing, nil
	}

	from, to, err := s.resolveMerchants(ctx, req.FromMerchant, req.ToMerchant)
	if err != nil {
		return nil, err
	}

	srcBalance, dstBalance, err := s.resolveBalances(ctx, from.ID, to.ID, req.Currency)
	if err != nil {
		return nil, err
	}

	// The sender pays the amount plus the fee. Scale is only applied when
	// the new amounts are written back.
	debit := domain.ComputeDebit(req.Amount, from.PercentFee)
	if srcBalance.Amount.LessThan(debit) {
		return nil, apperror.ErrInsufficientFunds()
	}

	transfer := domain.NewTransfer(from.ID, to.ID, req.Amount, req.Currency, from.PercentFee, req.IdempotencyKey)

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// The receiving side gets a zero balance on first use.
	if dstBalance == nil {
		dstBalance = domain.NewBalance(to.ID, req.Currency, decimal.Zero)
		if err := s.balanceRepo.CreateTx(ctx, dbTx, dstBalance); err != nil {
			return nil, err
		}
	}

	if err := s.balanceRepo.UpdateAmount(ctx, dbTx, dstBalance.ID, dstBalance.Amount.Add(req.Amount)); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit destination balance: %w", err))
	}
	if err := s.balanceRepo.UpdateAmount(ctx, dbTx, srcBalance.ID, srcBalance.Amount.Sub(debit)); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("debit source balance: %w", err))
	}

	if err := s.transferRepo.Create(ctx, dbTx, transfer); err != nil {
		if apperror.HasCode(err, apperror.CodeTransferExists) {
			// Lost an idempotency race to a concurrent request. The insert
			// conflict rolls this attempt back; return the winning row.
			winner, lookupErr := s.transferRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
			if lookupErr != nil {
				return nil, apperror.InternalError(fmt.Errorf("fetch winning transfer: %w", lookupErr))
			}
			if winner == nil {
				return nil, apperror.InternalError(fmt.Errorf("transfer for key %q missing after conflict", req.IdempotencyKey))
			}
			return winner, nil
		}
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("transfer_id", transfer.ID.String()).
		Str("from", req.FromMerchant).
		Str("to", req.ToMerchant).
		Str("amount", req.Amount.String()).
		Str("debit", debit.String()).
		Str("currency", req.Currency).
		Msg("transfer completed")

	return transfer, nil
}

// ListTransfers returns transfers matching the given merchant names and
// currency. Empty arguments are ignored.
func (s *TransferServiceImpl) ListTransfers(ctx context.Context, fromMerchant, toMerchant, currency string) ([]domain.Transfer, error) {
	var filter ports.TransferFilter

	if fromMerchant != "" {
		m, err := s.lookupMerchant(ctx, fromMerchant)
		if err != nil {
			return nil, err
		}
		filter.FromMerchantID = &m.ID
	}
	if toMerchant != "" {
		m, err := s.lookupMerchant(ctx, toMerchant)
		if err != nil {
			return nil, err
		}
		filter.ToMerchantID = &m.ID
	}
	if currency != "" {
		filter.Currency = &currency
	}

	transfers, err := s.transferRepo.List(ctx, filter)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list transfers: %w", err))
	}
	return transfers, nil
}

func (s *TransferServiceImpl) lookupMerchant(ctx context.Context, name string) (*domain.Merchant, error) {
	m, err := s.merchantRepo.GetByName(ctx, name)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get merchant %q: %w", name, err))
	}
	if m == nil {
		return nil, apperror.ErrMerchantNotFound()
	}
	return m, nil
}

// resolveMerchants loads both sides of a transfer with a single query.
func (s *TransferServiceImpl) resolveMerchants(ctx context.Context, fromName, toName string) (from, to *domain.Merchant, err error) {
	merchants, err := s.merchantRepo.GetByNames(ctx, []string{fromName, toName})
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("get merchants: %w", err))
	}
	for i := range merchants {
		switch merchants[i].Name {
		case fromName:
			from = &merchants[i]
		case toName:
			to = &merchants[i]
		}
	}
	if from == nil || to == nil {
		return nil, nil, apperror.ErrMerchantNotFound()
	}
	return from, to, nil
}

// resolveBalances loads both balances with a single query. The source balance
// must exist; a nil destination balance means it will be lazily created.
func (s *TransferServiceImpl) resolveBalances(ctx context.Context, fromID, toID uuid.UUID, currency string) (src, dst *domain.Balance, err error) {
	balances, err := s.balanceRepo.GetByMerchantIDs(ctx, []uuid.UUID{fromID, toID}, currency)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("get balances: %w", err))
	}
	for i := range balances {
		switch balances[i].MerchantID {
		case fromID:
			src = &balances[i]
		case toID:
			dst = &balances[i]
		}
	}
	if src == nil {
		return nil, nil, apperror.ErrBalanceNotFound(currency)
	}
	return src, dst, nil
}
