package postgres

import (
	"context"
	"errors"
	"fmt"

	"merchant-ledger/internal/core/domain"
	"merchant-ledger/internal/core/ports"
	"merchant-ledger/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const selectTransfers = `SELECT id, from_merchant_id, to_merchant_id, amount::text, currency, percent_fee::text, idempotency_key, archived, created, updated FROM transfers`

// TransferRepo implements ports.TransferRepository.
type TransferRepo struct {
	pool Pool
}

// NewTransferRepo creates a new TransferRepo.
func NewTransferRepo(pool Pool) *TransferRepo {
	return &TransferRepo{pool: pool}
}

// Create inserts the transfer row inside the mutation transaction. A
// duplicate idempotency key maps to TransferExists so the engine can fall
// back to returning the winning row.
func (r *TransferRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transfer) error {
	query := `INSERT INTO transfers (id, from_merchant_id, to_merchant_id, amount, currency, percent_fee, idempotency_key, archived, created, updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.FromMerchantID, t.ToMerchantID,
		t.Amount.StringFixed(domain.MoneyScale), t.Currency,
		t.PercentFee.StringFixed(domain.MoneyScale), t.IdempotencyKey,
		t.Archived, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ErrTransferExists(t.IdempotencyKey)
		}
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

// GetByIdempotencyKey fetches the transfer created under the given key,
// or nil if the key was never used.
func (r *TransferRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transfer, error) {
	where, args, err := Where(Eq("idempotency_key", key), Is("archived", false))
	if err != nil {
		return nil, fmt.Errorf("build transfer filter: %w", err)
	}

	t, err := scanTransfer(r.pool.QueryRow(ctx, selectTransfers+where, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

// List fetches transfers matching the filter, newest first.
func (r *TransferRepo) List(ctx context.Context, f ports.TransferFilter) ([]domain.Transfer, error) {
	conds := []Cond{Is("archived", false)}
	if f.FromMerchantID != nil {
		conds = append(conds, Eq("from_merchant_id", *f.FromMerchantID))
	}
	if f.ToMerchantID != nil {
		conds = append(conds, Eq("to_merchant_id", *f.ToMerchantID))
	}
	if f.Currency != nil {
		conds = append(conds, Eq("currency", *f.Currency))
	}

	where, args, err := Where(conds...)
	if err != nil {
		return nil, fmt.Errorf("build transfer filter: %w", err)
	}

	rows, err := r.pool.Query(ctx, selectTransfers+where+" ORDER BY created DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("query transfers: %w", err)
	}
	defer rows.Close()

	var transfers []domain.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfers: %w", err)
	}
	return transfers, nil
}

func scanTransfer(row rowScanner) (*domain.Transfer, error) {
	t := &domain.Transfer{}
	var amount, fee string
	if err := row.Scan(&t.ID, &t.FromMerchantID, &t.ToMerchantID, &amount, &t.Currency, &fee, &t.IdempotencyKey, &t.Archived, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan transfer: %w", err)
	}

	var err error
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse transfer amount: %w", err)
	}
	if t.PercentFee, err = decimal.NewFromString(fee); err != nil {
		return nil, fmt.Errorf("parse transfer percent_fee: %w", err)
	}
	return t, nil
}
