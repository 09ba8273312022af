package postgres

import (
	"context"
	"errors"
	"fmt"

	"merchant-ledger/internal/core/domain"
	"merchant-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const selectBalances = `SELECT id, merchant_id, currency, amount::text, archived, created, updated FROM balances`

// BalanceRepo implements ports.BalanceRepository.
type BalanceRepo struct {
	pool Pool
}

// NewBalanceRepo creates a new BalanceRepo.
func NewBalanceRepo(pool Pool) *BalanceRepo {
	return &BalanceRepo{pool: pool}
}

// Create inserts a new balance outside a transaction (explicit creation).
// Constraint violations map to the business taxonomy: duplicate
// (merchant, currency) becomes BalanceExists, unknown merchant becomes
// MerchantNotFound.
func (r *BalanceRepo) Create(ctx context.Context, b *domain.Balance) error {
	return r.create(ctx, r.pool, b)
}

// CreateTx inserts a new balance inside the engine's mutation transaction
// (lazy destination creation).
func (r *BalanceRepo) CreateTx(ctx context.Context, tx pgx.Tx, b *domain.Balance) error {
	return r.create(ctx, tx, b)
}

// execer is satisfied by both Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func (r *BalanceRepo) create(ctx context.Context, ex execer, b *domain.Balance) error {
	query := `INSERT INTO balances (id, merchant_id, currency, amount, archived, created, updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := ex.Exec(ctx, query,
		b.ID, b.MerchantID, b.Currency, b.Amount.StringFixed(domain.MoneyScale),
		b.Archived, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ErrBalanceExists()
		}
		if isForeignKeyViolation(err) {
			return apperror.ErrMerchantNotFound()
		}
		return fmt.Errorf("insert balance: %w", err)
	}
	return nil
}

// GetByMerchantID fetches the non-archived balance for a (merchant, currency) pair.
func (r *BalanceRepo) GetByMerchantID(ctx context.Context, merchantID uuid.UUID, currency string) (*domain.Balance, error) {
	where, args, err := Where(Eq("merchant_id", merchantID), Eq("currency", currency), Is("archived", false))
	if err != nil {
		return nil, fmt.Errorf("build balance filter: %w", err)
	}

	b, err := scanBalance(r.pool.QueryRow(ctx, selectBalances+where, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

// GetByMerchantIDs fetches non-archived balances for the given merchants in
// one currency with a single query.
func (r *BalanceRepo) GetByMerchantIDs(ctx context.Context, merchantIDs []uuid.UUID, currency string) ([]domain.Balance, error) {
	where, args, err := Where(In("merchant_id", merchantIDs), Eq("currency", currency), Is("archived", false))
	if err != nil {
		return nil, fmt.Errorf("build balance filter: %w", err)
	}
	return r.fetchMany(ctx, selectBalances+where, args)
}

// ListByMerchantID fetches all non-archived balances of one merchant.
func (r *BalanceRepo) ListByMerchantID(ctx context.Context, merchantID uuid.UUID) ([]domain.Balance, error) {
	where, args, err := Where(Eq("merchant_id", merchantID), Is("archived", false))
	if err != nil {
		return nil, fmt.Errorf("build balance filter: %w", err)
	}
	return r.fetchMany(ctx, selectBalances+where+" ORDER BY currency", args)
}

// UpdateAmount sets a balance amount inside the mutation transaction.
// The amount is rounded to the fixed money scale here, at the persistence
// boundary, and nowhere earlier.
func (r *BalanceRepo) UpdateAmount(ctx context.Context, tx pgx.Tx, balanceID uuid.UUID, amount decimal.Decimal) error {
	query := `UPDATE balances SET amount = $1, updated = now() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, amount.StringFixed(domain.MoneyScale), balanceID)
	if err != nil {
		return fmt.Errorf("update balance amount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("balance not found: %s", balanceID)
	}
	return nil
}

func (r *BalanceRepo) fetchMany(ctx context.Context, query string, args []any) ([]domain.Balance, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query balances: %w", err)
	}
	defer rows.Close()

	var balances []domain.Balance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		balances = append(balances, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balances: %w", err)
	}
	return balances, nil
}

func scanBalance(row rowScanner) (*domain.Balance, error) {
	b := &domain.Balance{}
	var amount string
	if err := row.Scan(&b.ID, &b.MerchantID, &b.Currency, &amount, &b.Archived, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan balance: %w", err)
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse balance amount: %w", err)
	}
	b.Amount = d
	return b, nil
}
