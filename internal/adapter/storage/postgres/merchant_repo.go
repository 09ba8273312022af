package postgres

import (
	"context"
	"errors"
	"fmt"

	"merchant-ledger/internal/core/domain"
	"merchant-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const selectMerchants = `SELECT id, name, percent_fee::text, archived, created, updated FROM merchants`

// MerchantRepo implements ports.MerchantRepository.
type MerchantRepo struct {
	pool Pool
}

// NewMerchantRepo creates a new MerchantRepo.
func NewMerchantRepo(pool Pool) *MerchantRepo {
	return &MerchantRepo{pool: pool}
}

// Create inserts a new merchant. A duplicate name maps to MerchantExists.
func (r *MerchantRepo) Create(ctx context.Context, m *domain.Merchant) error {
	query := `INSERT INTO merchants (id, name, percent_fee, archived, created, updated)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		m.ID, m.Name, m.PercentFee.StringFixed(domain.MoneyScale),
		m.Archived, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ErrMerchantExists(m.Name)
		}
		return fmt.Errorf("insert merchant: %w", err)
	}
	return nil
}

// GetByID fetches a non-archived merchant by its UUID.
func (r *MerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	where, args, err := Where(Eq("id", id), Is("archived", false))
	if err != nil {
		return nil, fmt.Errorf("build merchant filter: %w", err)
	}
	return r.fetchOne(ctx, selectMerchants+where, args)
}

// GetByName fetches a non-archived merchant by its display name.
func (r *MerchantRepo) GetByName(ctx context.Context, name string) (*domain.Merchant, error) {
	where, args, err := Where(Eq("name", name), Is("archived", false))
	if err != nil {
		return nil, fmt.Errorf("build merchant filter: %w", err)
	}
	return r.fetchOne(ctx, selectMerchants+where, args)
}

// GetByNames fetches non-archived merchants matching any of the given names
// in a single query. Missing names are simply absent from the result.
func (r *MerchantRepo) GetByNames(ctx context.Context, names []string) ([]domain.Merchant, error) {
	where, args, err := Where(In("name", names), Is("archived", false))
	if err != nil {
		return nil, fmt.Errorf("build merchant filter: %w", err)
	}

	rows, err := r.pool.Query(ctx, selectMerchants+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query merchants by names: %w", err)
	}
	defer rows.Close()

	var merchants []domain.Merchant
	for rows.Next() {
		m, err := scanMerchant(rows)
		if err != nil {
			return nil, err
		}
		merchants = append(merchants, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate merchants: %w", err)
	}
	return merchants, nil
}

func (r *MerchantRepo) fetchOne(ctx context.Context, query string, args []any) (*domain.Merchant, error) {
	m, err := scanMerchant(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMerchant(row rowScanner) (*domain.Merchant, error) {
	m := &domain.Merchant{}
	var fee string
	if err := row.Scan(&m.ID, &m.Name, &fee, &m.Archived, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan merchant: %w", err)
	}
	d, err := decimal.NewFromString(fee)
	if err != nil {
		return nil, fmt.Errorf("parse merchant percent_fee: %w", err)
	}
	m.PercentFee = d
	return m, nil
}
