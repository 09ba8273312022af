package integration

import (
	"context"
	"sync"

	"merchant-ledger/internal/core/domain"
	"merchant-ledger/internal/core/ports"
	"merchant-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// In-memory repositories backing the integration stack. They reproduce the
// constraint behavior of the SQL layer: unique merchant names, one balance
// per (merchant, currency), unique idempotency keys, and amount rounding at
// the persistence boundary.

// --- Merchants ---

type inMemoryMerchantRepo struct {
	mu        sync.RWMutex
	merchants map[uuid.UUID]domain.Merchant
}

func newInMemoryMerchantRepo() *inMemoryMerchantRepo {
	return &inMemoryMerchantRepo{merchants: make(map[uuid.UUID]domain.Merchant)}
}

func (r *inMemoryMerchantRepo) Create(_ context.Context, m *domain.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.merchants {
		if existing.Name == m.Name && !existing.Archived {
			return apperror.ErrMerchantExists(m.Name)
		}
	}
	r.merchants[m.ID] = *m
	return nil
}

func (r *inMemoryMerchantRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.merchants[id]
	if !ok || m.Archived {
		return nil, nil
	}
	return &m, nil
}

func (r *inMemoryMerchantRepo) GetByName(_ context.Context, name string) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.merchants {
		if m.Name == name && !m.Archived {
			out := m
			return &out, nil
		}
	}
	return nil, nil
}

func (r *inMemoryMerchantRepo) GetByNames(_ context.Context, names []string) ([]domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []domain.Merchant
	for _, m := range r.merchants {
		if wanted[m.Name] && !m.Archived {
			out = append(out, m)
		}
	}
	return out, nil
}

// --- Balances ---

type inMemoryBalanceRepo struct {
	mu       sync.RWMutex
	balances map[uuid.UUID]domain.Balance
}

func newInMemoryBalanceRepo() *inMemoryBalanceRepo {
	return &inMemoryBalanceRepo{balances: make(map[uuid.UUID]domain.Balance)}
}

func (r *inMemoryBalanceRepo) create(b *domain.Balance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.balances {
		if existing.MerchantID == b.MerchantID && existing.Currency == b.Currency && !existing.Archived {
			return apperror.ErrBalanceExists()
		}
	}
	stored := *b
	stored.Amount = stored.Amount.Round(domain.MoneyScale)
	r.balances[b.ID] = stored
	return nil
}

func (r *inMemoryBalanceRepo) Create(_ context.Context, b *domain.Balance) error {
	return r.create(b)
}

func (r *inMemoryBalanceRepo) CreateTx(_ context.Context, _ pgx.Tx, b *domain.Balance) error {
	return r.create(b)
}

func (r *inMemoryBalanceRepo) GetByMerchantID(_ context.Context, merchantID uuid.UUID, currency string) (*domain.Balance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.balances {
		if b.MerchantID == merchantID && b.Currency == currency && !b.Archived {
			out := b
			return &out, nil
		}
	}
	return nil, nil
}

func (r *inMemoryBalanceRepo) GetByMerchantIDs(_ context.Context, merchantIDs []uuid.UUID, currency string) ([]domain.Balance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wanted := make(map[uuid.UUID]bool, len(merchantIDs))
	for _, id := range merchantIDs {
		wanted[id] = true
	}
	var out []domain.Balance
	for _, b := range r.balances {
		if wanted[b.MerchantID] && b.Currency == currency && !b.Archived {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *inMemoryBalanceRepo) ListByMerchantID(_ context.Context, merchantID uuid.UUID) ([]domain.Balance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Balance
	for _, b := range r.balances {
		if b.MerchantID == merchantID && !b.Archived {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *inMemoryBalanceRepo) UpdateAmount(_ context.Context, _ pgx.Tx, balanceID uuid.UUID, amount decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.balances[balanceID]
	if !ok {
		return apperror.ErrBalanceNotFound("")
	}
	b.Amount = amount.Round(domain.MoneyScale)
	r.balances[balanceID] = b
	return nil
}

// --- Transfers ---

type inMemoryTransferRepo struct {
	mu        sync.RWMutex
	transfers []domain.Transfer
}

func newInMemoryTransferRepo() *inMemoryTransferRepo {
	return &inMemoryTransferRepo{}
}

func (r *inMemoryTransferRepo) Create(_ context.Context, _ pgx.Tx, t *domain.Transfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.transfers {
		if r.transfers[i].IdempotencyKey == t.IdempotencyKey {
			return apperror.ErrTransferExists(t.IdempotencyKey)
		}
	}
	r.transfers = append(r.transfers, *t)
	return nil
}

func (r *inMemoryTransferRepo) GetByIdempotencyKey(_ context.Context, key string) (*domain.Transfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.transfers {
		if r.transfers[i].IdempotencyKey == key && !r.transfers[i].Archived {
			out := r.transfers[i]
			return &out, nil
		}
	}
	return nil, nil
}

func (r *inMemoryTransferRepo) List(_ context.Context, f ports.TransferFilter) ([]domain.Transfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Transfer
	for i := len(r.transfers) - 1; i >= 0; i-- {
		t := r.transfers[i]
		if t.Archived {
			continue
		}
		if f.FromMerchantID != nil && t.FromMerchantID != *f.FromMerchantID {
			continue
		}
		if f.ToMerchantID != nil && t.ToMerchantID != *f.ToMerchantID {
			continue
		}
		if f.Currency != nil && t.Currency != *f.Currency {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// --- Transactor ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(_ context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx satisfies pgx.Tx; the in-memory repos apply writes immediately.
type noopTx struct{}

func (t *noopTx) Begin(_ context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(_ context.Context) error          { return nil }
func (t *noopTx) Rollback(_ context.Context) error        { return nil }
func (t *noopTx) CopyFrom(_ context.Context, _ pgx.Identifier, _ []string, _ pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(_ context.Context, _ *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                             { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(_ context.Context, _, _ string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *noopTx) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
