package dto

import (
	"merchant-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

// CreateMerchantRequest is the request body for merchant registration.
type CreateMerchantRequest struct {
	Name       string `json:"name" binding:"required,min=1,max=100"`
	PercentFee string `json:"percent_fee" binding:"required,money"`
}

// CreateBalanceRequest is the request body for opening a balance.
type CreateBalanceRequest struct {
	MerchantID    string `json:"merchant_id" binding:"required,uuid"`
	Currency      string `json:"currency" binding:"required,min=1,max=10"`
	InitialAmount string `json:"initial_amount" binding:"required,money"`
}

// CreateTransferRequest is the request body for a transfer. The idempotency
// key travels in the Idempotency-Key header, not the body.
type CreateTransferRequest struct {
	FromMerchant string `json:"from_merchant" binding:"required,min=1,max=100"`
	ToMerchant   string `json:"to_merchant" binding:"required,min=1,max=100"`
	Amount       string `json:"amount" binding:"required,money"`
	Currency     string `json:"currency" binding:"required,min=1,max=10"`
}

// MerchantResponse is the response body for a merchant.
type MerchantResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PercentFee string `json:"percent_fee"`
	Created    string `json:"created"`
	Updated    string `json:"updated"`
}

// BalanceResponse is the response body for a balance. Amounts are rendered
// with a fixed scale so clients never see float noise.
type BalanceResponse struct {
	ID         string `json:"id"`
	MerchantID string `json:"merchant_id"`
	Currency   string `json:"currency"`
	Amount     string `json:"amount"`
	Created    string `json:"created"`
	Updated    string `json:"updated"`
}

// TransferResponse is the response body for a transfer.
type TransferResponse struct {
	ID             string `json:"id"`
	FromMerchantID string `json:"from_merchant_id"`
	ToMerchantID   string `json:"to_merchant_id"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	PercentFee     string `json:"percent_fee"`
	IdempotencyKey string `json:"idempotency_key"`
	Created        string `json:"created"`
	Updated        string `json:"updated"`
}

const timeFormat = "2006-01-02T15:04:05.999999Z07:00"

func money(d decimal.Decimal) string {
	return d.StringFixed(domain.MoneyScale)
}

// NewMerchantResponse maps a merchant to its API representation.
func NewMerchantResponse(m *domain.Merchant) MerchantResponse {
	return MerchantResponse{
		ID:         m.ID.String(),
		Name:       m.Name,
		PercentFee: money(m.PercentFee),
		Created:    m.CreatedAt.Format(timeFormat),
		Updated:    m.UpdatedAt.Format(timeFormat),
	}
}

// NewBalanceResponse maps a balance to its API representation.
func NewBalanceResponse(b *domain.Balance) BalanceResponse {
	return BalanceResponse{
		ID:         b.ID.String(),
		MerchantID: b.MerchantID.String(),
		Currency:   b.Currency,
		Amount:     money(b.Amount),
		Created:    b.CreatedAt.Format(timeFormat),
		Updated:    b.UpdatedAt.Format(timeFormat),
	}
}

// NewBalanceResponses maps a balance slice, never returning nil.
func NewBalanceResponses(balances []domain.Balance) []BalanceResponse {
	out := make([]BalanceResponse, 0, len(balances))
	for i := range balances {
		out = append(out, NewBalanceResponse(&balances[i]))
	}
	return out
}

// NewTransferResponse maps a transfer to its API representation.
func NewTransferResponse(t *domain.Transfer) TransferResponse {
	return TransferResponse{
		ID:             t.ID.String(),
		FromMerchantID: t.FromMerchantID.String(),
		ToMerchantID:   t.ToMerchantID.String(),
		Amount:         money(t.Amount),
		Currency:       t.Currency,
		PercentFee:     money(t.PercentFee),
		IdempotencyKey: t.IdempotencyKey,
		Created:        t.CreatedAt.Format(timeFormat),
		Updated:        t.UpdatedAt.Format(timeFormat),
	}
}

// NewTransferResponses maps a transfer slice, never returning nil.
func NewTransferResponses(transfers []domain.Transfer) []TransferResponse {
	out := make([]TransferResponse, 0, len(transfers))
	for i := range transfers {
		out = append(out, NewTransferResponse(&transfers[i]))
	}
	return out
}
