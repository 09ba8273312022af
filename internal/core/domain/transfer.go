package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transfer is the immutable record of a single fund movement. IdempotencyKey
// is globally unique; an existing row is the sole witness that the movement
// was already applied.
type Transfer struct {
	ID             uuid.UUID       `json:"id"`
	FromMerchantID uuid.UUID       `json:"from_merchant_id"`
	ToMerchantID   uuid.UUID       `json:"to_merchant_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	PercentFee     decimal.Decimal `json:"percent_fee"`
	IdempotencyKey string          `json:"idempotency_key"`
	Archived       bool            `json:"archived"`
	CreatedAt      time.Time       `json:"created"`
	UpdatedAt      time.Time       `json:"updated"`
}

// NewTransfer constructs a transfer record. PercentFee is the source
// merchant's fee snapshotted at execution time.
func NewTransfer(fromID, toID uuid.UUID, amount decimal.Decimal, currency string, percentFee decimal.Decimal, idempotencyKey string) *Transfer {
	now := time.Now().UTC()
	return &Transfer{
		ID:             uuid.New(),
		FromMerchantID: fromID,
		ToMerchantID:   toID,
		Amount:         amount,
		Currency:       currency,
		PercentFee:     percentFee,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
