package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MoneyScale is the fixed-point precision for balance amounts.
// Rounding to this scale happens only when an amount is persisted.
const MoneyScale = 8

// Balance is a merchant's funds in a single currency. At most one non-archived
// balance exists per (merchant, currency) pair, and Amount is never negative.
type Balance struct {
	ID         uuid.UUID       `json:"id"`
	MerchantID uuid.UUID       `json:"merchant_id"`
	Currency   string          `json:"currency"`
	Amount     decimal.Decimal `json:"amount"`
	Archived   bool            `json:"archived"`
	CreatedAt  time.Time       `json:"created"`
	UpdatedAt  time.Time       `json:"updated"`
}

// NewBalance constructs a balance with a fresh identity.
func NewBalance(merchantID uuid.UUID, currency string, amount decimal.Decimal) *Balance {
	now := time.Now().UTC()
	return &Balance{
		ID:         uuid.New(),
		MerchantID: merchantID,
		Currency:   currency,
		Amount:     amount,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
