package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Merchant represents a registered merchant. Name is globally unique and
// case-sensitive; PercentFee is immutable after creation.
type Merchant struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	PercentFee decimal.Decimal `json:"percent_fee"`
	Archived   bool            `json:"archived"`
	CreatedAt  time.Time       `json:"created"`
	UpdatedAt  time.Time       `json:"updated"`
}

// NewMerchant constructs a merchant with a fresh identity.
func NewMerchant(name string, percentFee decimal.Decimal) *Merchant {
	now := time.Now().UTC()
	return &Merchant{
		ID:         uuid.New(),
		Name:       name,
		PercentFee: percentFee,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
