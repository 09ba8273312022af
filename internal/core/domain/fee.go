package domain

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// ComputeDebit returns the total amount the source balance is charged for a
// transfer: the transferred amount plus the percentage fee.
//
//	debit = amount + amount * percentFee / 100
//
// Pure; no rounding is applied here. Callers round to MoneyScale only at the
// point amounts are persisted.
func ComputeDebit(amount, percentFee decimal.Decimal) decimal.Decimal {
	return amount.Add(amount.Mul(percentFee).Div(oneHundred))
}
