// Package finance holds the typed payloads returned by the finance backend.
package finance

import "github.com/shopspring/decimal"

// MonthlyTotals summarizes the current month.
type MonthlyTotals struct {
	Earnings decimal.Decimal
	Expenses decimal.Decimal
	Balance  decimal.Decimal
}

// CategoryAmount is one entry of a category breakdown.
type CategoryAmount struct {
	Category string
	Amount   decimal.Decimal
}

// CategoryTotals keeps the order the backend reported the categories in.
type CategoryTotals []CategoryAmount

// WalletBalances are the per payment method balances.
type WalletBalances struct {
	Debit   decimal.Decimal // debit card and pix
	Credit  decimal.Decimal
	Voucher decimal.Decimal // meal voucher (VR)
}
