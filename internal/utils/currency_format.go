package utils

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatJPY renders an amount as a yen display string, e.g. "¥1,000,000".
// All ledger amounts are yen; fractional yen from average-cost math are
// rounded half up for display only, never in stored state.
func FormatJPY(amount decimal.Decimal) string {
	return money.New(amount.Round(0).IntPart(), money.JPY).Display()
}

// FormatWithPrecision formats an amount rounded to the given number of
// decimal places, without a currency symbol.
func FormatWithPrecision(amount decimal.Decimal, precision int) string {
	return amount.Round(int32(precision)).String()
}
