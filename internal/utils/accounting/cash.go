package accounting

import (
	"fmt"

	"github.com/kabusim/kabusim_backend/internal/apperrors"
	"github.com/shopspring/decimal"
)

// Cash folding rules. Pure arithmetic on decimals, no side effects; the
// trading service sequences these behind its validate-then-commit workflow.

// ApplyDeposit returns balance + amount. The amount must be strictly positive.
func ApplyDeposit(balance, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return balance, fmt.Errorf("%w: deposit amount %s", apperrors.ErrInvalidAmount, amount.String())
	}
	return balance.Add(amount), nil
}

// ApplyWithdrawal returns balance - amount. Withdrawals are strict: driving the
// balance negative fails with ErrInsufficientFunds.
func ApplyWithdrawal(balance, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return balance, fmt.Errorf("%w: withdrawal amount %s", apperrors.ErrInvalidAmount, amount.String())
	}
	if amount.GreaterThan(balance) {
		return balance, fmt.Errorf("%w: withdrawal %s exceeds balance %s", apperrors.ErrInsufficientFunds, amount.String(), balance.String())
	}
	return balance.Sub(amount), nil
}

// ApplyTrade folds a signed trade cash amount (negative for a buy, positive for
// a sell) into the balance. Buys are held to the same strict no-overdraft rule
// as withdrawals.
func ApplyTrade(balance, cashAmount decimal.Decimal) (decimal.Decimal, error) {
	next := balance.Add(cashAmount)
	if next.IsNegative() {
		return balance, fmt.Errorf("%w: trade of %s against balance %s", apperrors.ErrInsufficientFunds, cashAmount.String(), balance.String())
	}
	return next, nil
}
