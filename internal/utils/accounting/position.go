package accounting

import (
	"fmt"

	"github.com/kabusim/kabusim_backend/internal/apperrors"
	"github.com/kabusim/kabusim_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Position folding rules: the standard moving-average cost basis. The average
// cost is only ever moved by buys; a sell reduces quantity and locks in profit
// against the basis that existed at that instant, leaving the basis of the
// remaining shares untouched.

// ApplyBuy blends the new lot into the weighted-average cost:
//
//	newAvg = (heldQty*avg + qty*price) / (heldQty + qty)
//
// A dormant position (quantity 0) starts a fresh basis, which the formula
// already handles since 0 x anything = 0.
func ApplyBuy(pos domain.Position, quantity int64, unitPrice decimal.Decimal) (domain.Position, error) {
	if quantity <= 0 {
		return pos, fmt.Errorf("%w: buy quantity %d", apperrors.ErrInvalidAmount, quantity)
	}
	if unitPrice.LessThanOrEqual(decimal.Zero) {
		return pos, fmt.Errorf("%w: buy price %s", apperrors.ErrInvalidAmount, unitPrice.String())
	}

	heldQty := decimal.NewFromInt(pos.Quantity)
	buyQty := decimal.NewFromInt(quantity)
	totalCost := heldQty.Mul(pos.AverageCost).Add(buyQty.Mul(unitPrice))
	totalQty := heldQty.Add(buyQty)

	pos.AverageCost = totalCost.Div(totalQty)
	pos.Quantity += quantity
	return pos, nil
}

// ApplySell reduces the held quantity and returns the realized profit of this
// specific sell, quantity x (price - averageCost). AverageCost is deliberately
// unchanged: partial disposal does not affect the cost basis of what remains.
func ApplySell(pos domain.Position, quantity int64, unitPrice decimal.Decimal) (domain.Position, decimal.Decimal, error) {
	if quantity <= 0 {
		return pos, decimal.Zero, fmt.Errorf("%w: sell quantity %d", apperrors.ErrInvalidAmount, quantity)
	}
	if unitPrice.LessThanOrEqual(decimal.Zero) {
		return pos, decimal.Zero, fmt.Errorf("%w: sell price %s", apperrors.ErrInvalidAmount, unitPrice.String())
	}
	if quantity > pos.Quantity {
		return pos, decimal.Zero, fmt.Errorf("%w: selling %d of %s with only %d held", apperrors.ErrInsufficientShares, quantity, pos.Symbol, pos.Quantity)
	}

	realized := unitPrice.Sub(pos.AverageCost).Mul(decimal.NewFromInt(quantity))
	pos.Quantity -= quantity
	return pos, realized, nil
}
