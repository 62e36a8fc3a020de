package domain

import (
	"github.com/shopspring/decimal"
)

// Position is the current holding of one instrument within one portfolio.
// Quantity and AverageCost are a cache of the fold over that instrument's
// buy/sell ledger entries and must always be reconstructible from them.
type Position struct {
	PositionID  string          `json:"positionID"`  // Primary Key (UUID)
	PortfolioID string          `json:"portfolioID"` // FK -> portfolios.portfolio_id
	Symbol      string          `json:"symbol"`
	Quantity    int64           `json:"quantity"`    // Always >= 0
	AverageCost decimal.Decimal `json:"averageCost"` // Weighted-average cost per unit; only buys move it
	AuditFields
}

// TotalCostBasis returns quantity x average cost for the currently held shares.
func (p Position) TotalCostBasis() decimal.Decimal {
	return p.AverageCost.Mul(decimal.NewFromInt(p.Quantity))
}

// IsDormant reports whether the position was sold down to zero. Dormant
// positions are kept (not deleted) so realized-profit history stays attached;
// the next buy re-establishes the cost basis from scratch.
func (p Position) IsDormant() bool {
	return p.Quantity == 0
}
