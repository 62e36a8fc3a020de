package domain

import (
	"github.com/shopspring/decimal"
)

// PositionValuation is one position combined with its latest known price.
// Price-derived fields are nil when no price is available for the symbol; the
// rest of the valuation still succeeds.
type PositionValuation struct {
	Position
	CompanyName    string           `json:"companyName,omitempty"`
	CurrentPrice   *decimal.Decimal `json:"currentPrice"`
	CurrentValue   *decimal.Decimal `json:"currentValue"`
	ProfitLoss     *decimal.Decimal `json:"profitLoss"`
	ProfitLossRate *decimal.Decimal `json:"profitLossRate"`
}

// PortfolioValuation is the read-only projection of a portfolio's worth.
// TotalValue covers cash plus every position with a known price; positions
// without a price contribute nothing rather than failing the computation.
type PortfolioValuation struct {
	PortfolioID         string              `json:"portfolioID"`
	CashBalance         decimal.Decimal     `json:"cashBalance"`
	InvestmentBase      decimal.Decimal     `json:"investmentBase"` // Initial capital + deposits - withdrawals
	TotalValue          decimal.Decimal     `json:"totalValue"`
	TotalProfitLoss     decimal.Decimal     `json:"totalProfitLoss"`
	TotalProfitLossRate decimal.Decimal     `json:"totalProfitLossRate"` // Percent; zero when base is zero
	Positions           []PositionValuation `json:"positions"`
}
