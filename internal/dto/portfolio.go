package dto

import (
	"time"

	"github.com/kabusim/kabusim_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreatePortfolioRequest defines the data needed to create a new portfolio.
// InitialCapital defaults to 1,000,000 JPY when omitted.
type CreatePortfolioRequest struct {
	Name           string           `json:"name" binding:"required,min=1,max=100"`
	Description    string           `json:"description" binding:"max=500"`
	InitialCapital *decimal.Decimal `json:"initialCapital"`
}

// UpdatePortfolioRequest defines the data allowed for updating a portfolio.
// Pointers distinguish omitted fields from zero values. Editing InitialCapital
// does not retroactively rewrite the ledger-derived cash balance.
type UpdatePortfolioRequest struct {
	Name           *string          `json:"name"`
	Description    *string          `json:"description"`
	InitialCapital *decimal.Decimal `json:"initialCapital"`
}

// PortfolioResponse mirrors domain.Portfolio for API output.
type PortfolioResponse struct {
	PortfolioID    string          `json:"portfolioID"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	InitialCapital decimal.Decimal `json:"initialCapital"`
	CashBalance    decimal.Decimal `json:"cashBalance"`
	CreatedAt      time.Time       `json:"createdAt"`
	LastUpdatedAt  time.Time       `json:"lastUpdatedAt"`
}

// ToPortfolioResponse converts a domain.Portfolio to PortfolioResponse.
func ToPortfolioResponse(p *domain.Portfolio) PortfolioResponse {
	return PortfolioResponse{
		PortfolioID:    p.PortfolioID,
		Name:           p.Name,
		Description:    p.Description,
		InitialCapital: p.InitialCapital,
		CashBalance:    p.CashBalance,
		CreatedAt:      p.CreatedAt,
		LastUpdatedAt:  p.LastUpdatedAt,
	}
}

// PortfolioSummaryResponse is one row of the portfolio listing: the portfolio
// plus its computed valuation headline numbers.
type PortfolioSummaryResponse struct {
	PortfolioID         string          `json:"portfolioID"`
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	InitialCapital      decimal.Decimal `json:"initialCapital"`
	TotalValue          decimal.Decimal `json:"totalValue"`
	TotalProfitLoss     decimal.Decimal `json:"totalProfitLoss"`
	TotalProfitLossRate decimal.Decimal `json:"totalProfitLossRate"`
	CashBalance         decimal.Decimal `json:"cashBalance"`
	PositionsCount      int             `json:"positionsCount"`
	CreatedAt           time.Time       `json:"createdAt"`
	LastUpdatedAt       time.Time       `json:"lastUpdatedAt"`
}

// PositionDetailResponse is one valued position within a portfolio detail.
// Price-derived fields are null when no price is known for the symbol.
type PositionDetailResponse struct {
	Symbol         string           `json:"symbol"`
	CompanyName    string           `json:"companyName,omitempty"`
	Quantity       int64            `json:"quantity"`
	AverageCost    decimal.Decimal  `json:"averageCost"`
	TotalCost      decimal.Decimal  `json:"totalCost"`
	CurrentPrice   *decimal.Decimal `json:"currentPrice"`
	CurrentValue   *decimal.Decimal `json:"currentValue"`
	ProfitLoss     *decimal.Decimal `json:"profitLoss"`
	ProfitLossRate *decimal.Decimal `json:"profitLossRate"`
	LastUpdatedAt  time.Time        `json:"lastUpdatedAt"`
}

// PortfolioDetailResponse is the full portfolio view with valued positions.
type PortfolioDetailResponse struct {
	PortfolioID         string                   `json:"portfolioID"`
	Name                string                   `json:"name"`
	Description         string                   `json:"description"`
	InitialCapital      decimal.Decimal          `json:"initialCapital"`
	TotalValue          decimal.Decimal          `json:"totalValue"`
	TotalProfitLoss     decimal.Decimal          `json:"totalProfitLoss"`
	TotalProfitLossRate decimal.Decimal          `json:"totalProfitLossRate"`
	CashBalance         decimal.Decimal          `json:"cashBalance"`
	Positions           []PositionDetailResponse `json:"positions"`
	CreatedAt           time.Time                `json:"createdAt"`
	LastUpdatedAt       time.Time                `json:"lastUpdatedAt"`
}

// DashboardSummaryResponse aggregates across all of a user's portfolios.
type DashboardSummaryResponse struct {
	HasPortfolio        bool            `json:"hasPortfolio"`
	PositionsCount      int             `json:"positionsCount"`
	TotalProfitLoss     decimal.Decimal `json:"totalProfitLoss"`
	TotalProfitLossRate decimal.Decimal `json:"totalProfitLossRate"`
}

// ToPositionDetailResponse converts a valued position to its API shape.
func ToPositionDetailResponse(pv domain.PositionValuation) PositionDetailResponse {
	return PositionDetailResponse{
		Symbol:         pv.Symbol,
		CompanyName:    pv.CompanyName,
		Quantity:       pv.Quantity,
		AverageCost:    pv.AverageCost,
		TotalCost:      pv.TotalCostBasis(),
		CurrentPrice:   pv.CurrentPrice,
		CurrentValue:   pv.CurrentValue,
		ProfitLoss:     pv.ProfitLoss,
		ProfitLossRate: pv.ProfitLossRate,
		LastUpdatedAt:  pv.LastUpdatedAt,
	}
}
