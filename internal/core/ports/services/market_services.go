package services

import (
	"context"

	"github.com/kabusim/kabusim_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PriceSvcFacade resolves a current price for a symbol (the latest stored
// daily close). Lookups honor context deadlines; an unresolvable symbol fails
// with ErrUnknownSymbol.
type PriceSvcFacade interface {
	CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	CurrentPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
}

// ValuationSvcFacade is the read-only projection combining a portfolio's
// derived state with current prices. It performs no writes and tolerates
// partial price availability.
type ValuationSvcFacade interface {
	ValuePortfolio(ctx context.Context, portfolio domain.Portfolio) (*domain.PortfolioValuation, error)
}

// CompanySvcFacade reads the JPX company master.
type CompanySvcFacade interface {
	GetCompany(ctx context.Context, symbol string) (*domain.Company, error)
	SearchCompanies(ctx context.Context, query string, limit int) ([]domain.Company, error)
	// CompanyNames resolves display names for a set of symbols; unknown
	// symbols are simply absent from the result.
	CompanyNames(ctx context.Context, symbols []string) (map[string]string, error)
}
