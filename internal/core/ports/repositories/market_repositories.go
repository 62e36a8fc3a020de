package repositories

import (
	"context"

	"github.com/kabusim/kabusim_backend/internal/core/domain"
)

// CompanyRepositoryFacade reads the JPX company master. Rows are maintained by
// an external import batch; this service only queries them.
type CompanyRepositoryFacade interface {
	FindCompanyBySymbol(ctx context.Context, symbol string) (*domain.Company, error)
	FindCompaniesBySymbols(ctx context.Context, symbols []string) (map[string]domain.Company, error)
	SearchCompanies(ctx context.Context, query string, limit int) ([]domain.Company, error)
}

// StockPriceRepositoryFacade reads stored daily prices. The latest close per
// symbol is the price collaborator for trades and valuation.
type StockPriceRepositoryFacade interface {
	FindLatestPrice(ctx context.Context, symbol string) (*domain.StockPrice, error)
	FindLatestPrices(ctx context.Context, symbols []string) (map[string]domain.StockPrice, error)
}
