package repositories

import (
	"context"

	"github.com/kabusim/kabusim_backend/internal/core/domain"
)

// PortfolioRepositoryReader defines the read operations for portfolios and
// their cached position summaries.
type PortfolioRepositoryReader interface {
	FindPortfolioByID(ctx context.Context, portfolioID string) (*domain.Portfolio, error)
	ListPortfoliosByUser(ctx context.Context, userID string) ([]domain.Portfolio, error)
	CountPortfoliosByUser(ctx context.Context, userID string) (int, error)
	FindPositions(ctx context.Context, portfolioID string) ([]domain.Position, error)
	FindPosition(ctx context.Context, portfolioID string, symbol string) (*domain.Position, error)
	CountActivePositions(ctx context.Context, portfolioID string) (int, error)
}

// PortfolioRepositoryWriter defines the write operations for the portfolio
// aggregate itself. Ledger-driven mutations (cash balance, positions) go
// through LedgerRepositoryFacade.CommitEntry instead.
type PortfolioRepositoryWriter interface {
	SavePortfolio(ctx context.Context, portfolio domain.Portfolio) error
	UpdatePortfolio(ctx context.Context, portfolio domain.Portfolio) error
	// DeletePortfolio removes the portfolio and cascades its positions and
	// ledger entries. This whole-account teardown is the single deliberate
	// exception to the append-only ledger.
	DeletePortfolio(ctx context.Context, portfolioID string) error
}

// PortfolioRepositoryFacade combines all portfolio persistence operations.
type PortfolioRepositoryFacade interface {
	PortfolioRepositoryReader
	PortfolioRepositoryWriter
}
