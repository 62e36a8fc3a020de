package services

import (
	"context"

	"github.com/kabusim/kabusim_backend/internal/core/domain"
	"github.com/kabusim/kabusim_backend/internal/dto"
)

// PortfolioAuthorizerSvc checks that a user owns a portfolio before any
// operation touches it. Returns the portfolio on success so callers avoid a
// second read.
type PortfolioAuthorizerSvc interface {
	AuthorizePortfolioAccess(ctx context.Context, userID string, portfolioID string) (*domain.Portfolio, error)
}

// PortfolioSvcFacade manages portfolio lifecycle and read projections.
type PortfolioSvcFacade interface {
	PortfolioAuthorizerSvc

	CreatePortfolio(ctx context.Context, req dto.CreatePortfolioRequest, userID string) (*domain.Portfolio, error)
	ListPortfolios(ctx context.Context, userID string) ([]dto.PortfolioSummaryResponse, error)
	GetPortfolioDetail(ctx context.Context, portfolioID string, userID string) (*dto.PortfolioDetailResponse, error)
	UpdatePortfolio(ctx context.Context, portfolioID string, req dto.UpdatePortfolioRequest, userID string) (*domain.Portfolio, error)
	DeletePortfolio(ctx context.Context, portfolioID string, userID string) error
	GetDashboardSummary(ctx context.Context, userID string) (*dto.DashboardSummaryResponse, error)
}
