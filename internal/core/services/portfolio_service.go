package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kabusim/kabusim_backend/internal/apperrors"
	"github.com/kabusim/kabusim_backend/internal/core/domain"
	portsrepo "github.com/kabusim/kabusim_backend/internal/core/ports/repositories"
	portssvc "github.com/kabusim/kabusim_backend/internal/core/ports/services"
	"github.com/kabusim/kabusim_backend/internal/dto"
	"github.com/kabusim/kabusim_backend/internal/middleware"
)

// maxPortfoliosPerUser caps how many simulation accounts one user can hold.
const maxPortfoliosPerUser = 10

// defaultInitialCapital is applied when a create request omits the amount.
var defaultInitialCapital = decimal.NewFromInt(1_000_000)

var (
	// ErrPortfolioLimitReached is returned when a user already holds the
	// maximum number of portfolios.
	ErrPortfolioLimitReached = fmt.Errorf("portfolio limit of %d reached: %w", maxPortfoliosPerUser, apperrors.ErrValidation)
	// ErrPortfolioNotFound is returned when the portfolio does not exist or is
	// not visible to the caller.
	ErrPortfolioNotFound = fmt.Errorf("portfolio not found: %w", apperrors.ErrNotFound)
)

type portfolioService struct {
	portfolioRepo portsrepo.PortfolioRepositoryFacade
	valuationSvc  portssvc.ValuationSvcFacade
}

// NewPortfolioService creates a new PortfolioService.
func NewPortfolioService(portfolioRepo portsrepo.PortfolioRepositoryFacade, valuationSvc portssvc.ValuationSvcFacade) portssvc.PortfolioSvcFacade {
	return &portfolioService{portfolioRepo: portfolioRepo, valuationSvc: valuationSvc}
}

var _ portssvc.PortfolioSvcFacade = (*portfolioService)(nil)

// AuthorizePortfolioAccess loads the portfolio and verifies the caller owns
// it. Ownership failures are reported as not-found so a foreign portfolio id
// leaks no information.
func (s *portfolioService) AuthorizePortfolioAccess(ctx context.Context, userID string, portfolioID string) (*domain.Portfolio, error) {
	portfolio, err := s.portfolioRepo.FindPortfolioByID(ctx, portfolioID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrPortfolioNotFound
		}
		return nil, fmt.Errorf("failed to load portfolio %s: %w", portfolioID, err)
	}
	if portfolio.UserID != userID {
		middleware.GetLoggerFromCtx(ctx).Warn("Portfolio access denied",
			slog.String("portfolio_id", portfolioID))
		return nil, ErrPortfolioNotFound
	}
	return portfolio, nil
}

// CreatePortfolio creates a portfolio for the user. The cash balance starts
// equal to the initial capital.
func (s *portfolioService) CreatePortfolio(ctx context.Context, req dto.CreatePortfolioRequest, userID string) (*domain.Portfolio, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	count, err := s.portfolioRepo.CountPortfoliosByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count portfolios for user: %w", err)
	}
	if count >= maxPortfoliosPerUser {
		return nil, ErrPortfolioLimitReached
	}

	capital := defaultInitialCapital
	if req.InitialCapital != nil {
		capital = *req.InitialCapital
	}
	if capital.IsNegative() {
		return nil, fmt.Errorf("initial capital must not be negative: %w", apperrors.ErrInvalidAmount)
	}

	portfolio := domain.Portfolio{
		PortfolioID:    uuid.NewString(),
		UserID:         userID,
		Name:           req.Name,
		Description:    req.Description,
		InitialCapital: capital,
		CashBalance:    capital,
	}
	portfolio.CreatedBy = userID
	portfolio.LastUpdatedBy = userID

	if err := s.portfolioRepo.SavePortfolio(ctx, portfolio); err != nil {
		return nil, fmt.Errorf("failed to save portfolio: %w", err)
	}

	logger.Info("Portfolio created",
		slog.String("portfolio_id", portfolio.PortfolioID),
		slog.String("initial_capital", capital.String()))

	created, err := s.portfolioRepo.FindPortfolioByID(ctx, portfolio.PortfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload created portfolio: %w", err)
	}
	return created, nil
}

// ListPortfolios returns all of the user's portfolios with valuation headline
// numbers. A portfolio whose valuation fails is listed with its cash-only
// numbers rather than dropped.
func (s *portfolioService) ListPortfolios(ctx context.Context, userID string) ([]dto.PortfolioSummaryResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	portfolios, err := s.portfolioRepo.ListPortfoliosByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}

	summaries := make([]dto.PortfolioSummaryResponse, 0, len(portfolios))
	for _, p := range portfolios {
		summary := dto.PortfolioSummaryResponse{
			PortfolioID:    p.PortfolioID,
			Name:           p.Name,
			Description:    p.Description,
			InitialCapital: p.InitialCapital,
			CashBalance:    p.CashBalance,
			TotalValue:     p.CashBalance,
			CreatedAt:      p.CreatedAt,
			LastUpdatedAt:  p.LastUpdatedAt,
		}

		valuation, err := s.valuationSvc.ValuePortfolio(ctx, p)
		if err != nil {
			logger.Warn("Failed to value portfolio for listing",
				slog.String("portfolio_id", p.PortfolioID),
				slog.String("error", err.Error()))
		} else {
			summary.TotalValue = valuation.TotalValue
			summary.TotalProfitLoss = valuation.TotalProfitLoss
			summary.TotalProfitLossRate = valuation.TotalProfitLossRate
			summary.PositionsCount = len(valuation.Positions)
		}

		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// GetPortfolioDetail returns the full valued view of one portfolio.
func (s *portfolioService) GetPortfolioDetail(ctx context.Context, portfolioID string, userID string) (*dto.PortfolioDetailResponse, error) {
	portfolio, err := s.AuthorizePortfolioAccess(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}

	valuation, err := s.valuationSvc.ValuePortfolio(ctx, *portfolio)
	if err != nil {
		return nil, fmt.Errorf("failed to value portfolio %s: %w", portfolioID, err)
	}

	detail := &dto.PortfolioDetailResponse{
		PortfolioID:         portfolio.PortfolioID,
		Name:                portfolio.Name,
		Description:         portfolio.Description,
		InitialCapital:      portfolio.InitialCapital,
		TotalValue:          valuation.TotalValue,
		TotalProfitLoss:     valuation.TotalProfitLoss,
		TotalProfitLossRate: valuation.TotalProfitLossRate,
		CashBalance:         portfolio.CashBalance,
		Positions:           make([]dto.PositionDetailResponse, 0, len(valuation.Positions)),
		CreatedAt:           portfolio.CreatedAt,
		LastUpdatedAt:       portfolio.LastUpdatedAt,
	}
	for _, pv := range valuation.Positions {
		detail.Positions = append(detail.Positions, dto.ToPositionDetailResponse(pv))
	}
	return detail, nil
}

// UpdatePortfolio applies the provided fields. Changing InitialCapital shifts
// the derived cash balance by the same delta so the ledger stays consistent.
func (s *portfolioService) UpdatePortfolio(ctx context.Context, portfolioID string, req dto.UpdatePortfolioRequest, userID string) (*domain.Portfolio, error) {
	portfolio, err := s.AuthorizePortfolioAccess(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		portfolio.Name = *req.Name
	}
	if req.Description != nil {
		portfolio.Description = *req.Description
	}
	if req.InitialCapital != nil {
		if req.InitialCapital.IsNegative() {
			return nil, fmt.Errorf("initial capital must not be negative: %w", apperrors.ErrInvalidAmount)
		}
		delta := req.InitialCapital.Sub(portfolio.InitialCapital)
		newBalance := portfolio.CashBalance.Add(delta)
		if newBalance.IsNegative() {
			return nil, fmt.Errorf("reducing initial capital below spent cash: %w", apperrors.ErrInsufficientFunds)
		}
		portfolio.InitialCapital = *req.InitialCapital
		portfolio.CashBalance = newBalance
	}
	portfolio.LastUpdatedBy = userID

	if err := s.portfolioRepo.UpdatePortfolio(ctx, *portfolio); err != nil {
		return nil, fmt.Errorf("failed to update portfolio %s: %w", portfolioID, err)
	}

	updated, err := s.portfolioRepo.FindPortfolioByID(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload updated portfolio: %w", err)
	}

	middleware.GetLoggerFromCtx(ctx).Info("Portfolio updated", slog.String("portfolio_id", portfolioID))
	return updated, nil
}

// DeletePortfolio removes the portfolio with its positions and ledger.
func (s *portfolioService) DeletePortfolio(ctx context.Context, portfolioID string, userID string) error {
	if _, err := s.AuthorizePortfolioAccess(ctx, userID, portfolioID); err != nil {
		return err
	}

	if err := s.portfolioRepo.DeletePortfolio(ctx, portfolioID); err != nil {
		return fmt.Errorf("failed to delete portfolio %s: %w", portfolioID, err)
	}

	middleware.GetLoggerFromCtx(ctx).Info("Portfolio deleted", slog.String("portfolio_id", portfolioID))
	return nil
}

// GetDashboardSummary aggregates valuation across all of the user's
// portfolios. The combined rate is weighted by each portfolio's investment
// base, not an average of per-portfolio rates.
func (s *portfolioService) GetDashboardSummary(ctx context.Context, userID string) (*dto.DashboardSummaryResponse, error) {
	portfolios, err := s.portfolioRepo.ListPortfoliosByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}

	summary := &dto.DashboardSummaryResponse{HasPortfolio: len(portfolios) > 0}
	if len(portfolios) == 0 {
		return summary, nil
	}

	totalBase := decimal.Zero
	for _, p := range portfolios {
		valuation, err := s.valuationSvc.ValuePortfolio(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("failed to value portfolio %s: %w", p.PortfolioID, err)
		}
		summary.PositionsCount += len(valuation.Positions)
		summary.TotalProfitLoss = summary.TotalProfitLoss.Add(valuation.TotalProfitLoss)
		totalBase = totalBase.Add(valuation.InvestmentBase)
	}
	if !totalBase.IsZero() {
		summary.TotalProfitLossRate = summary.TotalProfitLoss.Div(totalBase).Mul(oneHundred)
	}
	return summary, nil
}
