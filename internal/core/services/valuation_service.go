package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/kabusim/kabusim_backend/internal/apperrors"
	"github.com/kabusim/kabusim_backend/internal/core/domain"
	portsrepo "github.com/kabusim/kabusim_backend/internal/core/ports/repositories"
	portssvc "github.com/kabusim/kabusim_backend/internal/core/ports/services"
	"github.com/kabusim/kabusim_backend/internal/middleware"
)

var oneHundred = decimal.NewFromInt(100)

// maxSnapshotRetries bounds the re-reads when commits keep landing between the
// dependent reads of one read-path computation.
const maxSnapshotRetries = 3

// valuationService combines a portfolio's derived state with the latest known
// prices. Read-only; a symbol without a price degrades to null price-derived
// fields instead of failing the whole computation.
type valuationService struct {
	portfolioRepo portsrepo.PortfolioRepositoryFacade
	ledgerRepo    portsrepo.LedgerRepositoryFacade
	priceSvc      portssvc.PriceSvcFacade
	companySvc    portssvc.CompanySvcFacade
}

// NewValuationService creates a new ValuationService.
func NewValuationService(
	portfolioRepo portsrepo.PortfolioRepositoryFacade,
	ledgerRepo portsrepo.LedgerRepositoryFacade,
	priceSvc portssvc.PriceSvcFacade,
	companySvc portssvc.CompanySvcFacade,
) portssvc.ValuationSvcFacade {
	return &valuationService{
		portfolioRepo: portfolioRepo,
		ledgerRepo:    ledgerRepo,
		priceSvc:      priceSvc,
		companySvc:    companySvc,
	}
}

var _ portssvc.ValuationSvcFacade = (*valuationService)(nil)

// investmentBase is the capital the owner actually put in: initial capital
// plus deposits minus withdrawals. Trades move value between cash and
// positions without changing it.
func investmentBase(initialCapital decimal.Decimal, entries []domain.LedgerEntry) decimal.Decimal {
	base := initialCapital
	for _, e := range entries {
		switch e.Kind {
		case domain.EntryDeposit, domain.EntryWithdrawal:
			base = base.Add(e.CashAmount)
		}
	}
	return base
}

// loadSnapshot reads positions and the full ledger, then re-reads the
// portfolio row. If the version still matches, no commit landed between the
// reads (the version only ever grows) and the three reads form one consistent
// snapshot. Otherwise it starts over from the fresher row.
func (s *valuationService) loadSnapshot(ctx context.Context, portfolio domain.Portfolio) (domain.Portfolio, []domain.Position, []domain.LedgerEntry, error) {
	for attempt := 0; ; attempt++ {
		positions, err := s.portfolioRepo.FindPositions(ctx, portfolio.PortfolioID)
		if err != nil {
			return domain.Portfolio{}, nil, nil, fmt.Errorf("failed to load positions: %w", err)
		}

		entries, err := s.ledgerRepo.ReplayEntries(ctx, portfolio.PortfolioID)
		if err != nil {
			return domain.Portfolio{}, nil, nil, fmt.Errorf("failed to load ledger: %w", err)
		}

		fresh, err := s.portfolioRepo.FindPortfolioByID(ctx, portfolio.PortfolioID)
		if err != nil {
			return domain.Portfolio{}, nil, nil, fmt.Errorf("failed to re-read portfolio: %w", err)
		}
		if fresh.Version == portfolio.Version {
			return portfolio, positions, entries, nil
		}

		if attempt >= maxSnapshotRetries {
			return domain.Portfolio{}, nil, nil, fmt.Errorf("portfolio %s kept changing while reading: %w",
				portfolio.PortfolioID, apperrors.ErrConcurrentModification)
		}
		portfolio = *fresh
	}
}

// ValuePortfolio produces the full valuation projection for one portfolio.
func (s *valuationService) ValuePortfolio(ctx context.Context, portfolio domain.Portfolio) (*domain.PortfolioValuation, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	portfolio, positions, entries, err := s.loadSnapshot(ctx, portfolio)
	if err != nil {
		return nil, err
	}

	// Dormant positions are retained for history but carry no value.
	active := positions[:0]
	symbols := make([]string, 0, len(positions))
	for _, p := range positions {
		if p.Quantity > 0 {
			active = append(active, p)
			symbols = append(symbols, p.Symbol)
		}
	}

	prices, err := s.priceSvc.CurrentPrices(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve prices: %w", err)
	}

	names, err := s.companySvc.CompanyNames(ctx, symbols)
	if err != nil {
		logger.Warn("Failed to resolve company names for valuation", slog.String("error", err.Error()))
		names = nil
	}

	valuation := &domain.PortfolioValuation{
		PortfolioID: portfolio.PortfolioID,
		CashBalance: portfolio.CashBalance,
		Positions:   make([]domain.PositionValuation, 0, len(active)),
	}

	positionTotal := decimal.Zero
	for _, p := range active {
		pv := domain.PositionValuation{Position: p, CompanyName: names[p.Symbol]}

		if price, ok := prices[p.Symbol]; ok {
			value := price.Mul(decimal.NewFromInt(p.Quantity))
			cost := p.TotalCostBasis()
			profit := value.Sub(cost)

			pv.CurrentPrice = &price
			pv.CurrentValue = &value
			pv.ProfitLoss = &profit
			if cost.IsPositive() {
				rate := profit.Div(cost).Mul(oneHundred)
				pv.ProfitLossRate = &rate
			}
			positionTotal = positionTotal.Add(value)
		} else {
			logger.Debug("No price available for position", slog.String("symbol", p.Symbol))
		}

		valuation.Positions = append(valuation.Positions, pv)
	}

	base := investmentBase(portfolio.InitialCapital, entries)

	valuation.InvestmentBase = base
	valuation.TotalValue = portfolio.CashBalance.Add(positionTotal)
	valuation.TotalProfitLoss = valuation.TotalValue.Sub(base)
	if !base.IsZero() {
		valuation.TotalProfitLossRate = valuation.TotalProfitLoss.Div(base).Mul(oneHundred)
	}

	return valuation, nil
}
