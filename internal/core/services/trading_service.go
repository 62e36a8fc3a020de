package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kabusim/kabusim_backend/internal/apperrors"
	"github.com/kabusim/kabusim_backend/internal/core/domain"
	portsrepo "github.com/kabusim/kabusim_backend/internal/core/ports/repositories"
	portssvc "github.com/kabusim/kabusim_backend/internal/core/ports/services"
	"github.com/kabusim/kabusim_backend/internal/dto"
	"github.com/kabusim/kabusim_backend/internal/middleware"
	"github.com/kabusim/kabusim_backend/internal/utils/accounting"
)

var (
	ErrPriceLookupTimeout = errors.New("price lookup timed out")
	ErrLedgerMismatch     = errors.New("ledger replay does not match cached summary")
)

// maxCommitRetries bounds the internal retry on ErrConcurrentModification.
// The conflict is expected under concurrent load and validation is idempotent
// given fresh state, so a bounded re-read-and-revalidate is safe. No other
// failure is retried.
const maxCommitRetries = 3

// tradingService sequences the pure cash/position accumulators behind a
// validate-then-commit workflow. It is the single point of truth an external
// caller mutates a portfolio through.
type tradingService struct {
	ledgerRepo    portsrepo.LedgerRepositoryFacade
	portfolioRepo portsrepo.PortfolioRepositoryFacade
	portfolioSvc  portssvc.PortfolioAuthorizerSvc
	priceSvc      portssvc.PriceSvcFacade
	companySvc    portssvc.CompanySvcFacade
	priceTimeout  time.Duration
}

// NewTradingService creates a new TradingService.
func NewTradingService(
	ledgerRepo portsrepo.LedgerRepositoryFacade,
	portfolioRepo portsrepo.PortfolioRepositoryFacade,
	portfolioSvc portssvc.PortfolioAuthorizerSvc,
	priceSvc portssvc.PriceSvcFacade,
	companySvc portssvc.CompanySvcFacade,
	priceTimeout time.Duration,
) portssvc.TradingSvcFacade {
	return &tradingService{
		ledgerRepo:    ledgerRepo,
		portfolioRepo: portfolioRepo,
		portfolioSvc:  portfolioSvc,
		priceSvc:      priceSvc,
		companySvc:    companySvc,
		priceTimeout:  priceTimeout,
	}
}

var _ portssvc.TradingSvcFacade = (*tradingService)(nil)

// mutation computes, from a fresh portfolio snapshot, the ledger entry to
// append and the position state it implies (nil for cash events). The
// portfolio's CashBalance must be updated in place to its post-entry value.
type mutation func(p *domain.Portfolio) (domain.LedgerEntry, *domain.Position, error)

// commitWithRetry runs the read-validate-commit cycle, re-reading state and
// re-validating when the optimistic version check fails at the storage layer.
func (s *tradingService) commitWithRetry(ctx context.Context, portfolio *domain.Portfolio, compute mutation) (*domain.LedgerEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	for attempt := 0; ; attempt++ {
		entry, position, err := compute(portfolio)
		if err != nil {
			return nil, err
		}

		committed, err := s.ledgerRepo.CommitEntry(ctx, entry, *portfolio, position)
		if err == nil {
			return committed, nil
		}
		if !errors.Is(err, apperrors.ErrConcurrentModification) || attempt >= maxCommitRetries {
			return nil, err
		}

		logger.Warn("Concurrent modification detected, retrying",
			slog.String("portfolio_id", portfolio.PortfolioID),
			slog.Int("attempt", attempt+1))

		portfolio, err = s.portfolioRepo.FindPortfolioByID(ctx, portfolio.PortfolioID)
		if err != nil {
			return nil, fmt.Errorf("failed to re-read portfolio after conflict: %w", err)
		}
	}
}

func occurredAtOrNow(occurredAt *time.Time, now time.Time) time.Time {
	if occurredAt != nil {
		return occurredAt.UTC()
	}
	return now
}

// Deposit records a cash deposit. Always succeeds for a positive amount.
func (s *tradingService) Deposit(ctx context.Context, userID string, portfolioID string, req dto.CashRequest) (*domain.LedgerEntry, error) {
	portfolio, err := s.portfolioSvc.AuthorizePortfolioAccess(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry, err := s.commitWithRetry(ctx, portfolio, func(p *domain.Portfolio) (domain.LedgerEntry, *domain.Position, error) {
		newBalance, err := accounting.ApplyDeposit(p.CashBalance, req.Amount)
		if err != nil {
			return domain.LedgerEntry{}, nil, err
		}
		p.CashBalance = newBalance
		return domain.LedgerEntry{
			PortfolioID: p.PortfolioID,
			Kind:        domain.EntryDeposit,
			CashAmount:  req.Amount,
			OccurredAt:  occurredAtOrNow(req.OccurredAt, now),
			Note:        req.Note,
			CreatedAt:   now,
		}, nil, nil
	})
	if err != nil {
		return nil, err
	}

	middleware.GetLoggerFromCtx(ctx).Info("Deposit recorded",
		slog.String("portfolio_id", portfolioID),
		slog.Int64("entry_id", entry.EntryID),
		slog.String("amount", req.Amount.String()))
	return entry, nil
}

// Withdraw records a cash withdrawal. Withdrawing beyond the current balance
// fails with ErrInsufficientFunds and writes nothing.
func (s *tradingService) Withdraw(ctx context.Context, userID string, portfolioID string, req dto.CashRequest) (*domain.LedgerEntry, error) {
	portfolio, err := s.portfolioSvc.AuthorizePortfolioAccess(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry, err := s.commitWithRetry(ctx, portfolio, func(p *domain.Portfolio) (domain.LedgerEntry, *domain.Position, error) {
		newBalance, err := accounting.ApplyWithdrawal(p.CashBalance, req.Amount)
		if err != nil {
			return domain.LedgerEntry{}, nil, err
		}
		p.CashBalance = newBalance
		return domain.LedgerEntry{
			PortfolioID: p.PortfolioID,
			Kind:        domain.EntryWithdrawal,
			CashAmount:  req.Amount.Neg(),
			OccurredAt:  occurredAtOrNow(req.OccurredAt, now),
			Note:        req.Note,
			CreatedAt:   now,
		}, nil, nil
	})
	if err != nil {
		return nil, err
	}

	middleware.GetLoggerFromCtx(ctx).Info("Withdrawal recorded",
		slog.String("portfolio_id", portfolioID),
		slog.Int64("entry_id", entry.EntryID),
		slog.String("amount", req.Amount.String()))
	return entry, nil
}

// resolvePrice returns the explicit unit price or, when omitted, the latest
// stored close under a bounded timeout. A timeout or failed lookup aborts the
// whole operation; it is never silently defaulted.
func (s *tradingService) resolvePrice(ctx context.Context, symbol string, explicit *decimal.Decimal) (decimal.Decimal, error) {
	if explicit != nil {
		if explicit.LessThanOrEqual(decimal.Zero) {
			return decimal.Zero, fmt.Errorf("%w: price %s", apperrors.ErrInvalidAmount, explicit.String())
		}
		return *explicit, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.priceTimeout)
	defer cancel()

	price, err := s.priceSvc.CurrentPrice(lookupCtx, symbol)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrPriceLookupTimeout, symbol)
		}
		return decimal.Zero, err
	}
	return price, nil
}

// currentPosition returns a fresh snapshot of the position for the symbol, or
// an empty one when the instrument was never bought in this portfolio.
func (s *tradingService) currentPosition(ctx context.Context, portfolioID, symbol string) (domain.Position, error) {
	pos, err := s.portfolioRepo.FindPosition(ctx, portfolioID, symbol)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.Position{PortfolioID: portfolioID, Symbol: symbol}, nil
		}
		return domain.Position{}, err
	}
	return *pos, nil
}

// Buy purchases quantity shares of symbol, at the explicit unit price or the
// latest stored close. A buy that would drive cash negative fails with
// ErrInsufficientFunds and writes nothing.
func (s *tradingService) Buy(ctx context.Context, userID string, portfolioID string, req dto.TradeRequest) (*domain.LedgerEntry, error) {
	portfolio, err := s.portfolioSvc.AuthorizePortfolioAccess(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}

	price, err := s.resolvePrice(ctx, req.Symbol, req.UnitPrice)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry, err := s.commitWithRetry(ctx, portfolio, func(p *domain.Portfolio) (domain.LedgerEntry, *domain.Position, error) {
		cashAmount := price.Mul(decimal.NewFromInt(req.Quantity)).Neg()
		newBalance, err := accounting.ApplyTrade(p.CashBalance, cashAmount)
		if err != nil {
			return domain.LedgerEntry{}, nil, err
		}

		position, err := s.currentPosition(ctx, p.PortfolioID, req.Symbol)
		if err != nil {
			return domain.LedgerEntry{}, nil, err
		}
		isNew := position.PositionID == ""

		position, err = accounting.ApplyBuy(position, req.Quantity, price)
		if err != nil {
			return domain.LedgerEntry{}, nil, err
		}

		if isNew {
			position.PositionID = uuid.NewString()
			position.CreatedAt = now
			position.CreatedBy = userID
		}
		position.LastUpdatedAt = now
		position.LastUpdatedBy = userID

		p.CashBalance = newBalance
		return domain.LedgerEntry{
			PortfolioID: p.PortfolioID,
			Kind:        domain.EntryBuy,
			Symbol:      req.Symbol,
			Quantity:    req.Quantity,
			UnitPrice:   price,
			CashAmount:  cashAmount,
			OccurredAt:  occurredAtOrNow(req.OccurredAt, now),
			Note:        req.Note,
			CreatedAt:   now,
		}, &position, nil
	})
	if err != nil {
		return nil, err
	}

	middleware.GetLoggerFromCtx(ctx).Info("Buy recorded",
		slog.String("portfolio_id", portfolioID),
		slog.Int64("entry_id", entry.EntryID),
		slog.String("symbol", req.Symbol),
		slog.Int64("quantity", req.Quantity),
		slog.String("unit_price", price.String()))
	return entry, nil
}

// Sell disposes of quantity shares of symbol. The realized profit is computed
// against the weighted-average cost basis at the moment of this sell and fixed
// on the ledger entry. Selling more than held fails with ErrInsufficientShares
// and writes nothing.
func (s *tradingService) Sell(ctx context.Context, userID string, portfolioID string, req dto.TradeRequest) (*domain.LedgerEntry, error) {
	portfolio, err := s.portfolioSvc.AuthorizePortfolioAccess(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}

	price, err := s.resolvePrice(ctx, req.Symbol, req.UnitPrice)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry, err := s.commitWithRetry(ctx, portfolio, func(p *domain.Portfolio) (domain.LedgerEntry, *domain.Position, error) {
		position, err := s.currentPosition(ctx, p.PortfolioID, req.Symbol)
		if err != nil {
			return domain.LedgerEntry{}, nil, err
		}

		position, realized, err := accounting.ApplySell(position, req.Quantity, price)
		if err != nil {
			return domain.LedgerEntry{}, nil, err
		}

		cashAmount := price.Mul(decimal.NewFromInt(req.Quantity))
		newBalance, err := accounting.ApplyTrade(p.CashBalance, cashAmount)
		if err != nil {
			return domain.LedgerEntry{}, nil, err
		}

		position.LastUpdatedAt = now
		position.LastUpdatedBy = userID

		p.CashBalance = newBalance
		return domain.LedgerEntry{
			PortfolioID:    p.PortfolioID,
			Kind:           domain.EntrySell,
			Symbol:         req.Symbol,
			Quantity:       req.Quantity,
			UnitPrice:      price,
			CashAmount:     cashAmount,
			RealizedProfit: &realized,
			OccurredAt:     occurredAtOrNow(req.OccurredAt, now),
			Note:           req.Note,
			CreatedAt:      now,
		}, &position, nil
	})
	if err != nil {
		return nil, err
	}

	middleware.GetLoggerFromCtx(ctx).Info("Sell recorded",
		slog.String("portfolio_id", portfolioID),
		slog.Int64("entry_id", entry.EntryID),
		slog.String("symbol", req.Symbol),
		slog.Int64("quantity", req.Quantity),
		slog.String("realized_profit", entry.RealizedProfit.String()))
	return entry, nil
}

// ListLedger returns the portfolio's transaction history, filtered and ordered
// by (occurred_at, entry_id), decorated with company names.
func (s *tradingService) ListLedger(ctx context.Context, userID string, portfolioID string, params dto.ListLedgerParams) (*dto.ListLedgerResponse, error) {
	if _, err := s.portfolioSvc.AuthorizePortfolioAccess(ctx, userID, portfolioID); err != nil {
		return nil, err
	}

	filter := portsrepo.LedgerFilter{
		StartDate:  params.StartDate,
		EndDate:    params.EndDate,
		Symbol:     params.Symbol,
		Kind:       domain.EntryKind(params.Kind),
		Limit:      params.Limit,
		NextToken:  params.NextToken,
		Descending: params.Order != "asc",
	}

	entries, nextToken, err := s.ledgerRepo.ListEntries(ctx, portfolioID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}

	symbols := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Symbol != "" {
			symbols = append(symbols, e.Symbol)
		}
	}
	names, err := s.companySvc.CompanyNames(ctx, symbols)
	if err != nil {
		// History stays usable without display names.
		middleware.GetLoggerFromCtx(ctx).Warn("Failed to resolve company names for ledger", slog.String("error", err.Error()))
		names = nil
	}

	responses := make([]dto.LedgerEntryResponse, len(entries))
	for i := range entries {
		responses[i] = dto.ToLedgerEntryResponse(&entries[i])
		if name, ok := names[entries[i].Symbol]; ok {
			responses[i].CompanyName = name
		}
	}

	return &dto.ListLedgerResponse{Entries: responses, NextToken: nextToken}, nil
}

// VerifyLedger replays the full ledger from empty state and checks that the
// cached summary agrees with the fold. Any divergence is reported as
// ErrLedgerMismatch; the ledger itself is the source of truth.
//
// The ledger, positions and portfolio row are read without a transaction, so
// the portfolio version is re-read afterwards: a matching version means no
// commit landed in between and the reads are one consistent snapshot. A commit
// racing past every retry surfaces as ErrConcurrentModification, never as a
// false mismatch.
func (s *tradingService) VerifyLedger(ctx context.Context, userID string, portfolioID string) error {
	portfolio, err := s.portfolioSvc.AuthorizePortfolioAccess(ctx, userID, portfolioID)
	if err != nil {
		return err
	}

	var (
		entries   []domain.LedgerEntry
		positions []domain.Position
	)
	for attempt := 0; ; attempt++ {
		entries, err = s.ledgerRepo.ReplayEntries(ctx, portfolioID)
		if err != nil {
			return fmt.Errorf("failed to replay ledger: %w", err)
		}
		positions, err = s.portfolioRepo.FindPositions(ctx, portfolioID)
		if err != nil {
			return fmt.Errorf("failed to load positions: %w", err)
		}

		fresh, err := s.portfolioRepo.FindPortfolioByID(ctx, portfolioID)
		if err != nil {
			return fmt.Errorf("failed to re-read portfolio: %w", err)
		}
		if fresh.Version == portfolio.Version {
			break
		}
		if attempt >= maxSnapshotRetries {
			return fmt.Errorf("portfolio %s kept changing while verifying: %w",
				portfolioID, apperrors.ErrConcurrentModification)
		}
		portfolio = fresh
	}

	state, err := accounting.Replay(portfolio.InitialCapital, entries)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerMismatch, err)
	}

	if !state.CashBalance.Equal(portfolio.CashBalance) {
		return fmt.Errorf("%w: cash balance cached %s, replayed %s",
			ErrLedgerMismatch, portfolio.CashBalance.String(), state.CashBalance.String())
	}

	for _, cached := range positions {
		replayed, ok := state.Positions[cached.Symbol]
		if !ok {
			if cached.Quantity != 0 {
				return fmt.Errorf("%w: position %s cached but absent from replay", ErrLedgerMismatch, cached.Symbol)
			}
			continue
		}
		if cached.Quantity != replayed.Quantity {
			return fmt.Errorf("%w: position %s quantity cached %d, replayed %d",
				ErrLedgerMismatch, cached.Symbol, cached.Quantity, replayed.Quantity)
		}
		if cached.Quantity > 0 && !cached.AverageCost.Equal(replayed.AverageCost) {
			return fmt.Errorf("%w: position %s average cost cached %s, replayed %s",
				ErrLedgerMismatch, cached.Symbol, cached.AverageCost.String(), replayed.AverageCost.String())
		}
		delete(state.Positions, cached.Symbol)
	}
	for symbol, replayed := range state.Positions {
		if replayed.Quantity != 0 {
			return fmt.Errorf("%w: position %s replayed but not cached", ErrLedgerMismatch, symbol)
		}
	}

	return nil
}
