package services

import (
	"context"

	"github.com/kabusim/kabusim_backend/internal/core/domain"
	"github.com/kabusim/kabusim_backend/internal/dto"
)

// TradingSvcFacade exposes the four ledger mutations plus history reads.
// Every mutation is validate-then-commit: the ledger entry and the derived
// state persist atomically or not at all, and a rejected operation leaves the
// portfolio in its pre-call state.
type TradingSvcFacade interface {
	Deposit(ctx context.Context, userID string, portfolioID string, req dto.CashRequest) (*domain.LedgerEntry, error)
	Withdraw(ctx context.Context, userID string, portfolioID string, req dto.CashRequest) (*domain.LedgerEntry, error)
	Buy(ctx context.Context, userID string, portfolioID string, req dto.TradeRequest) (*domain.LedgerEntry, error)
	Sell(ctx context.Context, userID string, portfolioID string, req dto.TradeRequest) (*domain.LedgerEntry, error)

	ListLedger(ctx context.Context, userID string, portfolioID string, params dto.ListLedgerParams) (*dto.ListLedgerResponse, error)

	// VerifyLedger replays the portfolio's full ledger from empty state and
	// checks the cached summary (cash balance, positions) agrees with the fold.
	VerifyLedger(ctx context.Context, userID string, portfolioID string) error
}
