package accounting

import (
	"fmt"
	"sort"

	"github.com/kabusim/kabusim_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerState is the result of folding a portfolio's ledger from empty state.
type LedgerState struct {
	CashBalance decimal.Decimal
	Positions   map[string]domain.Position // keyed by symbol; dormant positions included
}

// Replay folds a sequence of ledger entries into cash balance and positions,
// starting from the initial capital and empty holdings. Entries are processed
// in EntryID order regardless of input order: each entry was validated against
// the portfolio state at the moment it was committed, so only the commit order
// reproduces the cached summary fields. OccurredAt may be backdated and plays
// no role here; it orders history listings, not state reconstruction.
func Replay(initialCapital decimal.Decimal, entries []domain.LedgerEntry) (LedgerState, error) {
	ordered := make([]domain.LedgerEntry, len(entries))
	copy(ordered, entries)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].EntryID < ordered[j].EntryID
	})

	state := LedgerState{
		CashBalance: initialCapital,
		Positions:   make(map[string]domain.Position),
	}

	for _, e := range ordered {
		var err error
		switch e.Kind {
		case domain.EntryDeposit:
			state.CashBalance, err = ApplyDeposit(state.CashBalance, e.CashAmount)
		case domain.EntryWithdrawal:
			state.CashBalance, err = ApplyWithdrawal(state.CashBalance, e.CashAmount.Neg())
		case domain.EntryBuy:
			state.CashBalance, err = ApplyTrade(state.CashBalance, e.CashAmount)
			if err == nil {
				pos := state.Positions[e.Symbol]
				pos.PortfolioID = e.PortfolioID
				pos.Symbol = e.Symbol
				pos, err = ApplyBuy(pos, e.Quantity, e.UnitPrice)
				state.Positions[e.Symbol] = pos
			}
		case domain.EntrySell:
			pos, ok := state.Positions[e.Symbol]
			if !ok {
				return state, fmt.Errorf("ledger entry %d sells %s which was never bought", e.EntryID, e.Symbol)
			}
			pos, _, err = ApplySell(pos, e.Quantity, e.UnitPrice)
			if err == nil {
				state.Positions[e.Symbol] = pos
				state.CashBalance, err = ApplyTrade(state.CashBalance, e.CashAmount)
			}
		default:
			return state, fmt.Errorf("ledger entry %d has unknown kind %q", e.EntryID, e.Kind)
		}
		if err != nil {
			return state, fmt.Errorf("replaying ledger entry %d: %w", e.EntryID, err)
		}
	}

	return state, nil
}
