package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind classifies a ledger entry as one of the four economic events.
type EntryKind string

const (
	EntryDeposit    EntryKind = "DEPOSIT"
	EntryWithdrawal EntryKind = "WITHDRAWAL"
	EntryBuy        EntryKind = "BUY"
	EntrySell       EntryKind = "SELL"
)

// IsTrade reports whether the kind carries a symbol/quantity/price.
func (k EntryKind) IsTrade() bool {
	return k == EntryBuy || k == EntrySell
}

// IsValid reports whether the kind is one of the four known entry kinds.
func (k EntryKind) IsValid() bool {
	switch k {
	case EntryDeposit, EntryWithdrawal, EntryBuy, EntrySell:
		return true
	}
	return false
}

// LedgerEntry is an immutable record of one economic event against a portfolio.
// Entries are append-only: once persisted they are never edited or deleted
// (whole-portfolio teardown excepted). History listings order by
// (OccurredAt, EntryID); OccurredAt may be backdated by the caller, so state
// reconstruction folds in EntryID order, the order entries were committed and
// validated in.
type LedgerEntry struct {
	EntryID        int64            `json:"entryID"`     // Assigned by storage, monotonic
	PortfolioID    string           `json:"portfolioID"` // FK -> portfolios.portfolio_id
	Kind           EntryKind        `json:"kind"`
	Symbol         string           `json:"symbol"`     // Empty for cash entries
	Quantity       int64            `json:"quantity"`   // 0 for cash entries
	UnitPrice      decimal.Decimal  `json:"unitPrice"`  // Zero for cash entries
	CashAmount     decimal.Decimal  `json:"cashAmount"` // Signed: + for deposit/sell, - for withdrawal/buy
	RealizedProfit *decimal.Decimal `json:"realizedProfit,omitempty"` // Sells only, fixed at entry creation
	OccurredAt     time.Time        `json:"occurredAt"`
	Note           string           `json:"note"`
	CreatedAt      time.Time        `json:"createdAt"` // System time of persistence
}
