package domain

import (
	"github.com/shopspring/decimal"
)

// Portfolio is the aggregate root of the simulation ledger. CashBalance is a
// cached fold over the portfolio's ledger entries: at every observable point
// CashBalance == InitialCapital + sum(CashAmount over all entries). Version is
// the optimistic-concurrency token that serializes mutations per portfolio.
type Portfolio struct {
	PortfolioID    string          `json:"portfolioID"` // Primary Key (UUID)
	UserID         string          `json:"userID"`      // FK -> users.user_id
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	InitialCapital decimal.Decimal `json:"initialCapital"`
	CashBalance    decimal.Decimal `json:"cashBalance"`
	Version        int64           `json:"-"`
	AuditFields
}
