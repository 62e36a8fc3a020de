package dto

import (
	"time"

	"github.com/kabusim/kabusim_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CashRequest defines a deposit or withdrawal. OccurredAt may be backdated for
// entering a historical transaction; it defaults to now.
type CashRequest struct {
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	OccurredAt *time.Time      `json:"occurredAt"`
	Note       string          `json:"note" binding:"max=500"`
}

// TradeRequest defines a buy or sell. When UnitPrice is omitted the latest
// stored close for the symbol is used.
type TradeRequest struct {
	Symbol     string           `json:"symbol" binding:"required,min=4,max=10"`
	Quantity   int64            `json:"quantity" binding:"required,gt=0"`
	UnitPrice  *decimal.Decimal `json:"unitPrice"`
	OccurredAt *time.Time       `json:"occurredAt"`
	Note       string           `json:"note" binding:"max=500"`
}

// LedgerEntryResponse mirrors domain.LedgerEntry for API output.
type LedgerEntryResponse struct {
	EntryID        int64            `json:"entryID"`
	PortfolioID    string           `json:"portfolioID"`
	Kind           domain.EntryKind `json:"kind"`
	Symbol         string           `json:"symbol,omitempty"`
	CompanyName    string           `json:"companyName,omitempty"`
	Quantity       int64            `json:"quantity,omitempty"`
	UnitPrice      decimal.Decimal  `json:"unitPrice"`
	CashAmount     decimal.Decimal  `json:"cashAmount"`
	RealizedProfit *decimal.Decimal `json:"realizedProfit,omitempty"`
	OccurredAt     time.Time        `json:"occurredAt"`
	Note           string           `json:"note,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// ToLedgerEntryResponse converts a domain.LedgerEntry to its API shape.
func ToLedgerEntryResponse(e *domain.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		EntryID:        e.EntryID,
		PortfolioID:    e.PortfolioID,
		Kind:           e.Kind,
		Symbol:         e.Symbol,
		Quantity:       e.Quantity,
		UnitPrice:      e.UnitPrice,
		CashAmount:     e.CashAmount,
		RealizedProfit: e.RealizedProfit,
		OccurredAt:     e.OccurredAt,
		Note:           e.Note,
		CreatedAt:      e.CreatedAt,
	}
}

// ListLedgerParams defines query parameters for the transaction history.
type ListLedgerParams struct {
	StartDate *time.Time `form:"startDate" time_format:"2006-01-02"`
	EndDate   *time.Time `form:"endDate" time_format:"2006-01-02"`
	Symbol    string     `form:"symbol"`
	Kind      string     `form:"kind" binding:"omitempty,oneof=DEPOSIT WITHDRAWAL BUY SELL"`
	Limit     int        `form:"limit,default=100" binding:"omitempty,gt=0,lte=1000"`
	NextToken *string    `form:"nextToken"`
	Order     string     `form:"order,default=desc" binding:"omitempty,oneof=asc desc"`
}

// ListLedgerResponse wraps a page of ledger entries.
type ListLedgerResponse struct {
	Entries   []LedgerEntryResponse `json:"entries"`
	NextToken *string               `json:"nextToken,omitempty"`
}
