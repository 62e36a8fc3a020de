package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockPrice is one daily OHLCV row for a symbol. Rows arrive via an external
// batch; this service only reads them. The latest close per symbol backs price
// resolution for trades entered without an explicit price, and valuation.
type StockPrice struct {
	Symbol string          `json:"symbol"`
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}
