package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kabusim/kabusim_backend/internal/apperrors"
	portsrepo "github.com/kabusim/kabusim_backend/internal/core/ports/repositories"
	portssvc "github.com/kabusim/kabusim_backend/internal/core/ports/services"
)

// priceService resolves current prices from the stored daily candles: the
// latest close per symbol.
type priceService struct {
	priceRepo portsrepo.StockPriceRepositoryFacade
}

// NewPriceService creates a new PriceService.
func NewPriceService(priceRepo portsrepo.StockPriceRepositoryFacade) portssvc.PriceSvcFacade {
	return &priceService{priceRepo: priceRepo}
}

var _ portssvc.PriceSvcFacade = (*priceService)(nil)

// CurrentPrice returns the latest stored close for the symbol. A symbol with
// no stored prices fails with ErrUnknownSymbol.
func (s *priceService) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	price, err := s.priceRepo.FindLatestPrice(ctx, symbol)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return decimal.Zero, fmt.Errorf("no price data for symbol %s: %w", symbol, apperrors.ErrUnknownSymbol)
		}
		return decimal.Zero, fmt.Errorf("failed to look up price for %s: %w", symbol, err)
	}
	return price.Close, nil
}

// CurrentPrices resolves prices for a set of symbols in one query. Symbols
// without price data are absent from the result rather than an error, so
// valuation can degrade per position.
func (s *priceService) CurrentPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	if len(symbols) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	rows, err := s.priceRepo.FindLatestPrices(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("failed to look up prices: %w", err)
	}

	prices := make(map[string]decimal.Decimal, len(rows))
	for symbol, row := range rows {
		prices[symbol] = row.Close
	}
	return prices, nil
}
