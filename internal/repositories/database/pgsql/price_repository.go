package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kabusim/kabusim_backend/internal/apperrors"
	"github.com/kabusim/kabusim_backend/internal/core/domain"
	portsrepo "github.com/kabusim/kabusim_backend/internal/core/ports/repositories"
)

type PgxStockPriceRepository struct {
	BaseRepository
}

// newPgxStockPriceRepository creates a new repository for stored daily prices.
func newPgxStockPriceRepository(pool *pgxpool.Pool) portsrepo.StockPriceRepositoryFacade {
	return &PgxStockPriceRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.StockPriceRepositoryFacade = (*PgxStockPriceRepository)(nil)

const priceColumns = `symbol, date, open, high, low, close, volume`

func scanStockPrice(row pgx.Row) (domain.StockPrice, error) {
	var p domain.StockPrice
	err := row.Scan(&p.Symbol, &p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume)
	return p, err
}

// FindLatestPrice retrieves the most recent daily candle for a symbol.
func (r *PgxStockPriceRepository) FindLatestPrice(ctx context.Context, symbol string) (*domain.StockPrice, error) {
	query := `
		SELECT ` + priceColumns + `
		FROM stock_prices
		WHERE symbol = $1
		ORDER BY date DESC
		LIMIT 1;
	`
	p, err := scanStockPrice(r.Pool.QueryRow(ctx, query, symbol))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find latest price for %s: %w", symbol, err)
	}
	return &p, nil
}

// FindLatestPrices retrieves the most recent daily candle per symbol in one
// query. Symbols with no price data are absent from the result.
func (r *PgxStockPriceRepository) FindLatestPrices(ctx context.Context, symbols []string) (map[string]domain.StockPrice, error) {
	if len(symbols) == 0 {
		return map[string]domain.StockPrice{}, nil
	}

	query := `
		SELECT DISTINCT ON (symbol) ` + priceColumns + `
		FROM stock_prices
		WHERE symbol = ANY($1)
		ORDER BY symbol, date DESC;
	`
	rows, err := r.Pool.Query(ctx, query, symbols)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest prices: %w", err)
	}
	defer rows.Close()

	prices := make(map[string]domain.StockPrice, len(symbols))
	for rows.Next() {
		p, err := scanStockPrice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock price: %w", err)
		}
		prices[p.Symbol] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stock prices: %w", err)
	}
	return prices, nil
}
