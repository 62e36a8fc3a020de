package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kabusim/kabusim_backend/internal/apperrors"
	"github.com/kabusim/kabusim_backend/internal/core/domain"
	portsrepo "github.com/kabusim/kabusim_backend/internal/core/ports/repositories"
)

type PgxPortfolioRepository struct {
	BaseRepository
}

// newPgxPortfolioRepository creates a new repository for portfolio data.
func newPgxPortfolioRepository(pool *pgxpool.Pool) portsrepo.PortfolioRepositoryFacade {
	return &PgxPortfolioRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.PortfolioRepositoryFacade = (*PgxPortfolioRepository)(nil)

const portfolioColumns = `portfolio_id, user_id, name, description, initial_capital, cash_balance, version, created_at, created_by, last_updated_at, last_updated_by`

func scanPortfolio(row pgx.Row) (domain.Portfolio, error) {
	var p domain.Portfolio
	err := row.Scan(
		&p.PortfolioID,
		&p.UserID,
		&p.Name,
		&p.Description,
		&p.InitialCapital,
		&p.CashBalance,
		&p.Version,
		&p.CreatedAt,
		&p.CreatedBy,
		&p.LastUpdatedAt,
		&p.LastUpdatedBy,
	)
	return p, err
}

// FindPortfolioByID retrieves a portfolio by its ID.
func (r *PgxPortfolioRepository) FindPortfolioByID(ctx context.Context, portfolioID string) (*domain.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolios WHERE portfolio_id = $1;`

	p, err := scanPortfolio(r.Pool.QueryRow(ctx, query, portfolioID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find portfolio %s: %w", portfolioID, err)
	}
	return &p, nil
}

// ListPortfoliosByUser retrieves all portfolios owned by a user, oldest first.
func (r *PgxPortfolioRepository) ListPortfoliosByUser(ctx context.Context, userID string) ([]domain.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolios WHERE user_id = $1 ORDER BY created_at, portfolio_id;`

	rows, err := r.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios for user: %w", err)
	}
	defer rows.Close()

	portfolios, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Portfolio, error) {
		return scanPortfolio(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan portfolios: %w", err)
	}
	return portfolios, nil
}

// CountPortfoliosByUser counts how many portfolios the user owns.
func (r *PgxPortfolioRepository) CountPortfoliosByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM portfolios WHERE user_id = $1;`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count portfolios for user: %w", err)
	}
	return count, nil
}

const positionColumns = `position_id, portfolio_id, symbol, quantity, average_cost, created_at, created_by, last_updated_at, last_updated_by`

func scanPosition(row pgx.Row) (domain.Position, error) {
	var p domain.Position
	err := row.Scan(
		&p.PositionID,
		&p.PortfolioID,
		&p.Symbol,
		&p.Quantity,
		&p.AverageCost,
		&p.CreatedAt,
		&p.CreatedBy,
		&p.LastUpdatedAt,
		&p.LastUpdatedBy,
	)
	return p, err
}

// FindPositions retrieves all positions of a portfolio, dormant ones included.
func (r *PgxPortfolioRepository) FindPositions(ctx context.Context, portfolioID string) ([]domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE portfolio_id = $1 ORDER BY symbol;`

	rows, err := r.Pool.Query(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	positions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Position, error) {
		return scanPosition(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan positions: %w", err)
	}
	return positions, nil
}

// FindPosition retrieves one position by portfolio and symbol.
func (r *PgxPortfolioRepository) FindPosition(ctx context.Context, portfolioID string, symbol string) (*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE portfolio_id = $1 AND symbol = $2;`

	p, err := scanPosition(r.Pool.QueryRow(ctx, query, portfolioID, symbol))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find position %s/%s: %w", portfolioID, symbol, err)
	}
	return &p, nil
}

// CountActivePositions counts positions with shares currently held.
func (r *PgxPortfolioRepository) CountActivePositions(ctx context.Context, portfolioID string) (int, error) {
	var count int
	err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM positions WHERE portfolio_id = $1 AND quantity > 0;`, portfolioID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active positions: %w", err)
	}
	return count, nil
}

// SavePortfolio inserts a new portfolio at version 1.
func (r *PgxPortfolioRepository) SavePortfolio(ctx context.Context, portfolio domain.Portfolio) error {
	query := `
		INSERT INTO portfolios (portfolio_id, user_id, name, description, initial_capital, cash_balance, version, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8, $7, $8);
	`
	now := time.Now()
	_, err := r.Pool.Exec(ctx, query,
		portfolio.PortfolioID,
		portfolio.UserID,
		portfolio.Name,
		portfolio.Description,
		portfolio.InitialCapital,
		portfolio.CashBalance,
		now,
		portfolio.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save portfolio %s: %w", portfolio.PortfolioID, err)
	}
	return nil
}

// UpdatePortfolio updates the portfolio's own fields under its version guard.
// Ledger-driven balance changes go through CommitEntry instead.
func (r *PgxPortfolioRepository) UpdatePortfolio(ctx context.Context, portfolio domain.Portfolio) error {
	query := `
		UPDATE portfolios
		SET name = $1, description = $2, initial_capital = $3, cash_balance = $4,
			version = version + 1, last_updated_at = $5, last_updated_by = $6
		WHERE portfolio_id = $7 AND version = $8;
	`
	tag, err := r.Pool.Exec(ctx, query,
		portfolio.Name,
		portfolio.Description,
		portfolio.InitialCapital,
		portfolio.CashBalance,
		time.Now(),
		portfolio.LastUpdatedBy,
		portfolio.PortfolioID,
		portfolio.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update portfolio %s: %w", portfolio.PortfolioID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrConcurrentModification
	}
	return nil
}

// DeletePortfolio removes the portfolio with its positions and ledger entries
// in one transaction.
func (r *PgxPortfolioRepository) DeletePortfolio(ctx context.Context, portfolioID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM ledger_entries WHERE portfolio_id = $1;`, portfolioID); err != nil {
		return fmt.Errorf("failed to delete ledger entries of %s: %w", portfolioID, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM positions WHERE portfolio_id = $1;`, portfolioID); err != nil {
		return fmt.Errorf("failed to delete positions of %s: %w", portfolioID, err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM portfolios WHERE portfolio_id = $1;`, portfolioID)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio %s: %w", portfolioID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return r.Commit(ctx, tx)
}
