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

type PgxCompanyRepository struct {
	BaseRepository
}

// newPgxCompanyRepository creates a new repository for the company master.
func newPgxCompanyRepository(pool *pgxpool.Pool) portsrepo.CompanyRepositoryFacade {
	return &PgxCompanyRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.CompanyRepositoryFacade = (*PgxCompanyRepository)(nil)

const companyColumns = `symbol, name, market, industry, last_updated`

func scanCompany(row pgx.Row) (domain.Company, error) {
	var c domain.Company
	err := row.Scan(&c.Symbol, &c.Name, &c.Market, &c.Industry, &c.LastUpdated)
	return c, err
}

// FindCompanyBySymbol retrieves one company master row.
func (r *PgxCompanyRepository) FindCompanyBySymbol(ctx context.Context, symbol string) (*domain.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE symbol = $1;`

	c, err := scanCompany(r.Pool.QueryRow(ctx, query, symbol))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find company %s: %w", symbol, err)
	}
	return &c, nil
}

// FindCompaniesBySymbols retrieves company rows for a set of symbols, keyed by
// symbol. Unknown symbols are simply absent.
func (r *PgxCompanyRepository) FindCompaniesBySymbols(ctx context.Context, symbols []string) (map[string]domain.Company, error) {
	if len(symbols) == 0 {
		return map[string]domain.Company{}, nil
	}

	query := `SELECT ` + companyColumns + ` FROM companies WHERE symbol = ANY($1);`
	rows, err := r.Pool.Query(ctx, query, symbols)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	companies := make(map[string]domain.Company, len(symbols))
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies[c.Symbol] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read companies: %w", err)
	}
	return companies, nil
}

// SearchCompanies matches the query against symbol prefix and name substring.
func (r *PgxCompanyRepository) SearchCompanies(ctx context.Context, query string, limit int) ([]domain.Company, error) {
	sql := `
		SELECT ` + companyColumns + `
		FROM companies
		WHERE symbol LIKE $1 || '%' OR name ILIKE '%' || $1 || '%'
		ORDER BY symbol
		LIMIT $2;
	`
	rows, err := r.Pool.Query(ctx, sql, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search companies: %w", err)
	}
	defer rows.Close()

	companies, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Company, error) {
		return scanCompany(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan companies: %w", err)
	}
	return companies, nil
}
