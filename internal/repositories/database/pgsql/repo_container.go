package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/kabusim/kabusim_backend/internal/core/ports/repositories"
)

// NewRepositoryProvider wires every pgx-backed repository onto one pool.
func NewRepositoryProvider(pool *pgxpool.Pool) *portsrepo.RepositoryProvider {
	return &portsrepo.RepositoryProvider{
		PortfolioRepo: newPgxPortfolioRepository(pool),
		LedgerRepo:    newPgxLedgerRepository(pool),
		CompanyRepo:   newPgxCompanyRepository(pool),
		PriceRepo:     newPgxStockPriceRepository(pool),
		UserRepo:      newPgxUserRepository(pool),
	}
}
