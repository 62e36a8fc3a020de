package repositories

import (
	"context"
	"time"

	"github.com/kabusim/kabusim_backend/internal/core/domain"
)

// LedgerFilter narrows a ledger history query. Zero values mean "no filter".
type LedgerFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	Symbol     string
	Kind       domain.EntryKind
	Limit      int
	NextToken  *string
	Descending bool
}

// LedgerRepositoryFacade persists ledger entries together with the derived
// state they imply. The append is the serialization point for all mutations of
// one portfolio.
type LedgerRepositoryFacade interface {
	// CommitEntry atomically appends the entry, writes the portfolio's new cash
	// balance, and upserts the position (nil for cash events). The portfolio
	// argument carries the version the caller read its state at; a mismatch at
	// commit time fails with ErrConcurrentModification and writes nothing. The
	// returned entry has its storage-assigned id and creation time filled in.
	CommitEntry(ctx context.Context, entry domain.LedgerEntry, portfolio domain.Portfolio, position *domain.Position) (*domain.LedgerEntry, error)

	// ListEntries returns entries ordered by (occurred_at, entry_id), ascending
	// unless the filter requests descending, with token-based pagination.
	ListEntries(ctx context.Context, portfolioID string, filter LedgerFilter) ([]domain.LedgerEntry, *string, error)

	// ReplayEntries returns the portfolio's complete ledger in commit
	// (entry_id) order, for full-state recomputation and audits.
	ReplayEntries(ctx context.Context, portfolioID string) ([]domain.LedgerEntry, error)
}

// LedgerRepositoryWithTx composes ledger persistence with transaction management.
type LedgerRepositoryWithTx interface {
	LedgerRepositoryFacade
	TransactionManager
}
