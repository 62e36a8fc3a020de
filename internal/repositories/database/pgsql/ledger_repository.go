package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kabusim/kabusim_backend/internal/apperrors"
	"github.com/kabusim/kabusim_backend/internal/core/domain"
	portsrepo "github.com/kabusim/kabusim_backend/internal/core/ports/repositories"
	"github.com/kabusim/kabusim_backend/internal/utils/pagination"
)

const defaultLedgerPageSize = 100

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for ledger entries.
func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryWithTx {
	return &PgxLedgerRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.LedgerRepositoryWithTx = (*PgxLedgerRepository)(nil)

const ledgerColumns = `entry_id, portfolio_id, kind, symbol, quantity, unit_price, cash_amount, realized_profit, occurred_at, note, created_at`

func scanLedgerEntry(row pgx.Row) (domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	var realized decimal.NullDecimal
	err := row.Scan(
		&e.EntryID,
		&e.PortfolioID,
		&e.Kind,
		&e.Symbol,
		&e.Quantity,
		&e.UnitPrice,
		&e.CashAmount,
		&realized,
		&e.OccurredAt,
		&e.Note,
		&e.CreatedAt,
	)
	if realized.Valid {
		e.RealizedProfit = &realized.Decimal
	}
	return e, err
}

// CommitEntry appends the entry and writes the derived state it implies in one
// transaction. The portfolio row is locked first and its version compared to
// the one the caller computed against; any mismatch aborts with
// ErrConcurrentModification before anything is written.
func (r *PgxLedgerRepository) CommitEntry(ctx context.Context, entry domain.LedgerEntry, portfolio domain.Portfolio, position *domain.Position) (*domain.LedgerEntry, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	var currentVersion int64
	err = tx.QueryRow(ctx,
		`SELECT version FROM portfolios WHERE portfolio_id = $1 FOR UPDATE;`,
		portfolio.PortfolioID,
	).Scan(&currentVersion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock portfolio %s: %w", portfolio.PortfolioID, err)
	}
	if currentVersion != portfolio.Version {
		return nil, apperrors.ErrConcurrentModification
	}

	realized := decimal.NullDecimal{}
	if entry.RealizedProfit != nil {
		realized = decimal.NullDecimal{Decimal: *entry.RealizedProfit, Valid: true}
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO ledger_entries (portfolio_id, kind, symbol, quantity, unit_price, cash_amount, realized_profit, occurred_at, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING entry_id, created_at;
	`,
		entry.PortfolioID,
		entry.Kind,
		entry.Symbol,
		entry.Quantity,
		entry.UnitPrice,
		entry.CashAmount,
		realized,
		entry.OccurredAt,
		entry.Note,
		time.Now(),
	).Scan(&entry.EntryID, &entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	now := time.Now()
	_, err = tx.Exec(ctx, `
		UPDATE portfolios
		SET cash_balance = $1, version = version + 1, last_updated_at = $2, last_updated_by = $3
		WHERE portfolio_id = $4;
	`,
		portfolio.CashBalance,
		now,
		portfolio.LastUpdatedBy,
		portfolio.PortfolioID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update portfolio balance: %w", err)
	}

	if position != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO positions (position_id, portfolio_id, symbol, quantity, average_cost, created_at, created_by, last_updated_at, last_updated_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $6, $7)
			ON CONFLICT (portfolio_id, symbol) DO UPDATE SET
				quantity = EXCLUDED.quantity,
				average_cost = EXCLUDED.average_cost,
				last_updated_at = EXCLUDED.last_updated_at,
				last_updated_by = EXCLUDED.last_updated_by;
		`,
			position.PositionID,
			position.PortfolioID,
			position.Symbol,
			position.Quantity,
			position.AverageCost,
			now,
			portfolio.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert position %s: %w", position.Symbol, err)
		}
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListEntries returns one page of the portfolio's history ordered by
// (occurred_at, entry_id). The page token is the last row's sort key.
func (r *PgxLedgerRepository) ListEntries(ctx context.Context, portfolioID string, filter portsrepo.LedgerFilter) ([]domain.LedgerEntry, *string, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLedgerPageSize
	}

	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE portfolio_id = $1`
	args := []any{portfolioID}

	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		query += fmt.Sprintf(" AND occurred_at >= $%d", len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		query += fmt.Sprintf(" AND occurred_at <= $%d", len(args))
	}
	if filter.Symbol != "" {
		args = append(args, filter.Symbol)
		query += fmt.Sprintf(" AND symbol = $%d", len(args))
	}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		query += fmt.Sprintf(" AND kind = $%d", len(args))
	}

	if filter.NextToken != nil && *filter.NextToken != "" {
		occurredAt, entryID, err := decodeLedgerToken(*filter.NextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", err.Error(), apperrors.ErrValidation)
		}
		cmp := ">"
		if filter.Descending {
			cmp = "<"
		}
		args = append(args, occurredAt, entryID)
		query += fmt.Sprintf(" AND (occurred_at, entry_id) %s ($%d, $%d)", cmp, len(args)-1, len(args))
	}

	if filter.Descending {
		query += " ORDER BY occurred_at DESC, entry_id DESC"
	} else {
		query += " ORDER BY occurred_at, entry_id"
	}
	// One extra row decides whether another page exists.
	args = append(args, limit+1)
	query += fmt.Sprintf(" LIMIT $%d;", len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.LedgerEntry, error) {
		return scanLedgerEntry(row)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan ledger entries: %w", err)
	}

	var nextToken *string
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		token := encodeLedgerToken(last.OccurredAt, last.EntryID)
		nextToken = &token
	}
	return entries, nextToken, nil
}

// ReplayEntries returns the complete ledger in commit order.
func (r *PgxLedgerRepository) ReplayEntries(ctx context.Context, portfolioID string) ([]domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE portfolio_id = $1 ORDER BY entry_id;`

	rows, err := r.Pool.Query(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger for replay: %w", err)
	}
	defer rows.Close()

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.LedgerEntry, error) {
		return scanLedgerEntry(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan ledger for replay: %w", err)
	}
	return entries, nil
}

func encodeLedgerToken(occurredAt time.Time, entryID int64) string {
	return pagination.EncodeMultiFieldToken(
		occurredAt.UTC().Format(time.RFC3339Nano),
		strconv.FormatInt(entryID, 10),
	)
}

func decodeLedgerToken(token string) (time.Time, int64, error) {
	fields, err := pagination.DecodeMultiFieldToken(token)
	if err != nil {
		return time.Time{}, 0, err
	}
	if len(fields) != 2 {
		return time.Time{}, 0, fmt.Errorf("invalid pagination token format (field count)")
	}
	occurredAt, err := time.Parse(time.RFC3339Nano, fields[0])
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid pagination token format (occurred_at parse): %w", err)
	}
	entryID, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid pagination token format (entry_id parse): %w", err)
	}
	return occurredAt, entryID, nil
}
