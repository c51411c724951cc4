package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LedgerRepository stores the gross-sales counters. Counters come into
// existence on first increment; decrements floor at zero and are
// no-ops for counters that were never created.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

func (r *LedgerRepository) IncrementGroupSold(ctx context.Context, group string, quantity int) error {
	const stmt = `
INSERT INTO ledger_group_sold (group_name, sold)
VALUES ($1, $2)
ON CONFLICT (group_name) DO UPDATE SET sold = ledger_group_sold.sold + EXCLUDED.sold`

	if _, err := r.exec(ctx, stmt, group, quantity); err != nil {
		return fmt.Errorf("increment group sold: %w", err)
	}
	return nil
}

func (r *LedgerRepository) DecrementGroupSold(ctx context.Context, group string, quantity int) error {
	const stmt = `UPDATE ledger_group_sold SET sold = GREATEST(sold - $2, 0) WHERE group_name = $1`

	if _, err := r.exec(ctx, stmt, group, quantity); err != nil {
		return fmt.Errorf("decrement group sold: %w", err)
	}
	return nil
}

func (r *LedgerRepository) IncrementTicketSold(ctx context.Context, group, option string, quantity int) error {
	const stmt = `
INSERT INTO ledger_ticket_sold (group_name, ticket_option, sold)
VALUES ($1, $2, $3)
ON CONFLICT (group_name, ticket_option) DO UPDATE SET sold = ledger_ticket_sold.sold + EXCLUDED.sold`

	if _, err := r.exec(ctx, stmt, group, option, quantity); err != nil {
		return fmt.Errorf("increment ticket sold: %w", err)
	}
	return nil
}

func (r *LedgerRepository) DecrementTicketSold(ctx context.Context, group, option string, quantity int) error {
	const stmt = `
UPDATE ledger_ticket_sold SET sold = GREATEST(sold - $3, 0)
WHERE group_name = $1 AND ticket_option = $2`

	if _, err := r.exec(ctx, stmt, group, option, quantity); err != nil {
		return fmt.Errorf("decrement ticket sold: %w", err)
	}
	return nil
}

func (r *LedgerRepository) GroupSold(ctx context.Context, group string) (int, error) {
	const query = `SELECT sold FROM ledger_group_sold WHERE group_name = $1`

	var sold int
	if err := r.queryRow(ctx, query, group).Scan(&sold); err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("group sold: %w", err)
	}
	return sold, nil
}

func (r *LedgerRepository) TicketSold(ctx context.Context, group, option string) (int, error) {
	const query = `SELECT sold FROM ledger_ticket_sold WHERE group_name = $1 AND ticket_option = $2`

	var sold int
	if err := r.queryRow(ctx, query, group, option).Scan(&sold); err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("ticket sold: %w", err)
	}
	return sold, nil
}

func (r *LedgerRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *LedgerRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
