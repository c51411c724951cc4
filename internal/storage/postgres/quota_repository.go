package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/domain"
)

// QuotaRepository stores quota records in Postgres. Update, Consume,
// and Release keep the engine's silent no-op contract for unknown ids.
type QuotaRepository struct {
	pool *pgxpool.Pool
}

func NewQuotaRepository(pool *pgxpool.Pool) *QuotaRepository {
	return &QuotaRepository{pool: pool}
}

// WithTx runs fn inside a single transaction so a reservation's quota
// draws and ledger increments commit together.
func (r *QuotaRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const quotaColumns = `id, name, quota_type, capacity, sold, available, targets, group_name, ticket_option, created_at`

func (r *QuotaRepository) Create(ctx context.Context, q domain.Quota) error {
	targets, err := json.Marshal(q.Targets)
	if err != nil {
		return fmt.Errorf("marshal targets: %w", err)
	}

	const stmt = `
INSERT INTO quotas (id, name, quota_type, capacity, sold, available, targets, group_name, ticket_option, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.exec(ctx, stmt,
		q.ID, q.Name, string(q.Type), q.Capacity, q.Sold, q.Available,
		targets, q.Group, q.TicketOption, q.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create quota: %w", err)
	}
	return nil
}

func (r *QuotaRepository) Get(ctx context.Context, id string) (*domain.Quota, error) {
	const query = `SELECT ` + quotaColumns + ` FROM quotas WHERE id = $1`

	q, err := scanQuota(r.queryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get quota: %w", err)
	}
	return &q, nil
}

func (r *QuotaRepository) Update(ctx context.Context, q domain.Quota) error {
	targets, err := json.Marshal(q.Targets)
	if err != nil {
		return fmt.Errorf("marshal targets: %w", err)
	}

	const stmt = `
UPDATE quotas
SET name = $2, quota_type = $3, capacity = $4, sold = $5, available = $6, targets = $7
WHERE id = $1`

	if _, err := r.exec(ctx, stmt, q.ID, q.Name, string(q.Type), q.Capacity, q.Sold, q.Available, targets); err != nil {
		return fmt.Errorf("update quota: %w", err)
	}
	return nil
}

func (r *QuotaRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.exec(ctx, `DELETE FROM quotas WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete quota: %w", err)
	}
	return nil
}

func (r *QuotaRepository) ListByGroup(ctx context.Context, group string) ([]domain.Quota, error) {
	const query = `SELECT ` + quotaColumns + ` FROM quotas WHERE group_name = $1 ORDER BY position`

	rows, err := r.query(ctx, query, group)
	if err != nil {
		return nil, fmt.Errorf("list quotas: %w", err)
	}
	defer rows.Close()

	var out []domain.Quota
	for rows.Next() {
		q, err := scanQuota(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quota: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list quotas: %w", err)
	}
	return out, nil
}

func (r *QuotaRepository) Consume(ctx context.Context, id string, amount int) error {
	const stmt = `
UPDATE quotas
SET sold = sold + $2, available = capacity - (sold + $2)
WHERE id = $1`

	if _, err := r.exec(ctx, stmt, id, amount); err != nil {
		return fmt.Errorf("consume quota: %w", err)
	}
	return nil
}

func (r *QuotaRepository) Release(ctx context.Context, id string, amount int) error {
	const stmt = `
UPDATE quotas
SET sold = GREATEST(sold - $2, 0), available = capacity - GREATEST(sold - $2, 0)
WHERE id = $1`

	if _, err := r.exec(ctx, stmt, id, amount); err != nil {
		return fmt.Errorf("release quota: %w", err)
	}
	return nil
}

func scanQuota(row pgx.Row) (domain.Quota, error) {
	var q domain.Quota
	var quotaType string
	var targets []byte
	err := row.Scan(&q.ID, &q.Name, &quotaType, &q.Capacity, &q.Sold, &q.Available,
		&targets, &q.Group, &q.TicketOption, &q.CreatedAt)
	if err != nil {
		return domain.Quota{}, err
	}
	q.Type = domain.QuotaType(quotaType)
	if len(targets) > 0 {
		if err := json.Unmarshal(targets, &q.Targets); err != nil {
			return domain.Quota{}, fmt.Errorf("unmarshal targets: %w", err)
		}
	}
	return q, nil
}

func (r *QuotaRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *QuotaRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *QuotaRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
