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

// RecordRepository persists consumption records between reservation
// creation and cancellation.
type RecordRepository struct {
	pool *pgxpool.Pool
}

func NewRecordRepository(pool *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{pool: pool}
}

func (r *RecordRepository) SaveRecord(ctx context.Context, record domain.ConsumptionRecord) error {
	entries, err := json.Marshal(record.Entries)
	if err != nil {
		return fmt.Errorf("marshal entries: %w", err)
	}

	const stmt = `
INSERT INTO consumption_records (reservation_id, entries, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (reservation_id) DO UPDATE SET entries = EXCLUDED.entries`

	if _, err := r.exec(ctx, stmt, record.ReservationID, entries, record.CreatedAt); err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

func (r *RecordRepository) FindRecord(ctx context.Context, reservationID string) (*domain.ConsumptionRecord, error) {
	const query = `SELECT reservation_id, entries, created_at FROM consumption_records WHERE reservation_id = $1`

	var record domain.ConsumptionRecord
	var entries []byte
	err := r.queryRow(ctx, query, reservationID).Scan(&record.ReservationID, &entries, &record.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find record: %w", err)
	}
	if len(entries) > 0 {
		if err := json.Unmarshal(entries, &record.Entries); err != nil {
			return nil, fmt.Errorf("unmarshal entries: %w", err)
		}
	}
	return &record, nil
}

func (r *RecordRepository) DeleteRecord(ctx context.Context, reservationID string) error {
	if _, err := r.exec(ctx, `DELETE FROM consumption_records WHERE reservation_id = $1`, reservationID); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

func (r *RecordRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *RecordRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
