package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/domain"
	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/storage/postgres"
	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/testutil"
)

func TestRecordRepository_RoundTrip(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := postgres.NewRecordRepository(pool)

	record := domain.ConsumptionRecord{
		ReservationID: "res-1",
		Entries: []domain.ConsumptionEntry{
			{QuotaID: "q-1", Amount: 5},
			{QuotaID: "q-2", Amount: 3},
		},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := repo.SaveRecord(ctx, record); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.FindRecord(ctx, "res-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got == nil || len(got.Entries) != 2 {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.Entries[0].QuotaID != "q-1" || got.Entries[0].Amount != 5 {
		t.Fatalf("unexpected first entry: %+v", got.Entries[0])
	}

	t.Run("save is an upsert", func(t *testing.T) {
		record.Entries = record.Entries[:1]
		if err := repo.SaveRecord(ctx, record); err != nil {
			t.Fatalf("save: %v", err)
		}
		got, _ := repo.FindRecord(ctx, "res-1")
		if got == nil || len(got.Entries) != 1 {
			t.Fatalf("unexpected record after upsert: %+v", got)
		}
	})

	t.Run("missing record reads as nil", func(t *testing.T) {
		got, err := repo.FindRecord(ctx, "ghost")
		if err != nil || got != nil {
			t.Fatalf("expected nil/nil, got %v/%v", got, err)
		}
	})

	t.Run("delete removes the record", func(t *testing.T) {
		if err := repo.DeleteRecord(ctx, "res-1"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if got, _ := repo.FindRecord(ctx, "res-1"); got != nil {
			t.Fatalf("expected record removed, got %+v", got)
		}
	})
}
