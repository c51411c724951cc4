package app

import (
	"context"
	"testing"

	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/clock"
	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/domain"
	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/storage/memory"
)

func newAvailabilityFixture() (*AvailabilityService, *QuotaService, *memory.Store) {
	store := memory.NewStore()
	tables := newFakeTables()
	quotaSvc := NewQuotaService(store, store, tables, clock.NewFixed(testNow))
	availSvc := NewAvailabilityService(store, store, tables)
	return availSvc, quotaSvc, store
}

func TestAvailabilityService_Estimate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("no business returns base available", func(t *testing.T) {
		t.Parallel()
		svc, quotas, _ := newAvailabilityFixture()
		_, _ = quotas.CreateQuota(ctx, CreateQuotaInput{Name: "Partners", Type: domain.QuotaTypeShared, Capacity: 30, Group: "Fanstand"})

		got, err := svc.Estimate(ctx, EstimateInput{Group: "Fanstand"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Available != 100 || got.Reason != domain.ReasonNoBusiness {
			t.Fatalf("expected 100/%q, got %d/%q", domain.ReasonNoBusiness, got.Available, got.Reason)
		}
	})

	t.Run("unknown business id behaves like no business", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newAvailabilityFixture()

		got, err := svc.Estimate(ctx, EstimateInput{Group: "Fanstand", BusinessID: "b-ghost"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Available != 100 || got.Reason != domain.ReasonNoBusiness {
			t.Fatalf("expected fallback to base available, got %+v", got)
		}
	})

	t.Run("exclusive quota for the business caps the estimate", func(t *testing.T) {
		t.Parallel()
		svc, quotas, _ := newAvailabilityFixture()
		_, _ = quotas.CreateQuota(ctx, CreateQuotaInput{
			Name:     "VIP",
			Type:     domain.QuotaTypeExclusive,
			Capacity: 30,
			Targets:  []domain.AssignTarget{{Kind: domain.TargetName, Value: "Acme Co"}},
			Group:    "Fanstand",
		})

		got, err := svc.Estimate(ctx, EstimateInput{Group: "Fanstand", BusinessID: "b-acme"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Available != 30 || got.Reason != domain.ReasonExclusiveQuota {
			t.Fatalf("expected 30/%q, got %d/%q", domain.ReasonExclusiveQuota, got.Available, got.Reason)
		}
	})

	t.Run("shared quota adds to the free pool", func(t *testing.T) {
		t.Parallel()
		svc, quotas, _ := newAvailabilityFixture()
		_, _ = quotas.CreateQuota(ctx, CreateQuotaInput{
			Name:     "Partners",
			Type:     domain.QuotaTypeShared,
			Capacity: 30,
			Targets:  []domain.AssignTarget{{Kind: domain.TargetName, Value: "Acme Co"}},
			Group:    "Fanstand",
		})

		got, err := svc.Estimate(ctx, EstimateInput{Group: "Fanstand", BusinessID: "b-acme"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Available != 100 || got.Reason != domain.ReasonFreeCapacityShare {
			t.Fatalf("expected 70+30=100/%q, got %d/%q", domain.ReasonFreeCapacityShare, got.Available, got.Reason)
		}
	})

	t.Run("ledger sales reduce the base", func(t *testing.T) {
		t.Parallel()
		svc, _, store := newAvailabilityFixture()
		if err := store.IncrementGroupSold(ctx, "Fanstand", 25); err != nil {
			t.Fatalf("increment: %v", err)
		}

		got, err := svc.Estimate(ctx, EstimateInput{Group: "Fanstand"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Available != 75 {
			t.Fatalf("expected 75 after 25 ledger sales, got %d", got.Available)
		}
	})

	t.Run("ticket scope uses the option base", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newAvailabilityFixture()

		got, err := svc.Estimate(ctx, EstimateInput{Group: "Club 54", TicketOption: "3 days pass"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Available != 110 {
			t.Fatalf("expected option base available 110, got %d", got.Available)
		}
	})

	t.Run("unknown scope errors", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newAvailabilityFixture()

		if _, err := svc.Estimate(ctx, EstimateInput{Group: "Nope"}); err != domain.ErrGroupNotFound {
			t.Fatalf("expected ErrGroupNotFound, got %v", err)
		}
		if _, err := svc.Estimate(ctx, EstimateInput{Group: "Club 54", TicketOption: "Nope"}); err != domain.ErrTicketOptionNotFound {
			t.Fatalf("expected ErrTicketOptionNotFound, got %v", err)
		}
	})
}

func TestAvailabilityService_FreeCapacity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, quotas, store := newAvailabilityFixture()

	vip, _ := quotas.CreateQuota(ctx, CreateQuotaInput{Name: "VIP", Type: domain.QuotaTypeExclusive, Capacity: 30, Group: "Fanstand"})
	if err := store.Consume(ctx, vip.ID, 10); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if err := store.IncrementGroupSold(ctx, "Fanstand", 10); err != nil {
		t.Fatalf("increment: %v", err)
	}

	row, err := svc.FreeCapacity(ctx, domain.GroupScope("Fanstand"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	// Total 200, aggregate sold 110, quota holds capacity 30 (sold 10,
	// available 20): free row is 170 capacity, 100 sold, 70 available.
	if row.Capacity != 170 || row.Sold != 100 || row.Available != 70 {
		t.Fatalf("unexpected free row: %+v", row)
	}
}
