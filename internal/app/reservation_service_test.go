package app

import (
	"context"
	"testing"

	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/clock"
	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/domain"
	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/events"
	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/storage/memory"
)

type recordingPublisher struct {
	consumed []events.ReservationEvent
	released []events.ReservationEvent
}

func (p *recordingPublisher) ReservationConsumed(_ context.Context, ev events.ReservationEvent) error {
	p.consumed = append(p.consumed, ev)
	return nil
}

func (p *recordingPublisher) ReservationReleased(_ context.Context, ev events.ReservationEvent) error {
	p.released = append(p.released, ev)
	return nil
}

func newReservationFixture() (*ReservationService, *QuotaService, *memory.Store, *recordingPublisher) {
	store := memory.NewStore()
	tables := newFakeTables()
	publisher := &recordingPublisher{}
	quotaSvc := NewQuotaService(store, store, tables, clock.NewFixed(testNow))
	resSvc := NewReservationService(store, store, store, tables, publisher, clock.NewFixed(testNow))
	return resSvc, quotaSvc, store, publisher
}

func mustQuota(t *testing.T, svc *QuotaService, in CreateQuotaInput) domain.Quota {
	t.Helper()
	quota, err := svc.CreateQuota(context.Background(), in)
	if err != nil {
		t.Fatalf("create quota: %v", err)
	}
	return quota
}

func TestReservationService_ConsumeReservation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("draws from the exclusive quota and records it", func(t *testing.T) {
		t.Parallel()
		svc, quotaSvc, store, publisher := newReservationFixture()
		vip := mustQuota(t, quotaSvc, CreateQuotaInput{
			Name:     "VIP",
			Type:     domain.QuotaTypeExclusive,
			Capacity: 30,
			Targets:  []domain.AssignTarget{{Kind: domain.TargetName, Value: "Acme Co"}},
			Group:    "Fanstand",
		})

		record, err := svc.ConsumeReservation(ctx, ConsumeReservationInput{
			ReservationID: "res-1",
			Lines:         []domain.TicketLine{{TicketID: "Fanstand", Quantity: 10}},
			BusinessID:    "b-acme",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(record.Entries) != 1 || record.Entries[0] != (domain.ConsumptionEntry{QuotaID: vip.ID, Amount: 10}) {
			t.Fatalf("unexpected record entries: %v", record.Entries)
		}

		stored, _ := store.Get(ctx, vip.ID)
		if stored.Sold != 10 || stored.Available != 20 {
			t.Fatalf("expected sold=10 available=20, got sold=%d available=%d", stored.Sold, stored.Available)
		}
		if sold, _ := store.GroupSold(ctx, "Fanstand"); sold != 10 {
			t.Fatalf("expected group ledger 10, got %d", sold)
		}
		if len(publisher.consumed) != 1 || publisher.consumed[0].ReservationID != "res-1" {
			t.Fatalf("expected consumed event, got %v", publisher.consumed)
		}
	})

	t.Run("ticket line increments both ledger counters", func(t *testing.T) {
		t.Parallel()
		svc, _, store, _ := newReservationFixture()

		_, err := svc.ConsumeReservation(ctx, ConsumeReservationInput{
			Lines: []domain.TicketLine{{TicketID: "Club 54 | 3 days pass", Quantity: 4}},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if sold, _ := store.TicketSold(ctx, "Club 54", "3 days pass"); sold != 4 {
			t.Fatalf("expected ticket ledger 4, got %d", sold)
		}
		if sold, _ := store.GroupSold(ctx, "Club 54"); sold != 4 {
			t.Fatalf("expected group ledger 4, got %d", sold)
		}
	})

	t.Run("no business still sells against the ledger", func(t *testing.T) {
		t.Parallel()
		svc, quotaSvc, store, _ := newReservationFixture()
		vip := mustQuota(t, quotaSvc, CreateQuotaInput{
			Name:     "VIP",
			Type:     domain.QuotaTypeExclusive,
			Capacity: 30,
			Targets:  []domain.AssignTarget{{Kind: domain.TargetName, Value: "Acme Co"}},
			Group:    "Fanstand",
		})

		record, err := svc.ConsumeReservation(ctx, ConsumeReservationInput{
			Lines: []domain.TicketLine{{TicketID: "Fanstand", Quantity: 7}},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(record.Entries) != 0 {
			t.Fatalf("expected empty record without business, got %v", record.Entries)
		}
		stored, _ := store.Get(ctx, vip.ID)
		if stored.Sold != 0 {
			t.Fatalf("quota must be untouched without business, got sold=%d", stored.Sold)
		}
		if sold, _ := store.GroupSold(ctx, "Fanstand"); sold != 7 {
			t.Fatalf("expected group ledger 7, got %d", sold)
		}
	})

	t.Run("exhausted exclusive quota leaves the remainder undrawn", func(t *testing.T) {
		t.Parallel()
		svc, quotaSvc, store, _ := newReservationFixture()
		vip := mustQuota(t, quotaSvc, CreateQuotaInput{
			Name:     "VIP",
			Type:     domain.QuotaTypeExclusive,
			Capacity: 5,
			Targets:  []domain.AssignTarget{{Kind: domain.TargetName, Value: "Acme Co"}},
			Group:    "Fanstand",
		})
		shared := mustQuota(t, quotaSvc, CreateQuotaInput{
			Name:     "Partners",
			Type:     domain.QuotaTypeShared,
			Capacity: 50,
			Targets:  []domain.AssignTarget{{Kind: domain.TargetName, Value: "Acme Co"}},
			Group:    "Fanstand",
		})

		record, err := svc.ConsumeReservation(ctx, ConsumeReservationInput{
			ReservationID: "res-over",
			Lines:         []domain.TicketLine{{TicketID: "Fanstand", Quantity: 8}},
			BusinessID:    "b-acme",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(record.Entries) != 1 || record.Entries[0].QuotaID != vip.ID || record.Entries[0].Amount != 5 {
			t.Fatalf("expected only 5 from the exclusive quota, got %v", record.Entries)
		}
		storedShared, _ := store.Get(ctx, shared.ID)
		if storedShared.Sold != 0 {
			t.Fatalf("shared quota must not absorb the remainder, got sold=%d", storedShared.Sold)
		}
		// The ledger still books the full quantity.
		if sold, _ := store.GroupSold(ctx, "Fanstand"); sold != 8 {
			t.Fatalf("expected group ledger 8, got %d", sold)
		}
	})

	t.Run("rejects malformed lines", func(t *testing.T) {
		t.Parallel()
		svc, _, _, _ := newReservationFixture()

		if _, err := svc.ConsumeReservation(ctx, ConsumeReservationInput{
			Lines: []domain.TicketLine{{TicketID: "Fanstand", Quantity: 0}},
		}); err != domain.ErrInvalidQuantity {
			t.Fatalf("expected ErrInvalidQuantity, got %v", err)
		}
		if _, err := svc.ConsumeReservation(ctx, ConsumeReservationInput{
			Lines: []domain.TicketLine{{TicketID: "  ", Quantity: 1}},
		}); err != domain.ErrInvalidTicketLine {
			t.Fatalf("expected ErrInvalidTicketLine, got %v", err)
		}
	})
}

// txBoundaryStore fails any write issued outside a WithTx callback, so
// the tests below prove the reservation flow keeps its quota draws,
// ledger updates, and record writes inside one transaction.
type txBoundaryStore struct {
	*memory.Store
	t    *testing.T
	inTx bool
}

func (s *txBoundaryStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.inTx = true
	defer func() { s.inTx = false }()
	return fn(ctx)
}

func (s *txBoundaryStore) mustTx(op string) {
	s.t.Helper()
	if !s.inTx {
		s.t.Errorf("%s issued outside the transaction", op)
	}
}

func (s *txBoundaryStore) Consume(ctx context.Context, id string, amount int) error {
	s.mustTx("quota consume")
	return s.Store.Consume(ctx, id, amount)
}

func (s *txBoundaryStore) Release(ctx context.Context, id string, amount int) error {
	s.mustTx("quota release")
	return s.Store.Release(ctx, id, amount)
}

func (s *txBoundaryStore) IncrementGroupSold(ctx context.Context, group string, quantity int) error {
	s.mustTx("group increment")
	return s.Store.IncrementGroupSold(ctx, group, quantity)
}

func (s *txBoundaryStore) DecrementGroupSold(ctx context.Context, group string, quantity int) error {
	s.mustTx("group decrement")
	return s.Store.DecrementGroupSold(ctx, group, quantity)
}

func (s *txBoundaryStore) IncrementTicketSold(ctx context.Context, group, option string, quantity int) error {
	s.mustTx("ticket increment")
	return s.Store.IncrementTicketSold(ctx, group, option, quantity)
}

func (s *txBoundaryStore) DecrementTicketSold(ctx context.Context, group, option string, quantity int) error {
	s.mustTx("ticket decrement")
	return s.Store.DecrementTicketSold(ctx, group, option, quantity)
}

func (s *txBoundaryStore) SaveRecord(ctx context.Context, record domain.ConsumptionRecord) error {
	s.mustTx("record save")
	return s.Store.SaveRecord(ctx, record)
}

func (s *txBoundaryStore) DeleteRecord(ctx context.Context, reservationID string) error {
	s.mustTx("record delete")
	return s.Store.DeleteRecord(ctx, reservationID)
}

func TestReservationService_WritesStayInOneTransaction(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := &txBoundaryStore{Store: memory.NewStore(), t: t}
	tables := newFakeTables()
	publisher := &recordingPublisher{}
	quotaSvc := NewQuotaService(store, store, tables, clock.NewFixed(testNow))
	svc := NewReservationService(store, store, store, tables, publisher, clock.NewFixed(testNow))

	mustQuota(t, quotaSvc, CreateQuotaInput{
		Name:     "VIP",
		Type:     domain.QuotaTypeExclusive,
		Capacity: 30,
		Targets:  []domain.AssignTarget{{Kind: domain.TargetName, Value: "Acme Co"}},
		Group:    "Fanstand",
	})

	lines := []domain.TicketLine{
		{TicketID: "Fanstand", Quantity: 10},
		{TicketID: "Club 54 | 3 days pass", Quantity: 3},
	}
	record, err := svc.ConsumeReservation(ctx, ConsumeReservationInput{
		ReservationID: "res-tx",
		Lines:         lines,
		BusinessID:    "b-acme",
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	if err := svc.ReleaseReservation(ctx, ReleaseReservationInput{
		ReservationID: record.ReservationID,
		Lines:         lines,
	}); err != nil {
		t.Fatalf("release: %v", err)
	}

	t.Run("line error aborts without publishing", func(t *testing.T) {
		_, err := svc.ConsumeReservation(ctx, ConsumeReservationInput{
			Lines: []domain.TicketLine{
				{TicketID: "Fanstand", Quantity: 1},
				{TicketID: "  ", Quantity: 1},
			},
		})
		if err != domain.ErrInvalidTicketLine {
			t.Fatalf("expected ErrInvalidTicketLine, got %v", err)
		}
		if len(publisher.consumed) != 1 {
			t.Fatalf("aborted consume must not publish, got %d events", len(publisher.consumed))
		}
	})
}

func TestReservationService_ReleaseReservation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("round trip restores quotas and ledger", func(t *testing.T) {
		t.Parallel()
		svc, quotaSvc, store, publisher := newReservationFixture()
		vip := mustQuota(t, quotaSvc, CreateQuotaInput{
			Name:     "VIP",
			Type:     domain.QuotaTypeExclusive,
			Capacity: 30,
			Targets:  []domain.AssignTarget{{Kind: domain.TargetName, Value: "Acme Co"}},
			Group:    "Fanstand",
		})

		lines := []domain.TicketLine{
			{TicketID: "Fanstand", Quantity: 10},
			{TicketID: "Club 54 | 3 days pass", Quantity: 3},
		}
		record, err := svc.ConsumeReservation(ctx, ConsumeReservationInput{
			ReservationID: "res-rt",
			Lines:         lines,
			BusinessID:    "b-acme",
		})
		if err != nil {
			t.Fatalf("consume: %v", err)
		}

		if err := svc.ReleaseReservation(ctx, ReleaseReservationInput{
			ReservationID: record.ReservationID,
			Lines:         lines,
		}); err != nil {
			t.Fatalf("release: %v", err)
		}

		stored, _ := store.Get(ctx, vip.ID)
		if stored.Sold != 0 || stored.Available != 30 {
			t.Fatalf("expected quota restored, got sold=%d available=%d", stored.Sold, stored.Available)
		}
		for _, check := range []struct {
			name string
			got  func() (int, error)
		}{
			{"group Fanstand", func() (int, error) { return store.GroupSold(ctx, "Fanstand") }},
			{"group Club 54", func() (int, error) { return store.GroupSold(ctx, "Club 54") }},
			{"ticket Club 54", func() (int, error) { return store.TicketSold(ctx, "Club 54", "3 days pass") }},
		} {
			if sold, _ := check.got(); sold != 0 {
				t.Fatalf("expected %s ledger back to 0, got %d", check.name, sold)
			}
		}

		if rec, _ := store.FindRecord(ctx, "res-rt"); rec != nil {
			t.Fatalf("expected record discarded after release")
		}
		if len(publisher.released) != 1 {
			t.Fatalf("expected released event, got %v", publisher.released)
		}
	})

	t.Run("missing record still decrements the ledger", func(t *testing.T) {
		t.Parallel()
		svc, _, store, _ := newReservationFixture()
		_ = store.IncrementGroupSold(ctx, "Fanstand", 5)

		err := svc.ReleaseReservation(ctx, ReleaseReservationInput{
			ReservationID: "ghost",
			Lines:         []domain.TicketLine{{TicketID: "Fanstand", Quantity: 5}},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if sold, _ := store.GroupSold(ctx, "Fanstand"); sold != 0 {
			t.Fatalf("expected ledger decremented, got %d", sold)
		}
	})

	t.Run("double release floors at zero", func(t *testing.T) {
		t.Parallel()
		svc, quotaSvc, store, _ := newReservationFixture()
		vip := mustQuota(t, quotaSvc, CreateQuotaInput{
			Name:     "VIP",
			Type:     domain.QuotaTypeExclusive,
			Capacity: 30,
			Targets:  []domain.AssignTarget{{Kind: domain.TargetName, Value: "Acme Co"}},
			Group:    "Fanstand",
		})

		lines := []domain.TicketLine{{TicketID: "Fanstand", Quantity: 10}}
		record, _ := svc.ConsumeReservation(ctx, ConsumeReservationInput{
			ReservationID: "res-dbl",
			Lines:         lines,
			BusinessID:    "b-acme",
		})

		input := ReleaseReservationInput{ReservationID: record.ReservationID, Lines: lines}
		if err := svc.ReleaseReservation(ctx, input); err != nil {
			t.Fatalf("first release: %v", err)
		}
		if err := svc.ReleaseReservation(ctx, input); err != nil {
			t.Fatalf("second release: %v", err)
		}

		stored, _ := store.Get(ctx, vip.ID)
		if stored.Sold != 0 || stored.Available != 30 {
			t.Fatalf("expected clamped quota, got sold=%d available=%d", stored.Sold, stored.Available)
		}
		if sold, _ := store.GroupSold(ctx, "Fanstand"); sold != 0 {
			t.Fatalf("expected ledger floored at 0, got %d", sold)
		}
	})
}
