package app

import (
	"context"

	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/clock"
	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/domain"
	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/events"
)

// ReservationService orchestrates a reservation's ticket lines against
// the allocation rules and the ledger. Consumption always succeeds
// arithmetically; callers are expected to validate availability first.
type ReservationService struct {
	store     QuotaStore
	ledger    Ledger
	records   RecordStore
	tables    CapacityTables
	publisher events.Publisher
	clock     clock.Clock
}

func NewReservationService(store QuotaStore, ledger Ledger, records RecordStore, tables CapacityTables, publisher events.Publisher, clk clock.Clock) *ReservationService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ReservationService{
		store:     store,
		ledger:    ledger,
		records:   records,
		tables:    tables,
		publisher: publisher,
		clock:     clk,
	}
}

type ConsumeReservationInput struct {
	ReservationID string
	Lines         []domain.TicketLine
	BusinessID    string
}

// ConsumeReservation fulfills a reservation's lines. Matched quotas are
// drawn in priority order; the ledger's group and ticket counters take
// the full quantity of every line regardless of the quota outcome. The
// quota draws, ledger increments, and record save commit as one
// transaction. The returned record holds the exact quota deltas for
// later reversal and may be empty when no business or no quota matched.
func (s *ReservationService) ConsumeReservation(ctx context.Context, in ConsumeReservationInput) (domain.ConsumptionRecord, error) {
	reservationID := in.ReservationID
	if reservationID == "" {
		reservationID = newID()
	}

	var business *domain.Business
	if in.BusinessID != "" {
		if b, ok := s.tables.BusinessByID(in.BusinessID); ok {
			business = &b
		}
	}

	record := domain.ConsumptionRecord{
		ReservationID: reservationID,
		CreatedAt:     s.clock.Now(),
	}

	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		for _, line := range in.Lines {
			if line.Quantity <= 0 {
				return domain.ErrInvalidQuantity
			}
			scope, err := domain.ParseTicketLine(line.TicketID)
			if err != nil {
				return err
			}

			if business != nil {
				quotas, err := s.store.ListByGroup(ctx, scope.Group)
				if err != nil {
					return err
				}
				plan := domain.BuildPlan(quotas, *business, scope, line.Quantity, s.tables.Channels())
				for _, draw := range plan.Draws {
					if err := s.store.Consume(ctx, draw.QuotaID, draw.Amount); err != nil {
						return err
					}
					record.Entries = append(record.Entries, domain.ConsumptionEntry{
						QuotaID: draw.QuotaID,
						Amount:  draw.Amount,
					})
				}
			}

			if scope.TicketLevel() {
				if err := s.ledger.IncrementTicketSold(ctx, scope.Group, scope.Option, line.Quantity); err != nil {
					return err
				}
			}
			if err := s.ledger.IncrementGroupSold(ctx, scope.Group, line.Quantity); err != nil {
				return err
			}
		}

		return s.records.SaveRecord(ctx, record)
	})
	if err != nil {
		return domain.ConsumptionRecord{}, err
	}

	_ = s.publisher.ReservationConsumed(ctx, s.event(record.ReservationID, in.BusinessID, in.Lines))
	return record, nil
}

type ReleaseReservationInput struct {
	ReservationID string
	Lines         []domain.TicketLine
}

// ReleaseReservation reverses a consumption: every recorded quota draw
// is released (sold floored at zero by the store) and the ledger
// counters are decremented by each line's quantity, mirroring the
// unconditional increment on consume. The releases, decrements, and
// record delete commit as one transaction. Whether a reservation is
// released exactly once is the caller's responsibility; a missing
// record is treated as empty and the ledger is still decremented.
func (s *ReservationService) ReleaseReservation(ctx context.Context, in ReleaseReservationInput) error {
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		record, err := s.records.FindRecord(ctx, in.ReservationID)
		if err != nil {
			return err
		}
		if record != nil {
			for _, entry := range record.Entries {
				if err := s.store.Release(ctx, entry.QuotaID, entry.Amount); err != nil {
					return err
				}
			}
		}

		for _, line := range in.Lines {
			scope, err := domain.ParseTicketLine(line.TicketID)
			if err != nil {
				return err
			}
			if scope.TicketLevel() {
				if err := s.ledger.DecrementTicketSold(ctx, scope.Group, scope.Option, line.Quantity); err != nil {
					return err
				}
			}
			if err := s.ledger.DecrementGroupSold(ctx, scope.Group, line.Quantity); err != nil {
				return err
			}
		}

		return s.records.DeleteRecord(ctx, in.ReservationID)
	})
	if err != nil {
		return err
	}

	_ = s.publisher.ReservationReleased(ctx, s.event(in.ReservationID, "", in.Lines))
	return nil
}

func (s *ReservationService) event(reservationID, businessID string, lines []domain.TicketLine) events.ReservationEvent {
	ev := events.ReservationEvent{
		ReservationID: reservationID,
		BusinessID:    businessID,
		OccurredAt:    s.clock.Now(),
	}
	for _, line := range lines {
		ev.Lines = append(ev.Lines, events.EventLine{TicketID: line.TicketID, Quantity: line.Quantity})
	}
	return ev
}
