// Package events publishes reservation lifecycle notifications for
// downstream consumers (reporting, channel sync). Publishing is best
// effort; the engine's accounting never depends on it.
package events

import (
	"context"
	"time"
)

// ReservationEvent describes a consumed or released reservation.
type ReservationEvent struct {
	ReservationID string      `json:"reservation_id"`
	BusinessID    string      `json:"business_id,omitempty"`
	Lines         []EventLine `json:"lines"`
	OccurredAt    time.Time   `json:"occurred_at"`
}

type EventLine struct {
	TicketID string `json:"ticket_id"`
	Quantity int    `json:"quantity"`
}

type Publisher interface {
	ReservationConsumed(ctx context.Context, ev ReservationEvent) error
	ReservationReleased(ctx context.Context, ev ReservationEvent) error
}

// NopPublisher discards all events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) ReservationConsumed(context.Context, ReservationEvent) error { return nil }
func (NopPublisher) ReservationReleased(context.Context, ReservationEvent) error { return nil }
