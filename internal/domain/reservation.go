package domain

import "time"

// ConsumptionEntry records one quota draw applied while fulfilling a
// reservation.
type ConsumptionEntry struct {
	QuotaID string `json:"quota_id"`
	Amount  int    `json:"amount"`
}

// ConsumptionRecord is the ordered list of quota draws a reservation
// produced. It is kept until the reservation is cancelled so the exact
// same deltas can be reversed, then discarded.
type ConsumptionRecord struct {
	ReservationID string
	Entries       []ConsumptionEntry
	CreatedAt     time.Time
}
