package domain

import "time"

type QuotaType string

const (
	QuotaTypeExclusive QuotaType = "exclusive"
	QuotaTypeShared    QuotaType = "shared"
	QuotaTypeBlocked   QuotaType = "blocked"
)

// Valid reports whether t is one of the known quota types.
func (t QuotaType) Valid() bool {
	switch t {
	case QuotaTypeExclusive, QuotaTypeShared, QuotaTypeBlocked:
		return true
	}
	return false
}

type TargetKind string

const (
	TargetName     TargetKind = "name"
	TargetType     TargetKind = "type"
	TargetChannel  TargetKind = "channel"
	TargetCatchAll TargetKind = "catch-all"
)

// AssignTarget is one entry of a quota's assignation list: a business
// name, a business type, a channel label, or the reseller catch-all.
type AssignTarget struct {
	Kind  TargetKind `json:"kind"`
	Value string     `json:"value"`
}

// CatchAllLabel is the assignation value matching any business whose
// type has a channel mapping.
const CatchAllLabel = "B2B Portals"

// NoAssignation is the sentinel the back office renders for quotas
// without targets. It never matches a business.
const NoAssignation = "No assignation"

// Quota is a named sub-allocation of a group's or ticket option's
// capacity. Sold and Available always satisfy
// Available == Capacity - Sold and 0 <= Sold.
type Quota struct {
	ID           string
	Name         string
	Type         QuotaType
	Capacity     int
	Sold         int
	Available    int
	Targets      []AssignTarget
	Group        string
	TicketOption string
	CreatedAt    time.Time
}

// Scope returns the capacity pool the quota subdivides. A quota is
// group-level or ticket-level for its whole lifetime.
func (q Quota) Scope() Scope {
	return Scope{Group: q.Group, Option: q.TicketOption}
}

// Blocked reports whether the quota reserves unsellable capacity.
func (q Quota) Blocked() bool {
	return q.Type == QuotaTypeBlocked
}

// SetCapacity updates the ceiling and recomputes Available from the
// existing Sold.
func (q *Quota) SetCapacity(capacity int) {
	q.Capacity = capacity
	q.Available = q.Capacity - q.Sold
}

// Consume adds amount to Sold and recomputes Available.
func (q *Quota) Consume(amount int) {
	q.Sold += amount
	q.Available = q.Capacity - q.Sold
}

// Release subtracts amount from Sold, clamping at zero so a double
// release can never drive Sold negative, and recomputes Available.
func (q *Quota) Release(amount int) {
	q.Sold -= amount
	if q.Sold < 0 {
		q.Sold = 0
	}
	q.Available = q.Capacity - q.Sold
}

// SortForDisplay orders quotas the way the back office lists them:
// blocked quotas first, everything else in insertion order.
func SortForDisplay(quotas []Quota) []Quota {
	out := make([]Quota, 0, len(quotas))
	for _, q := range quotas {
		if q.Blocked() {
			out = append(out, q)
		}
	}
	for _, q := range quotas {
		if !q.Blocked() {
			out = append(out, q)
		}
	}
	return out
}
