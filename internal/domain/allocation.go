package domain

import "sort"

// QuotaDraw is one quota's contribution to fulfilling a quantity.
type QuotaDraw struct {
	QuotaID string
	Amount  int
}

// AllocationPlan is the outcome of planning a consumption: the ordered
// quota draws to apply plus any quantity no quota could supply. The
// remainder is the caller's to absorb against the free pool; when an
// exclusive quota matched, the remainder must not be drawn from shared
// quotas or free capacity.
type AllocationPlan struct {
	Draws     []QuotaDraw
	Remaining int
}

// InScope filters quotas to those subdividing exactly the given pool:
// same group, and same ticket-option presence and value.
func InScope(quotas []Quota, s Scope) []Quota {
	var out []Quota
	for _, q := range quotas {
		if q.Scope() == s {
			out = append(out, q)
		}
	}
	return out
}

// MatchingInPriorityOrder returns the non-blocked, in-scope quotas
// matching the business, most specific first. Quotas of equal
// specificity keep their relative list order.
func MatchingInPriorityOrder(quotas []Quota, b Business, s Scope, channels ChannelMap) []Quota {
	type ranked struct {
		quota Quota
		rank  int
	}
	var matched []ranked
	for _, q := range InScope(quotas, s) {
		if rank, ok := Specificity(q, b, channels); ok {
			matched = append(matched, ranked{quota: q, rank: rank})
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].rank < matched[j].rank
	})
	out := make([]Quota, 0, len(matched))
	for _, m := range matched {
		out = append(out, m.quota)
	}
	return out
}

// BuildPlan decides how a requested quantity is drawn from quotas.
// When any exclusive quota matches the business, only exclusive quotas
// may supply capacity; otherwise matching shared quotas are drawn, most
// specific first, each capped at its own available.
func BuildPlan(quotas []Quota, b Business, s Scope, quantity int, channels ChannelMap) AllocationPlan {
	matching := MatchingInPriorityOrder(quotas, b, s, channels)

	var exclusives []Quota
	for _, q := range matching {
		if q.Type == QuotaTypeExclusive {
			exclusives = append(exclusives, q)
		}
	}
	pool := matching
	if len(exclusives) > 0 {
		pool = exclusives
	}

	plan := AllocationPlan{Remaining: quantity}
	for _, q := range pool {
		if plan.Remaining == 0 {
			break
		}
		take := q.Available
		if take > plan.Remaining {
			take = plan.Remaining
		}
		if take <= 0 {
			continue
		}
		plan.Draws = append(plan.Draws, QuotaDraw{QuotaID: q.ID, Amount: take})
		plan.Remaining -= take
	}
	return plan
}

// Availability reason tags surfaced to the UI.
const (
	ReasonNoBusiness        = "no business selected"
	ReasonExclusiveQuota    = "exclusive quota for business"
	ReasonFreeCapacity      = "free capacity"
	ReasonFreeCapacityShare = "free capacity + shared quota"
)

// Availability is a read-only estimate of how much a business could buy
// in a scope, with the rule that produced the number.
type Availability struct {
	Available      int
	Reason         string
	MatchingQuotas []string
}

// EstimateAvailability computes the sellable quantity for a business in
// a scope without mutating anything. baseAvailable is the scope's base
// capacity minus gross sales; quota capacities (blocked included)
// reduce the free pool carved out of it.
func EstimateAvailability(baseAvailable int, quotas []Quota, b *Business, s Scope, channels ChannelMap) Availability {
	scoped := InScope(quotas, s)
	if b == nil {
		return Availability{Available: baseAvailable, Reason: ReasonNoBusiness}
	}

	matching := MatchingInPriorityOrder(scoped, *b, s, channels)
	ids := make([]string, 0, len(matching))
	for _, q := range matching {
		ids = append(ids, q.ID)
	}

	exclusiveTotal := 0
	hasExclusive := false
	for _, q := range matching {
		if q.Type == QuotaTypeExclusive {
			hasExclusive = true
			exclusiveTotal += q.Available
		}
	}
	if hasExclusive {
		return Availability{Available: exclusiveTotal, Reason: ReasonExclusiveQuota, MatchingQuotas: ids}
	}

	free := baseAvailable
	for _, q := range scoped {
		free -= q.Capacity
	}
	if free < 0 {
		free = 0
	}

	total := free
	reason := ReasonFreeCapacity
	if len(matching) > 0 {
		for _, q := range matching {
			total += q.Available
		}
		reason = ReasonFreeCapacityShare
	}
	return Availability{Available: total, Reason: reason, MatchingQuotas: ids}
}

// CapacityRow is the "free capacity (no quota)" display row of a scope.
type CapacityRow struct {
	Capacity  int
	Sold      int
	Available int
}

// FreeCapacityRow computes the unallocated portion of a scope. total is
// the scope's base capacity and sold its aggregate gross sales; the
// row's sold and available are what remains after the in-scope quotas'
// contributions, floored at zero.
func FreeCapacityRow(total, sold int, quotas []Quota, s Scope) CapacityRow {
	capacitySum, soldSum, availableSum := 0, 0, 0
	for _, q := range InScope(quotas, s) {
		capacitySum += q.Capacity
		soldSum += q.Sold
		availableSum += q.Available
	}

	row := CapacityRow{
		Capacity:  total - capacitySum,
		Sold:      sold - soldSum,
		Available: total - sold - availableSum,
	}
	if row.Sold < 0 {
		row.Sold = 0
	}
	if row.Available < 0 {
		row.Available = 0
	}
	return row
}
