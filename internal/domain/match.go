package domain

// Specificity ranks of a quota/business match. Lower is more specific.
const (
	SpecificityName     = 1
	SpecificityType     = 2
	SpecificityCatchAll = 3
)

// Specificity returns the priority rank at which a quota's assignation
// matches a business, and false when it does not match at all. Blocked
// quotas never match: blocked capacity is not consumed by a sale.
func Specificity(q Quota, b Business, channels ChannelMap) (int, bool) {
	if q.Blocked() {
		return 0, false
	}

	channel, hasChannel := channels.ChannelFor(b.Type)
	best := 0
	for _, t := range q.Targets {
		rank := 0
		switch t.Kind {
		case TargetName:
			if t.Value == b.Name {
				rank = SpecificityName
			}
		case TargetType:
			if t.Value == string(b.Type) {
				rank = SpecificityType
			}
		case TargetChannel:
			if hasChannel && t.Value == channel {
				rank = SpecificityType
			}
		case TargetCatchAll:
			if hasChannel {
				rank = SpecificityCatchAll
			}
		}
		if rank != 0 && (best == 0 || rank < best) {
			best = rank
		}
	}
	return best, best != 0
}

// Matches reports whether the quota's assignation covers the business.
func Matches(q Quota, b Business, channels ChannelMap) bool {
	_, ok := Specificity(q, b, channels)
	return ok
}
