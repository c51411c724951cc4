package domain

type BusinessType string

const (
	BusinessTypeAgency       BusinessType = "Agency"
	BusinessTypeTourOperator BusinessType = "Tour Operator"
	BusinessTypeReseller     BusinessType = "Reseller"
	BusinessTypeCorporate    BusinessType = "Corporate"
	BusinessTypePromoter     BusinessType = "Promoter"
)

// Valid reports whether t is one of the known business types.
func (t BusinessType) Valid() bool {
	switch t {
	case BusinessTypeAgency, BusinessTypeTourOperator, BusinessTypeReseller,
		BusinessTypeCorporate, BusinessTypePromoter:
		return true
	}
	return false
}

// Business is a purchasing company. Only the fields the quota engine
// reads; everything else about businesses lives outside the engine.
type Business struct {
	ID   string
	Name string
	Type BusinessType
}

// ChannelMap maps reseller-style business types to the sales channel
// label quotas may be assigned to. Types without an entry are direct
// buyers and never match channel or catch-all targets.
type ChannelMap map[BusinessType]string

// ChannelFor returns the channel label for a business type, if any.
func (m ChannelMap) ChannelFor(t BusinessType) (string, bool) {
	label, ok := m[t]
	return label, ok
}

// IsChannelLabel reports whether value is one of the mapped channel labels.
func (m ChannelMap) IsChannelLabel(value string) bool {
	for _, label := range m {
		if label == value {
			return true
		}
	}
	return false
}
