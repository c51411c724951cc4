package domain

// CapacityGroup is the static configuration of one sellable pool for a
// time slot. Groups are supplied at process start and never created or
// destroyed by the engine.
type CapacityGroup struct {
	Name          string
	TotalCapacity int
	Sold          int
}

// Available returns the group's base capacity net of its baseline
// sales, before live ledger sales are subtracted.
func (g CapacityGroup) Available() int {
	return g.TotalCapacity - g.Sold
}

// TicketOptionCapacity is the independent base limit of one ticket
// option within a group. It is not a subdivision of the group total.
type TicketOptionCapacity struct {
	Group  string
	Option string
	Total  int
	Sold   int
}

func (t TicketOptionCapacity) Available() int {
	return t.Total - t.Sold
}
