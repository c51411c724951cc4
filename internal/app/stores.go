package app

import (
	"context"

	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/domain"
)

// QuotaStore holds quota records. Update, Consume, and Release are
// silent no-ops for unknown ids; ListByGroup returns quotas in
// insertion order. WithTx runs fn so that every store, ledger, and
// record write made through the callback's context commits or rolls
// back together.
type QuotaStore interface {
	Create(ctx context.Context, q domain.Quota) error
	Get(ctx context.Context, id string) (*domain.Quota, error)
	Update(ctx context.Context, q domain.Quota) error
	Delete(ctx context.Context, id string) error
	ListByGroup(ctx context.Context, group string) ([]domain.Quota, error)
	Consume(ctx context.Context, id string, amount int) error
	Release(ctx context.Context, id string, amount int) error
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Ledger tracks gross sales per group and per (group, ticket option),
// independent of quotas. Decrements floor at zero; counters come into
// existence on first increment.
type Ledger interface {
	IncrementGroupSold(ctx context.Context, group string, quantity int) error
	DecrementGroupSold(ctx context.Context, group string, quantity int) error
	IncrementTicketSold(ctx context.Context, group, option string, quantity int) error
	DecrementTicketSold(ctx context.Context, group, option string, quantity int) error
	GroupSold(ctx context.Context, group string) (int, error)
	TicketSold(ctx context.Context, group, option string) (int, error)
}

// RecordStore keeps consumption records between reservation creation
// and cancellation.
type RecordStore interface {
	SaveRecord(ctx context.Context, record domain.ConsumptionRecord) error
	FindRecord(ctx context.Context, reservationID string) (*domain.ConsumptionRecord, error)
	DeleteRecord(ctx context.Context, reservationID string) error
}

// CapacityTables exposes the static configuration supplied at process
// start, read-only to the engine.
type CapacityTables interface {
	Group(name string) (domain.CapacityGroup, bool)
	TicketOption(group, option string) (domain.TicketOptionCapacity, bool)
	Channels() domain.ChannelMap
	BusinessByID(id string) (domain.Business, bool)
}
