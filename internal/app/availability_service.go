package app

import (
	"context"

	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/domain"
)

// AvailabilityService answers read-only capacity questions: how much a
// business could buy in a scope, and the free-capacity display row.
type AvailabilityService struct {
	store  QuotaStore
	ledger Ledger
	tables CapacityTables
}

func NewAvailabilityService(store QuotaStore, ledger Ledger, tables CapacityTables) *AvailabilityService {
	return &AvailabilityService{
		store:  store,
		ledger: ledger,
		tables: tables,
	}
}

type EstimateInput struct {
	Group        string
	TicketOption string
	BusinessID   string
}

// Estimate computes the availability for a scope and an optional
// business. An unknown or absent business id falls back to the
// no-business path, returning the base availability unmodified.
func (s *AvailabilityService) Estimate(ctx context.Context, in EstimateInput) (domain.Availability, error) {
	scope := domain.Scope{Group: in.Group, Option: in.TicketOption}
	baseAvailable, _, err := s.scopeBase(ctx, scope)
	if err != nil {
		return domain.Availability{}, err
	}

	quotas, err := s.store.ListByGroup(ctx, scope.Group)
	if err != nil {
		return domain.Availability{}, err
	}

	var business *domain.Business
	if in.BusinessID != "" {
		if b, ok := s.tables.BusinessByID(in.BusinessID); ok {
			business = &b
		}
	}

	return domain.EstimateAvailability(baseAvailable, quotas, business, scope, s.tables.Channels()), nil
}

// FreeCapacity computes the "free capacity (no quota)" row of a scope.
func (s *AvailabilityService) FreeCapacity(ctx context.Context, scope domain.Scope) (domain.CapacityRow, error) {
	_, aggregate, err := s.scopeBase(ctx, scope)
	if err != nil {
		return domain.CapacityRow{}, err
	}

	quotas, err := s.store.ListByGroup(ctx, scope.Group)
	if err != nil {
		return domain.CapacityRow{}, err
	}
	return domain.FreeCapacityRow(aggregate.total, aggregate.sold, quotas, scope), nil
}

type scopeTotals struct {
	total int
	sold  int
}

// scopeBase resolves a scope's base capacity: static total and baseline
// sold plus the live ledger counter. Returns base availability and the
// aggregate totals.
func (s *AvailabilityService) scopeBase(ctx context.Context, scope domain.Scope) (int, scopeTotals, error) {
	if scope.TicketLevel() {
		base, ok := s.tables.TicketOption(scope.Group, scope.Option)
		if !ok {
			return 0, scopeTotals{}, domain.ErrTicketOptionNotFound
		}
		ledgerSold, err := s.ledger.TicketSold(ctx, scope.Group, scope.Option)
		if err != nil {
			return 0, scopeTotals{}, err
		}
		totals := scopeTotals{total: base.Total, sold: base.Sold + ledgerSold}
		return clampZero(base.Total - totals.sold), totals, nil
	}

	base, ok := s.tables.Group(scope.Group)
	if !ok {
		return 0, scopeTotals{}, domain.ErrGroupNotFound
	}
	ledgerSold, err := s.ledger.GroupSold(ctx, scope.Group)
	if err != nil {
		return 0, scopeTotals{}, err
	}
	totals := scopeTotals{total: base.TotalCapacity, sold: base.Sold + ledgerSold}
	return clampZero(base.TotalCapacity - totals.sold), totals, nil
}

func clampZero(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
