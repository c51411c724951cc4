package app

import (
	"context"
	"fmt"

	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/clock"
	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/domain"
)

// QuotaService owns quota record lifecycle: creation, edits, deletion,
// listing, and capacity validation against the scope's base capacity.
type QuotaService struct {
	store  QuotaStore
	ledger Ledger
	tables CapacityTables
	clock  clock.Clock
}

func NewQuotaService(store QuotaStore, ledger Ledger, tables CapacityTables, clk clock.Clock) *QuotaService {
	return &QuotaService{
		store:  store,
		ledger: ledger,
		tables: tables,
		clock:  clk,
	}
}

// CreateQuotaInput carries a new quota. Targets take precedence;
// Assignation is the legacy comma-joined form accepted for importers
// and parsed against the channel table.
type CreateQuotaInput struct {
	Name         string
	Type         domain.QuotaType
	Capacity     int
	Targets      []domain.AssignTarget
	Assignation  string
	Group        string
	TicketOption string
}

func (s *QuotaService) CreateQuota(ctx context.Context, in CreateQuotaInput) (domain.Quota, error) {
	if in.Name == "" {
		return domain.Quota{}, domain.ErrQuotaNameRequired
	}
	if !in.Type.Valid() {
		return domain.Quota{}, domain.ErrInvalidQuotaType
	}
	if in.Capacity < 0 {
		return domain.Quota{}, domain.ErrInvalidCapacity
	}
	if _, ok := s.tables.Group(in.Group); !ok {
		return domain.Quota{}, domain.ErrGroupNotFound
	}
	if in.TicketOption != "" {
		if _, ok := s.tables.TicketOption(in.Group, in.TicketOption); !ok {
			return domain.Quota{}, domain.ErrTicketOptionNotFound
		}
	}

	targets := in.Targets
	if len(targets) == 0 && in.Assignation != "" {
		targets = domain.ParseAssignation(in.Assignation, s.tables.Channels())
	}

	quota := domain.Quota{
		ID:           newID(),
		Name:         in.Name,
		Type:         in.Type,
		Capacity:     in.Capacity,
		Sold:         0,
		Available:    in.Capacity,
		Targets:      targets,
		Group:        in.Group,
		TicketOption: in.TicketOption,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.store.Create(ctx, quota); err != nil {
		return domain.Quota{}, err
	}
	return quota, nil
}

// ReplicateQuota bulk-adds copies of a template quota, one per name.
// Each copy starts unsold at the template's capacity.
func (s *QuotaService) ReplicateQuota(ctx context.Context, templateID string, names []string) ([]domain.Quota, error) {
	template, err := s.store.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, nil
	}

	out := make([]domain.Quota, 0, len(names))
	for _, name := range names {
		if name == "" {
			return nil, domain.ErrQuotaNameRequired
		}
		quota, err := s.CreateQuota(ctx, CreateQuotaInput{
			Name:         name,
			Type:         template.Type,
			Capacity:     template.Capacity,
			Targets:      append([]domain.AssignTarget(nil), template.Targets...),
			Group:        template.Group,
			TicketOption: template.TicketOption,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, quota)
	}
	return out, nil
}

// UpdateQuotaInput carries the fields of a partial quota edit. Nil
// fields are left untouched. Scope (group, ticket option) is fixed at
// creation and cannot be updated.
type UpdateQuotaInput struct {
	Name     *string
	Type     *domain.QuotaType
	Capacity *int
	Targets  *[]domain.AssignTarget
}

// UpdateQuota applies a partial edit. An unknown id is a silent no-op
// returning nil. A capacity change recomputes available from the
// existing sold and is rejected below it.
func (s *QuotaService) UpdateQuota(ctx context.Context, id string, in UpdateQuotaInput) (*domain.Quota, error) {
	quota, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if quota == nil {
		return nil, nil
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, domain.ErrQuotaNameRequired
		}
		quota.Name = *in.Name
	}
	if in.Type != nil {
		if !in.Type.Valid() {
			return nil, domain.ErrInvalidQuotaType
		}
		quota.Type = *in.Type
	}
	if in.Targets != nil {
		quota.Targets = append([]domain.AssignTarget(nil), (*in.Targets)...)
	}
	if in.Capacity != nil {
		if *in.Capacity < 0 {
			return nil, domain.ErrInvalidCapacity
		}
		if *in.Capacity < quota.Sold {
			return nil, domain.ErrCapacityBelowSold
		}
		quota.SetCapacity(*in.Capacity)
	}

	if err := s.store.Update(ctx, *quota); err != nil {
		return nil, err
	}
	return quota, nil
}

// SetQuotaCapacity is the bulk capacity-edit entry point: same
// recompute and rejection rules as UpdateQuota, unknown id no-op.
func (s *QuotaService) SetQuotaCapacity(ctx context.Context, id string, capacity int) (*domain.Quota, error) {
	return s.UpdateQuota(ctx, id, UpdateQuotaInput{Capacity: &capacity})
}

func (s *QuotaService) DeleteQuota(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// ListQuotas returns the quotas of a group in display order (blocked
// first, then insertion order). optionFilter narrows the listing: nil
// keeps every quota, a pointer to the empty string keeps group-level
// quotas only, any other value keeps quotas of that ticket option.
func (s *QuotaService) ListQuotas(ctx context.Context, group string, optionFilter *string) ([]domain.Quota, error) {
	if _, ok := s.tables.Group(group); !ok {
		return nil, domain.ErrGroupNotFound
	}
	quotas, err := s.store.ListByGroup(ctx, group)
	if err != nil {
		return nil, err
	}
	if optionFilter != nil {
		var filtered []domain.Quota
		for _, q := range quotas {
			if q.TicketOption == *optionFilter {
				filtered = append(filtered, q)
			}
		}
		quotas = filtered
	}
	return domain.SortForDisplay(quotas), nil
}

// ValidationResult reports whether a proposed quota capacity fits the
// scope. Violations are reported, never thrown, and never clamped.
type ValidationResult struct {
	IsValid      bool
	MaxAvailable int
	Message      string
}

// ValidateCapacity checks a proposed capacity for a new or edited quota
// against the scope's available capacity minus the capacity already
// allocated to other same-scope quotas. excludeQuotaID skips the quota
// being edited; ticketOption selects the ticket-level scope when set.
func (s *QuotaService) ValidateCapacity(ctx context.Context, group string, newCapacity int, excludeQuotaID, ticketOption string) (ValidationResult, error) {
	scopeAvailable, err := s.scopeAvailable(ctx, group, ticketOption)
	if err != nil {
		return ValidationResult{}, err
	}

	quotas, err := s.store.ListByGroup(ctx, group)
	if err != nil {
		return ValidationResult{}, err
	}
	scope := domain.Scope{Group: group, Option: ticketOption}
	allocated := 0
	for _, q := range domain.InScope(quotas, scope) {
		if q.ID == excludeQuotaID {
			continue
		}
		allocated += q.Capacity
	}

	maxAvailable := scopeAvailable - allocated
	if newCapacity < 0 {
		return ValidationResult{MaxAvailable: maxAvailable, Message: "capacity must not be negative"}, nil
	}
	if newCapacity > maxAvailable {
		return ValidationResult{
			MaxAvailable: maxAvailable,
			Message:      fmt.Sprintf("capacity exceeds available: at most %d can be allocated", maxAvailable),
		}, nil
	}
	return ValidationResult{IsValid: true, MaxAvailable: maxAvailable}, nil
}

func (s *QuotaService) scopeAvailable(ctx context.Context, group, option string) (int, error) {
	if option != "" {
		base, ok := s.tables.TicketOption(group, option)
		if !ok {
			return 0, domain.ErrTicketOptionNotFound
		}
		ledgerSold, err := s.ledger.TicketSold(ctx, group, option)
		if err != nil {
			return 0, err
		}
		return base.Available() - ledgerSold, nil
	}

	base, ok := s.tables.Group(group)
	if !ok {
		return 0, domain.ErrGroupNotFound
	}
	ledgerSold, err := s.ledger.GroupSold(ctx, group)
	if err != nil {
		return 0, err
	}
	return base.Available() - ledgerSold, nil
}
