// Package memory provides the in-process storage backend: quota
// records, ledger counters, and consumption records behind one mutex,
// so consume and release never interleave for the same quota or
// counter.
package memory

import (
	"context"
	"sync"

	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/domain"
)

type ticketKey struct {
	group  string
	option string
}

// Store implements the quota store, ledger, and record store over
// in-memory maps.
type Store struct {
	mu         sync.Mutex
	quotas     map[string]*domain.Quota
	quotaOrder []string
	groupSold  map[string]int
	ticketSold map[ticketKey]int
	records    map[string]domain.ConsumptionRecord
}

func NewStore() *Store {
	return &Store{
		quotas:     make(map[string]*domain.Quota),
		groupSold:  make(map[string]int),
		ticketSold: make(map[ticketKey]int),
		records:    make(map[string]domain.ConsumptionRecord),
	}
}

// WithTx runs fn directly: every individual operation is already
// atomic under the store mutex, and there is nothing to roll back.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *Store) Create(_ context.Context, q domain.Quota) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := cloneQuota(q)
	s.quotas[q.ID] = &copied
	s.quotaOrder = append(s.quotaOrder, q.ID)
	return nil
}

func (s *Store) Get(_ context.Context, id string) (*domain.Quota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotas[id]
	if !ok {
		return nil, nil
	}
	copied := cloneQuota(*q)
	return &copied, nil
}

// Update replaces the stored record. Unknown ids are a silent no-op.
func (s *Store) Update(_ context.Context, q domain.Quota) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quotas[q.ID]; !ok {
		return nil
	}
	copied := cloneQuota(q)
	s.quotas[q.ID] = &copied
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quotas[id]; !ok {
		return nil
	}
	delete(s.quotas, id)
	for i, existing := range s.quotaOrder {
		if existing == id {
			s.quotaOrder = append(s.quotaOrder[:i], s.quotaOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) ListByGroup(_ context.Context, group string) ([]domain.Quota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Quota
	for _, id := range s.quotaOrder {
		q := s.quotas[id]
		if q.Group == group {
			out = append(out, cloneQuota(*q))
		}
	}
	return out, nil
}

func (s *Store) Consume(_ context.Context, id string, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.quotas[id]; ok {
		q.Consume(amount)
	}
	return nil
}

func (s *Store) Release(_ context.Context, id string, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.quotas[id]; ok {
		q.Release(amount)
	}
	return nil
}

func (s *Store) IncrementGroupSold(_ context.Context, group string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupSold[group] += quantity
	return nil
}

func (s *Store) DecrementGroupSold(_ context.Context, group string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.groupSold[group] - quantity
	if next < 0 {
		next = 0
	}
	s.groupSold[group] = next
	return nil
}

func (s *Store) IncrementTicketSold(_ context.Context, group, option string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticketSold[ticketKey{group, option}] += quantity
	return nil
}

func (s *Store) DecrementTicketSold(_ context.Context, group, option string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ticketKey{group, option}
	next := s.ticketSold[key] - quantity
	if next < 0 {
		next = 0
	}
	s.ticketSold[key] = next
	return nil
}

func (s *Store) GroupSold(_ context.Context, group string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.groupSold[group], nil
}

func (s *Store) TicketSold(_ context.Context, group, option string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticketSold[ticketKey{group, option}], nil
}

func (s *Store) SaveRecord(_ context.Context, record domain.ConsumptionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record.Entries = append([]domain.ConsumptionEntry(nil), record.Entries...)
	s.records[record.ReservationID] = record
	return nil
}

func (s *Store) FindRecord(_ context.Context, reservationID string) (*domain.ConsumptionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[reservationID]
	if !ok {
		return nil, nil
	}
	record.Entries = append([]domain.ConsumptionEntry(nil), record.Entries...)
	return &record, nil
}

func (s *Store) DeleteRecord(_ context.Context, reservationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, reservationID)
	return nil
}

func cloneQuota(q domain.Quota) domain.Quota {
	q.Targets = append([]domain.AssignTarget(nil), q.Targets...)
	return q
}
