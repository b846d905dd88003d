package aggregate

import (
	"context"
	"sort"
	"sync"

	"epistats/internal/country"
	"epistats/pkg/platform/sentinel"
)

// InMemoryStore keeps aggregates in a map keyed by normalized country name.
type InMemoryStore struct {
	mu   sync.RWMutex
	rows map[string]CountryAggregate
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{rows: make(map[string]CountryAggregate)}
}

func (s *InMemoryStore) FindByName(_ context.Context, name string) (*CountryAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[country.Normalize(name)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &row, nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]CountryAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]CountryAggregate, 0, len(s.rows))
	for _, row := range s.rows {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CountryName < rows[j].CountryName })
	return rows, nil
}

func (s *InMemoryStore) ListByNames(_ context.Context, names []string) ([]CountryAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rows []CountryAggregate
	for _, name := range names {
		if row, ok := s.rows[country.Normalize(name)]; ok {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CountryName < rows[j].CountryName })
	return rows, nil
}

func (s *InMemoryStore) Insert(_ context.Context, agg CountryAggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := country.Normalize(agg.CountryName)
	if _, exists := s.rows[key]; exists {
		return sentinel.ErrConflict
	}
	s.rows[key] = agg
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, agg CountryAggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := country.Normalize(agg.CountryName)
	existing, ok := s.rows[key]
	if !ok {
		return sentinel.ErrNotFound
	}
	agg.CountryName = existing.CountryName
	s.rows[key] = agg
	return nil
}

func (s *InMemoryStore) DeleteByName(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := country.Normalize(name)
	if _, exists := s.rows[key]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.rows, key)
	return nil
}
