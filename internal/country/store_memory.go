package country

import (
	"context"
	"sort"
	"strings"
	"sync"

	"epistats/pkg/platform/sentinel"
)

// InMemoryStore keeps the registry in a map keyed by normalized name. Used by
// unit tests and as the reference implementation for the postgres store.
type InMemoryStore struct {
	mu     sync.RWMutex
	byName map[string]*Country
	nextID int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byName: make(map[string]*Country), nextID: 1}
}

func (s *InMemoryStore) FindByName(_ context.Context, name string) (*Country, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byName[Normalize(name)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *InMemoryStore) ListNames(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.byName))
	for _, c := range s.byName {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *InMemoryStore) Add(_ context.Context, name string) (*Country, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := Normalize(name)
	if _, exists := s.byName[key]; exists {
		return nil, sentinel.ErrConflict
	}
	c := &Country{ID: s.nextID, Name: strings.TrimSpace(name)}
	s.nextID++
	s.byName[key] = c
	copied := *c
	return &copied, nil
}
