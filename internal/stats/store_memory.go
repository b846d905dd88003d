package stats

import (
	"context"
	"sort"
	"sync"
	"time"

	"epistats/pkg/platform/sentinel"
)

type statKey struct {
	countryID int64
	date      string
}

func keyOf(countryID int64, date time.Time) statKey {
	return statKey{countryID: countryID, date: Day(date).Format(DateFormat)}
}

// InMemoryStore mirrors the postgres store's guarantees under a mutex: insert
// is first-writer-wins, upsert replaces whole rows atomically.
type InMemoryStore struct {
	mu    sync.RWMutex
	stats map[statKey]DailyStatistic
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{stats: make(map[statKey]DailyStatistic)}
}

func (s *InMemoryStore) ListByCountry(_ context.Context, countryID int64) ([]DailyStatistic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rows []DailyStatistic
	for k, stat := range s.stats {
		if k.countryID == countryID {
			rows = append(rows, stat)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows, nil
}

func (s *InMemoryStore) FindByDate(_ context.Context, countryID int64, date time.Time) (*DailyStatistic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stat, ok := s.stats[keyOf(countryID, date)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &stat, nil
}

func (s *InMemoryStore) ListDates(ctx context.Context, countryID int64) ([]time.Time, error) {
	rows, err := s.ListByCountry(ctx, countryID)
	if err != nil {
		return nil, err
	}
	dates := make([]time.Time, 0, len(rows))
	for _, row := range rows {
		dates = append(dates, row.Date)
	}
	return dates, nil
}

func (s *InMemoryStore) LatestByCountry(ctx context.Context, countryID int64) (*DailyStatistic, error) {
	rows, err := s.ListByCountry(ctx, countryID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, sentinel.ErrNotFound
	}
	latest := rows[len(rows)-1]
	return &latest, nil
}

func (s *InMemoryStore) Insert(_ context.Context, stat DailyStatistic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := keyOf(stat.CountryID, stat.Date)
	if _, exists := s.stats[key]; exists {
		return sentinel.ErrConflict
	}
	stat.Date = Day(stat.Date)
	s.stats[key] = stat
	return nil
}

func (s *InMemoryStore) Upsert(_ context.Context, stat DailyStatistic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stat.Date = Day(stat.Date)
	s.stats[keyOf(stat.CountryID, stat.Date)] = stat
	return nil
}

func (s *InMemoryStore) DeleteByDate(_ context.Context, countryID int64, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := keyOf(countryID, date)
	if _, exists := s.stats[key]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.stats, key)
	return nil
}
