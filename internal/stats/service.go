package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"epistats/internal/country"
	"epistats/internal/stats/metrics"
	"epistats/pkg/platform/sentinel"
	"epistats/pkg/requestcontext"

	dErrors "epistats/pkg/domain-errors"
)

// CountryResolver resolves a raw country name to its canonical identity.
// Implemented by country.Service; statistics never create countries.
type CountryResolver interface {
	Resolve(ctx context.Context, rawName string) (*country.Country, error)
}

// Service owns the daily statistic lifecycle: strict insert, idempotent
// upsert, point and range lookups, and explicit delete. Country names are
// resolved through the registry on every call.
type Service struct {
	countries CountryResolver
	store     Store
	metrics   *metrics.Metrics
}

func NewService(countries CountryResolver, store Store, metrics *metrics.Metrics) *Service {
	return &Service{
		countries: countries,
		store:     store,
		metrics:   metrics,
	}
}

// Get returns all recorded rows for a country, date ascending.
func (s *Service) Get(ctx context.Context, countryName string) ([]DailyStatistic, error) {
	start := time.Now()
	c, err := s.countries.Resolve(ctx, countryName)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListByCountry(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("get statistics: %w", err)
	}
	if len(rows) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("no data found for country %q", c.Name))
	}
	s.metrics.ObserveLookup(time.Since(start).Seconds())
	return rows, nil
}

// GetByDate returns the single row for (country, date). Country and date
// misses are distinct not-found errors.
func (s *Service) GetByDate(ctx context.Context, countryName string, date time.Time) (*DailyStatistic, error) {
	start := time.Now()
	c, err := s.countries.Resolve(ctx, countryName)
	if err != nil {
		return nil, err
	}
	stat, err := s.store.FindByDate(ctx, c.ID, date)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound,
				fmt.Sprintf("no data for %s on %s", c.Name, Day(date).Format(DateFormat)))
		}
		return nil, fmt.Errorf("get statistic by date: %w", err)
	}
	s.metrics.ObserveLookup(time.Since(start).Seconds())
	return stat, nil
}

// ListDates returns the recorded dates for a country, ascending. A country
// with no rows yields an empty slice, not an error.
func (s *Service) ListDates(ctx context.Context, countryName string) ([]time.Time, error) {
	c, err := s.countries.Resolve(ctx, countryName)
	if err != nil {
		return nil, err
	}
	dates, err := s.store.ListDates(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("list dates: %w", err)
	}
	if dates == nil {
		dates = []time.Time{}
	}
	return dates, nil
}

// Insert persists a new observation. Strict: an existing (country, date) key
// is a conflict, detected atomically by the storage constraint.
func (s *Service) Insert(ctx context.Context, countryName string, date time.Time, counts Counts) (*DailyStatistic, error) {
	stat, err := s.prepare(ctx, countryName, date, counts)
	if err != nil {
		s.metrics.RecordMutation("insert", "rejected")
		return nil, err
	}
	if err := s.store.Insert(ctx, *stat); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.RecordMutation("insert", "conflict")
			return nil, dErrors.New(dErrors.CodeConflict,
				fmt.Sprintf("data already exists for %q on %s", countryName, stat.Date.Format(DateFormat)))
		}
		s.metrics.RecordMutation("insert", "error")
		return nil, fmt.Errorf("insert statistic: %w", err)
	}
	s.metrics.RecordMutation("insert", "ok")
	return stat, nil
}

// Upsert inserts or wholesale-replaces the counts for (country, date).
// Last write wins; repeated identical calls converge.
func (s *Service) Upsert(ctx context.Context, countryName string, date time.Time, counts Counts) (*DailyStatistic, error) {
	stat, err := s.prepare(ctx, countryName, date, counts)
	if err != nil {
		s.metrics.RecordMutation("upsert", "rejected")
		return nil, err
	}
	if err := s.store.Upsert(ctx, *stat); err != nil {
		s.metrics.RecordMutation("upsert", "error")
		return nil, fmt.Errorf("upsert statistic: %w", err)
	}
	s.metrics.RecordMutation("upsert", "ok")
	return stat, nil
}

// Delete removes exactly the one (country, date) row.
func (s *Service) Delete(ctx context.Context, countryName string, date time.Time) error {
	c, err := s.countries.Resolve(ctx, countryName)
	if err != nil {
		s.metrics.RecordMutation("delete", "rejected")
		return err
	}
	if err := s.store.DeleteByDate(ctx, c.ID, date); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.RecordMutation("delete", "not_found")
			return dErrors.New(dErrors.CodeNotFound,
				fmt.Sprintf("no data for %s on %s", c.Name, Day(date).Format(DateFormat)))
		}
		s.metrics.RecordMutation("delete", "error")
		return fmt.Errorf("delete statistic: %w", err)
	}
	s.metrics.RecordMutation("delete", "ok")
	return nil
}

// prepare resolves the country and validates date and counts, returning the
// row ready to persist.
func (s *Service) prepare(ctx context.Context, countryName string, date time.Time, counts Counts) (*DailyStatistic, error) {
	if err := validateCounts(counts); err != nil {
		return nil, err
	}
	day := Day(date)
	today := Day(requestcontext.Now(ctx))
	if day.After(today) {
		return nil, dErrors.New(dErrors.CodeValidation, "date must not be in the future")
	}
	c, err := s.countries.Resolve(ctx, countryName)
	if err != nil {
		return nil, err
	}
	return &DailyStatistic{CountryID: c.ID, Date: day, Counts: counts}, nil
}

func validateCounts(counts Counts) error {
	for _, field := range []struct {
		name  string
		value int64
	}{
		{"totalCases", counts.TotalCases},
		{"totalDeaths", counts.TotalDeaths},
		{"totalRecoveries", counts.TotalRecoveries},
		{"activeCases", counts.ActiveCases},
	} {
		if field.value < 0 {
			return dErrors.New(dErrors.CodeValidation, field.name+" must not be negative")
		}
	}
	return nil
}
