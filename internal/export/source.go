package export

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"epistats/internal/aggregate"
	"epistats/internal/country"
	"epistats/internal/stats"
	"epistats/pkg/platform/sentinel"

	dErrors "epistats/pkg/domain-errors"
)

// Row is one exportable record. Both schema variants project into this shape.
type Row struct {
	CountryName     string
	TotalCases      int64
	TotalDeaths     int64
	TotalRecoveries int64
	ActiveCases     int64
}

// Source feeds rows to the projector. Which implementation is wired depends
// on the deployment's schema-variant flag.
type Source interface {
	// Rows returns every exportable row.
	Rows(ctx context.Context) ([]Row, error)
	// RowsByNames returns rows matching any of the given country names,
	// case/whitespace-insensitively, in one pass. Names without rows are
	// skipped, not errors.
	RowsByNames(ctx context.Context, names []string) ([]Row, error)
}

// AggregateSource exports the flattened snapshot table (the default).
type AggregateSource struct {
	store aggregate.Store
}

func NewAggregateSource(store aggregate.Store) *AggregateSource {
	return &AggregateSource{store: store}
}

func (s *AggregateSource) Rows(ctx context.Context) ([]Row, error) {
	aggs, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("export rows: %w", err)
	}
	return fromAggregates(aggs), nil
}

func (s *AggregateSource) RowsByNames(ctx context.Context, names []string) ([]Row, error) {
	aggs, err := s.store.ListByNames(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("export rows by names: %w", err)
	}
	return fromAggregates(aggs), nil
}

func fromAggregates(aggs []aggregate.CountryAggregate) []Row {
	rows := make([]Row, 0, len(aggs))
	for _, agg := range aggs {
		rows = append(rows, Row{
			CountryName:     agg.CountryName,
			TotalCases:      agg.TotalCases,
			TotalDeaths:     agg.TotalDeaths,
			TotalRecoveries: agg.TotalRecoveries,
			ActiveCases:     agg.ActiveCases,
		})
	}
	return rows
}

// CountryDirectory is the registry surface the daily source needs.
type CountryDirectory interface {
	Resolve(ctx context.Context, rawName string) (*country.Country, error)
	List(ctx context.Context) ([]string, error)
}

// DailySource exports each country's most recent recorded day from the
// per-date store (the foreign-keyed schema variant). Per-country lookups fan
// out concurrently.
type DailySource struct {
	countries CountryDirectory
	store     stats.Store
}

func NewDailySource(countries CountryDirectory, store stats.Store) *DailySource {
	return &DailySource{countries: countries, store: store}
}

func (s *DailySource) Rows(ctx context.Context) ([]Row, error) {
	names, err := s.countries.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("export rows: %w", err)
	}
	return s.latestRows(ctx, names)
}

func (s *DailySource) RowsByNames(ctx context.Context, names []string) ([]Row, error) {
	return s.latestRows(ctx, names)
}

func (s *DailySource) latestRows(ctx context.Context, names []string) ([]Row, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	var mu sync.Mutex
	var rows []Row
	for _, name := range names {
		g.Go(func() error {
			c, err := s.countries.Resolve(ctx, name)
			if err != nil {
				// Unknown names are skipped; the caller decides whether an
				// empty result is an error.
				if dErrors.CodeOf(err) == dErrors.CodeNotFound {
					return nil
				}
				return err
			}
			latest, err := s.store.LatestByCountry(ctx, c.ID)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					return nil
				}
				return fmt.Errorf("latest row for %s: %w", c.Name, err)
			}
			mu.Lock()
			rows = append(rows, Row{
				CountryName:     c.Name,
				TotalCases:      latest.TotalCases,
				TotalDeaths:     latest.TotalDeaths,
				TotalRecoveries: latest.TotalRecoveries,
				ActiveCases:     latest.ActiveCases,
			})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CountryName < rows[j].CountryName })
	return rows, nil
}
