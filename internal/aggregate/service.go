package aggregate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"epistats/pkg/platform/sentinel"

	dErrors "epistats/pkg/domain-errors"
)

// Service exposes CRUD over the snapshot-totals table. It is deliberately
// independent of the statistics service; the two views are never updated in
// one transaction and cross-view drift is an accepted property.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get returns the snapshot row for a country name.
func (s *Service) Get(ctx context.Context, name string) (*CountryAggregate, error) {
	row, err := s.store.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("no data found for country %q", strings.TrimSpace(name)))
		}
		return nil, fmt.Errorf("get aggregate: %w", err)
	}
	return row, nil
}

// Insert adds a snapshot row for a new country name.
func (s *Service) Insert(ctx context.Context, agg CountryAggregate) error {
	agg.CountryName = strings.TrimSpace(agg.CountryName)
	if agg.CountryName == "" {
		return dErrors.New(dErrors.CodeValidation, "country name is required")
	}
	if err := s.store.Insert(ctx, agg); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, fmt.Sprintf("aggregate for %q already exists", agg.CountryName))
		}
		return fmt.Errorf("insert aggregate: %w", err)
	}
	return nil
}

// Update replaces all four counts for an existing country name.
func (s *Service) Update(ctx context.Context, agg CountryAggregate) error {
	agg.CountryName = strings.TrimSpace(agg.CountryName)
	if agg.CountryName == "" {
		return dErrors.New(dErrors.CodeValidation, "country name is required")
	}
	if err := s.store.Update(ctx, agg); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("no data found for country %q", agg.CountryName))
		}
		return fmt.Errorf("update aggregate: %w", err)
	}
	return nil
}

// Delete removes the snapshot row(s) matching a country name. This is the
// legacy bulk-delete path behind DELETE /data/{country} without a date.
func (s *Service) Delete(ctx context.Context, name string) error {
	if err := s.store.DeleteByName(ctx, name); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("no data found for country %q", strings.TrimSpace(name)))
		}
		return fmt.Errorf("delete aggregate: %w", err)
	}
	return nil
}

// ListAll returns every snapshot row, name ascending.
func (s *Service) ListAll(ctx context.Context) ([]CountryAggregate, error) {
	rows, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list aggregates: %w", err)
	}
	return rows, nil
}
