package aggregate

import "context"

// Store abstracts snapshot-total persistence. Name matching is always
// case/whitespace-insensitive. A unique index on the normalized name makes
// duplicate inserts a conflict (the historical schema allowed duplicates;
// the constraint closes that hole).
type Store interface {
	FindByName(ctx context.Context, name string) (*CountryAggregate, error)
	ListAll(ctx context.Context) ([]CountryAggregate, error)
	// ListByNames matches any of the given names in one pass.
	ListByNames(ctx context.Context, names []string) ([]CountryAggregate, error)
	Insert(ctx context.Context, agg CountryAggregate) error
	// Update replaces all four counts; sentinel.ErrNotFound when absent.
	Update(ctx context.Context, agg CountryAggregate) error
	// DeleteByName removes the row(s) matching the name.
	DeleteByName(ctx context.Context, name string) error
}
