package stats

import (
	"context"
	"time"
)

// Store abstracts per-date statistic persistence. Implementations must
// enforce (country_id, date) uniqueness themselves - Insert trips the
// constraint atomically rather than check-then-insert, and Upsert uses an
// atomic conditional replace so concurrent upserts never lose an update or
// duplicate a row. Sentinel errors signal not-found and conflict facts.
type Store interface {
	// ListByCountry returns all rows for a country, date ascending.
	ListByCountry(ctx context.Context, countryID int64) ([]DailyStatistic, error)
	// FindByDate returns the single row for (countryID, date).
	FindByDate(ctx context.Context, countryID int64, date time.Time) (*DailyStatistic, error)
	// ListDates returns the recorded dates for a country, ascending. An empty
	// slice is not an error.
	ListDates(ctx context.Context, countryID int64) ([]time.Time, error)
	// LatestByCountry returns the most recent row for a country.
	LatestByCountry(ctx context.Context, countryID int64) (*DailyStatistic, error)
	// Insert persists a new row; sentinel.ErrConflict when the key exists.
	Insert(ctx context.Context, stat DailyStatistic) error
	// Upsert inserts or replaces all four counts for the key (last write wins).
	Upsert(ctx context.Context, stat DailyStatistic) error
	// DeleteByDate removes exactly one row; sentinel.ErrNotFound when absent.
	DeleteByDate(ctx context.Context, countryID int64, date time.Time) error
}
