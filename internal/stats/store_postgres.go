package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"epistats/pkg/platform/sentinel"
)

// PostgresStore persists daily statistics in PostgreSQL. The composite
// primary key (country_id, date) carries the uniqueness invariant; Insert
// relies on it for atomic conflict detection and Upsert uses
// ON CONFLICT DO UPDATE so concurrent writers serialize at the row.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const statColumns = `country_id, date, total_cases, total_deaths, total_recoveries, active_cases`

func (s *PostgresStore) ListByCountry(ctx context.Context, countryID int64) ([]DailyStatistic, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+statColumns+` FROM daily_statistics WHERE country_id = $1 ORDER BY date`,
		countryID,
	)
	if err != nil {
		return nil, fmt.Errorf("list statistics: %w", err)
	}
	defer rows.Close()
	return scanStats(rows)
}

func (s *PostgresStore) FindByDate(ctx context.Context, countryID int64, date time.Time) (*DailyStatistic, error) {
	var stat DailyStatistic
	err := s.db.QueryRowContext(ctx,
		`SELECT `+statColumns+` FROM daily_statistics WHERE country_id = $1 AND date = $2`,
		countryID, Day(date),
	).Scan(&stat.CountryID, &stat.Date, &stat.TotalCases, &stat.TotalDeaths, &stat.TotalRecoveries, &stat.ActiveCases)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find statistic: %w", err)
	}
	stat.Date = Day(stat.Date)
	return &stat, nil
}

func (s *PostgresStore) ListDates(ctx context.Context, countryID int64) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date FROM daily_statistics WHERE country_id = $1 ORDER BY date`,
		countryID,
	)
	if err != nil {
		return nil, fmt.Errorf("list dates: %w", err)
	}
	defer rows.Close()

	dates := make([]time.Time, 0)
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		dates = append(dates, Day(d))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dates: %w", err)
	}
	return dates, nil
}

func (s *PostgresStore) LatestByCountry(ctx context.Context, countryID int64) (*DailyStatistic, error) {
	var stat DailyStatistic
	err := s.db.QueryRowContext(ctx,
		`SELECT `+statColumns+` FROM daily_statistics WHERE country_id = $1 ORDER BY date DESC LIMIT 1`,
		countryID,
	).Scan(&stat.CountryID, &stat.Date, &stat.TotalCases, &stat.TotalDeaths, &stat.TotalRecoveries, &stat.ActiveCases)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("latest statistic: %w", err)
	}
	stat.Date = Day(stat.Date)
	return &stat, nil
}

func (s *PostgresStore) Insert(ctx context.Context, stat DailyStatistic) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_statistics (`+statColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		stat.CountryID, Day(stat.Date), stat.TotalCases, stat.TotalDeaths, stat.TotalRecoveries, stat.ActiveCases,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert statistic: %w", err)
	}
	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, stat DailyStatistic) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_statistics (`+statColumns+`) VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (country_id, date) DO UPDATE SET
			total_cases = EXCLUDED.total_cases,
			total_deaths = EXCLUDED.total_deaths,
			total_recoveries = EXCLUDED.total_recoveries,
			active_cases = EXCLUDED.active_cases`,
		stat.CountryID, Day(stat.Date), stat.TotalCases, stat.TotalDeaths, stat.TotalRecoveries, stat.ActiveCases,
	)
	if err != nil {
		return fmt.Errorf("upsert statistic: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteByDate(ctx context.Context, countryID int64, date time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM daily_statistics WHERE country_id = $1 AND date = $2`,
		countryID, Day(date),
	)
	if err != nil {
		return fmt.Errorf("delete statistic: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete statistic rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanStats(rows *sql.Rows) ([]DailyStatistic, error) {
	var stats []DailyStatistic
	for rows.Next() {
		var stat DailyStatistic
		if err := rows.Scan(&stat.CountryID, &stat.Date, &stat.TotalCases, &stat.TotalDeaths, &stat.TotalRecoveries, &stat.ActiveCases); err != nil {
			return nil, fmt.Errorf("scan statistic: %w", err)
		}
		stat.Date = Day(stat.Date)
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate statistics: %w", err)
	}
	return stats, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
