package aggregate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"epistats/internal/country"
	"epistats/pkg/platform/sentinel"
)

// PostgresStore persists snapshot totals in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const aggColumns = `country_name, total_cases, total_deaths, total_recoveries, active_cases`

func (s *PostgresStore) FindByName(ctx context.Context, name string) (*CountryAggregate, error) {
	var agg CountryAggregate
	err := s.db.QueryRowContext(ctx,
		`SELECT `+aggColumns+` FROM country_aggregates WHERE LOWER(TRIM(country_name)) = LOWER(TRIM($1))`,
		name,
	).Scan(&agg.CountryName, &agg.TotalCases, &agg.TotalDeaths, &agg.TotalRecoveries, &agg.ActiveCases)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find aggregate: %w", err)
	}
	return &agg, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]CountryAggregate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+aggColumns+` FROM country_aggregates ORDER BY country_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list aggregates: %w", err)
	}
	defer rows.Close()
	return scanAggregates(rows)
}

func (s *PostgresStore) ListByNames(ctx context.Context, names []string) ([]CountryAggregate, error) {
	normalized := make([]string, 0, len(names))
	for _, name := range names {
		normalized = append(normalized, country.Normalize(name))
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+aggColumns+` FROM country_aggregates
		 WHERE LOWER(TRIM(country_name)) = ANY($1) ORDER BY country_name`,
		pq.Array(normalized),
	)
	if err != nil {
		return nil, fmt.Errorf("list aggregates by names: %w", err)
	}
	defer rows.Close()
	return scanAggregates(rows)
}

func (s *PostgresStore) Insert(ctx context.Context, agg CountryAggregate) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO country_aggregates (`+aggColumns+`) VALUES (TRIM($1), $2, $3, $4, $5)`,
		agg.CountryName, agg.TotalCases, agg.TotalDeaths, agg.TotalRecoveries, agg.ActiveCases,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert aggregate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, agg CountryAggregate) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE country_aggregates SET
			total_cases = $2, total_deaths = $3, total_recoveries = $4, active_cases = $5
		 WHERE LOWER(TRIM(country_name)) = LOWER(TRIM($1))`,
		agg.CountryName, agg.TotalCases, agg.TotalDeaths, agg.TotalRecoveries, agg.ActiveCases,
	)
	if err != nil {
		return fmt.Errorf("update aggregate: %w", err)
	}
	return requireAffected(res)
}

func (s *PostgresStore) DeleteByName(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM country_aggregates WHERE LOWER(TRIM(country_name)) = LOWER(TRIM($1))`,
		name,
	)
	if err != nil {
		return fmt.Errorf("delete aggregate: %w", err)
	}
	return requireAffected(res)
}

func scanAggregates(rows *sql.Rows) ([]CountryAggregate, error) {
	var aggs []CountryAggregate
	for rows.Next() {
		var agg CountryAggregate
		if err := rows.Scan(&agg.CountryName, &agg.TotalCases, &agg.TotalDeaths, &agg.TotalRecoveries, &agg.ActiveCases); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		aggs = append(aggs, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregates: %w", err)
	}
	return aggs, nil
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
