package country

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"epistats/pkg/platform/sentinel"
)

// PostgresStore persists the canonical country set in PostgreSQL. Uniqueness
// is enforced by a unique index on LOWER(TRIM(name)), not re-derived here.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByName(ctx context.Context, name string) (*Country, error) {
	var c Country
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM countries WHERE LOWER(TRIM(name)) = LOWER(TRIM($1))`,
		name,
	).Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find country: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) ListNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM countries ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan country name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate countries: %w", err)
	}
	return names, nil
}

func (s *PostgresStore) Add(ctx context.Context, name string) (*Country, error) {
	var c Country
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO countries (name) VALUES (TRIM($1)) RETURNING id, name`,
		name,
	).Scan(&c.ID, &c.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("add country: %w", err)
	}
	return &c, nil
}

// isUniqueViolation reports whether err is a postgres unique constraint error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
