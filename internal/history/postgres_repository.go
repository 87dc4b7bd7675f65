package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the history table.
const Schema = `
	CREATE TABLE IF NOT EXISTS fetch_history (
		id          TEXT PRIMARY KEY,
		region      TEXT NOT NULL,
		city        TEXT NOT NULL,
		latitude    DOUBLE PRECISION NOT NULL,
		longitude   DOUBLE PRECISION NOT NULL,
		start_date  DATE NOT NULL,
		end_date    DATE NOT NULL,
		days        INTEGER NOT NULL,
		rain_total  DOUBLE PRECISION NOT NULL,
		wind_max    DOUBLE PRECISION,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS fetch_history_created_at_idx ON fetch_history (created_at DESC);
`

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// Ensure PostgresRepository implements Repository.
var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a new PostgreSQL history repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the table if it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("creating history schema: %w", err)
	}
	return nil
}

// Record stores an entry.
func (r *PostgresRepository) Record(ctx context.Context, e *Entry) error {
	query := `
		INSERT INTO fetch_history (
			id, region, city, latitude, longitude,
			start_date, end_date, days, rain_total, wind_max, created_at
		) VALUES ($1, $2, $3, $4, $5, $6::date, $7::date, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		e.ID, e.Region, e.City, e.Latitude, e.Longitude,
		e.StartDate, e.EndDate, e.Days, e.RainTotal, e.WindMax, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting history entry: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first.
func (r *PostgresRepository) List(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
		SELECT
			id, region, city, latitude, longitude,
			to_char(start_date, 'YYYY-MM-DD'), to_char(end_date, 'YYYY-MM-DD'),
			days, rain_total, wind_max, created_at
		FROM fetch_history
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.Region, &e.City, &e.Latitude, &e.Longitude,
			&e.StartDate, &e.EndDate,
			&e.Days, &e.RainTotal, &e.WindMax, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}

	return entries, nil
}

// Purge deletes every entry.
func (r *PostgresRepository) Purge(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM fetch_history`)
	if err != nil {
		return 0, fmt.Errorf("purging history: %w", err)
	}
	return tag.RowsAffected(), nil
}
