package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	// One writer (the history sink) and a few API readers.
	cfg.MaxConns = 5
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 1 * time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second
	cfg.ConnConfig.ConnectTimeout = 5 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS fire_events (
	id                      UUID PRIMARY KEY,
	current_jittered_target TIMESTAMPTZ NOT NULL,
	current_standard_target TIMESTAMPTZ NOT NULL,
	next_jittered_target    TIMESTAMPTZ NOT NULL,
	actual_fire_time        TIMESTAMPTZ NOT NULL,
	next_standard_target    TIMESTAMPTZ NOT NULL,
	skipped_slots           INTEGER     NOT NULL DEFAULT 0,
	recorded_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS fire_events_actual_fire_time_idx ON fire_events (actual_fire_time DESC, id DESC);`

// EnsureSchema creates the fire history table if it does not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
