package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
    seq                 BIGSERIAL,
    id                  TEXT PRIMARY KEY,
    drinks              TEXT[] NOT NULL,
    total_prep_time     INTEGER NOT NULL,
    created_at          TIMESTAMPTZ NOT NULL,
    started_at          TIMESTAMPTZ,
    completed_at        TIMESTAMPTZ,
    picked_up_at        TIMESTAMPTZ,
    status              TEXT NOT NULL,
    customer_name       TEXT NOT NULL,
    is_regular          BOOLEAN NOT NULL DEFAULT FALSE,
    loyalty_status      TEXT NOT NULL,
    assigned_barista    INTEGER,
    estimated_wait_time INTEGER,
    priority_score      INTEGER,
    priority_reason     TEXT NOT NULL DEFAULT '',
    display_position    INTEGER,
    complaint_filed     BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS baristas (
    id                 INTEGER PRIMARY KEY,
    name               TEXT NOT NULL,
    current_order      TEXT,
    busy_until         TIMESTAMPTZ,
    total_work_minutes INTEGER NOT NULL DEFAULT 0,
    completed_count    INTEGER NOT NULL DEFAULT 0,
    workload_ratio     DOUBLE PRECISION NOT NULL DEFAULT 0
);
`

// EnsureSchema creates the orders and baristas tables when missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// NewPool opens a pgx pool and verifies the connection.
func NewPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return pool, nil
}
