package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of *pgxpool.Pool the publisher uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

var _ DB = (*pgxpool.Pool)(nil)

// Connect opens a pool for dsn.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the events table when it does not exist.
func EnsureSchema(ctx context.Context, db DB, table string) error {
	t := pgx.Identifier{table}.Sanitize()
	sql := `CREATE TABLE IF NOT EXISTS ` + t + ` (
	id              BIGSERIAL PRIMARY KEY,
	tag_id          TEXT NOT NULL,
	catalog_id      TEXT NOT NULL,
	event_type      TEXT NOT NULL,
	event_id        TEXT NOT NULL,
	session_id      TEXT NOT NULL,
	product_name    TEXT NOT NULL,
	product_version TEXT NOT NULL,
	content         JSONB NOT NULL,
	snapshot        JSONB NOT NULL,
	published_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	if _, err := db.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create table %s: %w", t, err)
	}
	return nil
}
