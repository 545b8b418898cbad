// Package postgres stores entity documents as JSONB rows in Postgres.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/example/academigold/internal/persistence"
)

const driverName = "pgx"

const createStateTable = `CREATE TABLE IF NOT EXISTS state (
	bucket TEXT PRIMARY KEY,
	payload JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

var sqlOpen = sql.Open

// Documents is a persistence.Documents backed by Postgres.
type Documents struct {
	db *sql.DB
}

// Open connects to dsn and ensures the state table exists.
func Open(ctx context.Context, dsn string) (*Documents, error) {
	if dsn == "" {
		return nil, errors.New("postgres: dsn is required")
	}
	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, createStateTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: create state table: %w", err)
	}
	return &Documents{db: db}, nil
}

// Get returns the payload stored under key.
func (d *Documents) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := d.db.QueryRowContext(ctx, `SELECT payload FROM state WHERE bucket = $1`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: select %s: %w", key, err)
	}
	return payload, nil
}

// Put upserts the payload stored under key.
func (d *Documents) Put(ctx context.Context, key string, payload []byte) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO state(bucket, payload, updated_at) VALUES($1, $2::jsonb, now())
		 ON CONFLICT(bucket) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		key, string(payload))
	if err != nil {
		return fmt.Errorf("postgres: upsert %s: %w", key, err)
	}
	return nil
}

// Close closes the connection pool.
func (d *Documents) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

var _ persistence.Documents = (*Documents)(nil)
