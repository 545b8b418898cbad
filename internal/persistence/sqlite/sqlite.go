// Package sqlite stores entity documents in a single SQLite table, one row per
// document key.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/academigold/internal/persistence"
)

const createStateTable = `CREATE TABLE IF NOT EXISTS state (
	bucket TEXT PRIMARY KEY,
	payload BLOB NOT NULL
)`

// Documents is a persistence.Documents backed by SQLite.
type Documents struct {
	db    *sql.DB
	retry RetryConfig
}

// Open connects to the database described by cfg and ensures the state table exists.
func Open(ctx context.Context, cfg Config) (*Documents, error) {
	db, err := connect(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, createStateTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: create state table: %w", err)
	}
	return &Documents{db: db, retry: cfg.Retry}, nil
}

// Get returns the payload stored under key.
func (d *Documents) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := withRetry(ctx, d.retry, func() error {
		return d.db.QueryRowContext(ctx, `SELECT payload FROM state WHERE bucket = ?`, key).Scan(&payload)
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Put upserts the payload stored under key.
func (d *Documents) Put(ctx context.Context, key string, payload []byte) error {
	return withRetry(ctx, d.retry, func() error {
		return withTransaction(ctx, d.db, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO state(bucket, payload) VALUES(?, ?) ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload`,
				key, payload)
			return err
		})
	})
}

// Close closes the database.
func (d *Documents) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

var _ persistence.Documents = (*Documents)(nil)
