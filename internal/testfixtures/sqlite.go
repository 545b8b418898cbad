package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/academigold/internal/persistence"
	"github.com/example/academigold/internal/persistence/sqlite"
)

// NewSQLiteStore opens a store over a temporary SQLite file holding data.
// The returned path can be reopened to check what was persisted.
func NewSQLiteStore(tb testing.TB, data persistence.Dataset) (*persistence.Store, string) {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "academigold.db")
	docs, err := sqlite.Open(context.Background(), sqlite.DefaultConfig(path))
	if err != nil {
		tb.Fatalf("failed to open sqlite documents: %v", err)
	}
	return openStore(tb, docs, data), path
}
