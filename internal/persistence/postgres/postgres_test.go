package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/example/academigold/internal/persistence"
)

const testDSNEnv = "ACADEMIGOLD_TEST_POSTGRES_DSN"

func TestOpenRequiresDSN(t *testing.T) {
	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

func TestOpenReportsDriverFailure(t *testing.T) {
	original := sqlOpen
	sqlOpen = func(string, string) (*sql.DB, error) { return nil, errors.New("boom") }
	t.Cleanup(func() { sqlOpen = original })

	if _, err := Open(context.Background(), "postgres://unused"); err == nil {
		t.Fatalf("expected open failure to surface")
	}
}

func TestDocumentsAgainstDatabase(t *testing.T) {
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}

	ctx := context.Background()
	docs, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = docs.Close() })

	key := "test-" + uuid.NewString()
	t.Cleanup(func() {
		_, _ = docs.db.ExecContext(context.Background(), `DELETE FROM state WHERE bucket = $1`, key)
	})

	if _, err := docs.Get(ctx, key); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := docs.Put(ctx, key, []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := docs.Put(ctx, key, []byte(`[{"id":2}]`)); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}
	payload, err := docs.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(payload) != `[{"id": 2}]` {
		t.Fatalf("unexpected payload %s", payload)
	}
}
