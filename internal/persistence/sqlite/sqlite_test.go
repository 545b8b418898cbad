package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/academigold/internal/booking"
	"github.com/example/academigold/internal/persistence"
)

func newTestDocuments(t *testing.T) (*Documents, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "academigold.db")
	docs, err := Open(context.Background(), DefaultConfig(path))
	if err != nil {
		t.Fatalf("failed to open documents: %v", err)
	}
	t.Cleanup(func() {
		_ = docs.Close()
	})
	return docs, path
}

func TestDocumentsGetPut(t *testing.T) {
	ctx := context.Background()
	docs, _ := newTestDocuments(t)

	if _, err := docs.Get(ctx, persistence.KeyUsers); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing key, got %v", err)
	}

	if err := docs.Put(ctx, persistence.KeyUsers, []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := docs.Put(ctx, persistence.KeyUsers, []byte(`[{"id":2}]`)); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	payload, err := docs.Get(ctx, persistence.KeyUsers)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(payload) != `[{"id":2}]` {
		t.Fatalf("expected upserted payload, got %s", payload)
	}
}

func TestStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "academigold.db")
	now := time.Date(2024, time.September, 1, 9, 0, 0, 0, time.UTC)
	opts := persistence.Options{Seed: func() persistence.Dataset { return persistence.DefaultSeed(nil, now) }}

	docs, err := Open(ctx, DefaultConfig(path))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	store, err := persistence.Open(ctx, docs, opts)
	if err != nil {
		t.Fatalf("persistence.Open failed: %v", err)
	}

	created, err := store.CreateReservation(ctx, persistence.Reservation{
		SpaceID:   2,
		UserID:    2,
		Date:      booking.NewDate(2024, time.September, 16),
		Hours:     []booking.Slot{"07:00", "08:00"},
		Purpose:   "Aula de Redes",
		Status:    "confirmed",
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateReservation failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(ctx, DefaultConfig(path))
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })

	store, err = persistence.Open(ctx, reopened, opts)
	if err != nil {
		t.Fatalf("persistence.Open after reopen failed: %v", err)
	}
	fetched, err := store.GetReservation(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetReservation failed: %v", err)
	}
	if fetched.Purpose != "Aula de Redes" || fetched.Date.String() != "2024-09-16" || len(fetched.Hours) != 2 {
		t.Fatalf("unexpected reservation after reopen: %#v", fetched)
	}
}

func TestConfigValidation(t *testing.T) {
	t.Parallel()

	cases := map[string]Config{
		"empty path":     {},
		"journal mode":   {Path: "x.db", JournalMode: "FAST"},
		"synchronous":    {Path: "x.db", Synchronous: "SOMETIMES"},
		"negative busy":  {Path: "x.db", BusyTimeout: -time.Second},
		"negative conns": {Path: "x.db", MaxOpenConns: -1},
	}
	for name, cfg := range cases {
		cfg := cfg
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if err := cfg.validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestWithRetry(t *testing.T) {
	t.Parallel()

	cfg := RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 2}

	t.Run("retries locked errors", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		err := withRetry(context.Background(), cfg, func() error {
			attempts++
			if attempts < 3 {
				return errors.New("database is locked (5) (SQLITE_BUSY)")
			}
			return nil
		})
		if err != nil || attempts != 3 {
			t.Fatalf("expected success on third attempt, got %v after %d", err, attempts)
		}
	})

	t.Run("gives up", func(t *testing.T) {
		t.Parallel()
		err := withRetry(context.Background(), cfg, func() error {
			return errors.New("database is locked")
		})
		if !errors.Is(err, errLocked) {
			t.Fatalf("expected locked error, got %v", err)
		}
	})

	t.Run("does not retry constraint errors", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		err := withRetry(context.Background(), cfg, func() error {
			attempts++
			return errors.New("UNIQUE constraint failed: state.bucket")
		})
		if !errors.Is(err, persistence.ErrDuplicate) || attempts != 1 {
			t.Fatalf("expected single ErrDuplicate attempt, got %v after %d", err, attempts)
		}
	})
}
