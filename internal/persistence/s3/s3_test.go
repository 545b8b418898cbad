package s3

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/academigold/internal/persistence"
)

func newTestDocuments(t *testing.T, bucket *fakeBucket, prefix string) *Documents {
	t.Helper()

	docs, err := Open(context.Background(), Config{
		Region:          "us-east-1",
		Bucket:          "academigold",
		Prefix:          prefix,
		Endpoint:        "https://mock.s3.local",
		PathStyle:       true,
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		HTTPClient:      bucket,
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return docs
}

func TestOpenRequiresBucket(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error without bucket")
	}
}

func TestDocumentsGetPut(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	bucket := newFakeBucket()
	docs := newTestDocuments(t, bucket, "state")

	if _, err := docs.Get(ctx, persistence.KeySpaces); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := docs.Put(ctx, persistence.KeySpaces, []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if len(bucket.puts) != 1 || bucket.puts[0] != "state/spaces.json" {
		t.Fatalf("unexpected object keys %v", bucket.puts)
	}

	payload, err := docs.Get(ctx, persistence.KeySpaces)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(payload) != `[{"id":1}]` {
		t.Fatalf("unexpected payload %s", payload)
	}
}

func TestDocumentsGetFailure(t *testing.T) {
	t.Parallel()

	bucket := newFakeBucket()
	bucket.failGet = true
	docs := newTestDocuments(t, bucket, "")

	_, err := docs.Get(context.Background(), persistence.KeyUsers)
	if err == nil || errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected backend failure, got %v", err)
	}
}

func TestStoreOverS3(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	bucket := newFakeBucket()
	now := time.Date(2024, time.September, 1, 9, 0, 0, 0, time.UTC)
	opts := persistence.Options{Seed: func() persistence.Dataset { return persistence.DefaultSeed(nil, now) }}

	store, err := persistence.Open(ctx, newTestDocuments(t, bucket, ""), opts)
	if err != nil {
		t.Fatalf("persistence.Open failed: %v", err)
	}
	if _, err := store.CreateSoftware(ctx, persistence.SoftwareRequest{Name: "GIMP", Version: "2.10", Category: "Design", Type: "free", Status: "pending", RequestedBy: 2, RequestDate: now}); err != nil {
		t.Fatalf("CreateSoftware failed: %v", err)
	}

	reopened, err := persistence.Open(ctx, newTestDocuments(t, bucket, ""), opts)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	software, _ := reopened.ListSoftware(ctx)
	if len(software) != 3 || software[2].Name != "GIMP" {
		t.Fatalf("unexpected software after reopen: %+v", software)
	}
}
