package persistence

import "context"

// Document keys. Each collection is stored as one JSON array under its key.
const (
	KeyUsers        = "users"
	KeySpaces       = "spaces"
	KeySoftware     = "software"
	KeyReservations = "reservations"
	KeySequences    = "sequences"
)

// Keys lists every document key the store reads and writes.
func Keys() []string {
	return []string{KeyUsers, KeySpaces, KeySoftware, KeyReservations, KeySequences}
}

// Documents is a key-value store of whole JSON documents. Implementations
// return ErrNotFound from Get when a key has never been written.
type Documents interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, payload []byte) error
	Close() error
}
