// Package memory provides an in-process document backend used by tests and
// by deployments that do not need state to survive a restart.
package memory

import (
	"context"
	"sync"

	"github.com/example/academigold/internal/persistence"
)

// Documents stores payloads in a map guarded by a mutex.
type Documents struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New returns an empty backend.
func New() *Documents {
	return &Documents{data: make(map[string][]byte)}
}

// Get returns a copy of the payload stored under key.
func (d *Documents) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	payload, ok := d.data[key]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return append([]byte(nil), payload...), nil
}

// Put replaces the payload stored under key.
func (d *Documents) Put(ctx context.Context, key string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data[key] = append([]byte(nil), payload...)
	return nil
}

// Close is a no-op.
func (d *Documents) Close() error { return nil }

var _ persistence.Documents = (*Documents)(nil)
