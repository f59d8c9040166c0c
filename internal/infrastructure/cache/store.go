package cache

import (
	"context"
	"time"
)

// Store is one cache backend. Implementations hold opaque bytes under
// string keys with a per-entry TTL; an expired entry behaves as a miss.
type Store interface {
	// Get returns the value and whether it was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores the value, overwriting unconditionally.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes one key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key with the given prefix and returns
	// how many were deleted.
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
	// Name identifies the backend for observability.
	Name() string
	// Ping checks reachability.
	Ping(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}
