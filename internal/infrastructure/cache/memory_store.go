package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const defaultCleanupInterval = 30 * time.Second

// MemoryStore implements Store in process memory. It is the fallback
// when Redis is unconfigured or unreachable, and the only backend in
// tests. TTL is evaluated at read time; a janitor goroutine sweeps
// expired entries so an idle process does not accumulate them.
type MemoryStore struct {
	entries sync.Map // map[string]*memoryEntry
	logger  *zap.Logger
	now     func() time.Time
	stopCh  chan struct{}
	stopped int32

	hits   int64
	misses int64
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// MemoryStoreOption is a functional option for configuring the store
type MemoryStoreOption func(*MemoryStore)

// WithMemoryLogger sets the logger for the store
func WithMemoryLogger(logger *zap.Logger) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.logger = logger
	}
}

// WithMemoryClock overrides the time source. Tests use it to advance
// past TTLs without sleeping.
func WithMemoryClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates an in-memory store and starts its janitor
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		logger: zap.NewNop(),
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.cleanupExpired()

	return s
}

// Get retrieves a value; expired entries are misses and lazily purged
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok := s.entries.Load(key); ok {
		entry := v.(*memoryEntry)
		if !entry.expired(s.now()) {
			atomic.AddInt64(&s.hits, 1)
			return entry.value, true, nil
		}
		s.entries.Delete(key)
	}
	atomic.AddInt64(&s.misses, 1)
	return nil, false, nil
}

// Set stores a value, overwriting unconditionally
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.entries.Store(key, &memoryEntry{
		value:     value,
		expiresAt: s.now().Add(ttl),
	})
	return nil
}

// Delete removes one key
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.entries.Delete(key)
	return nil
}

// DeletePrefix removes every key with the given prefix
func (s *MemoryStore) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	var deleted int64
	s.entries.Range(func(key, _ any) bool {
		if strings.HasPrefix(key.(string), prefix) {
			s.entries.Delete(key)
			deleted++
		}
		return true
	})
	s.logger.Debug("deleted keys by prefix",
		zap.String("prefix", prefix),
		zap.Int64("deleted", deleted))
	return deleted, nil
}

// Name identifies the backend
func (s *MemoryStore) Name() string {
	return "memory"
}

// Ping always succeeds for the in-process store
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close stops the janitor goroutine
func (s *MemoryStore) Close() error {
	if atomic.CompareAndSwapInt32(&s.stopped, 0, 1) {
		close(s.stopCh)
	}
	return nil
}

// Count returns the number of live entries
func (s *MemoryStore) Count() int {
	count := 0
	s.entries.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// Stats returns hit and miss counters
func (s *MemoryStore) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&s.hits), atomic.LoadInt64(&s.misses)
}

// cleanupExpired periodically removes expired entries
func (s *MemoryStore) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			now := s.now()
			s.entries.Range(func(key, value any) bool {
				if value.(*memoryEntry).expired(now) {
					s.entries.Delete(key)
				}
				return true
			})
		}
	}
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
