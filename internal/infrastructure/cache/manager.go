package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTTL            = time.Hour
	defaultNetworkTimeout = 2 * time.Second
)

// Manager fronts an optional networked store with a local fallback.
// Every call tries the network backend first and falls through to the
// local store on failure, per call, never as a sticky failover switch.
// No operation returns an error to the caller: caching here is
// advisory, and a miss is always satisfiable by recomputing.
type Manager struct {
	network Store // nil when Redis is not configured
	local   Store
	ttl     time.Duration
	timeout time.Duration
	logger  *zap.Logger
}

// BackendInfo describes the cache backends for observability.
type BackendInfo struct {
	Backend      string `json:"backend"`
	Reachable    bool   `json:"reachable"`
	LocalEntries int    `json:"local_entries"`
}

// ManagerOption is a functional option for configuring the Manager
type ManagerOption func(*Manager)

// WithNetworkStore sets the networked backend
func WithNetworkStore(s Store) ManagerOption {
	return func(m *Manager) {
		m.network = s
	}
}

// WithLocalStore replaces the default local fallback store
func WithLocalStore(s Store) ManagerOption {
	return func(m *Manager) {
		m.local = s
	}
}

// WithTTL sets the default time-to-live for Set
func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithNetworkTimeout bounds each network backend call. A timeout is
// treated as a miss, never as a request failure.
func WithNetworkTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithManagerLogger sets the logger for the Manager
func WithManagerLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a cache manager. With no options it is local-only.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		ttl:     defaultTTL,
		timeout: defaultNetworkTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.local == nil {
		m.local = NewMemoryStore()
	}
	return m
}

// Get returns the cached value for key, or a miss. Backend errors are
// swallowed after the fallback attempt.
func (m *Manager) Get(ctx context.Context, key string) ([]byte, bool) {
	if m.network != nil {
		netCtx, cancel := context.WithTimeout(ctx, m.timeout)
		value, found, err := m.network.Get(netCtx, key)
		cancel()
		if err == nil {
			return value, found
		}
		m.logger.Debug("network cache get failed, using local fallback",
			zap.String("key", key),
			zap.Error(err))
	}

	value, found, err := m.local.Get(ctx, key)
	if err != nil {
		m.logger.Warn("local cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return value, found
}

// Set stores the value under key with the manager's TTL, overwriting
// unconditionally. Written to the network backend when it accepts the
// write, to the local fallback otherwise.
func (m *Manager) Set(ctx context.Context, key string, value []byte) {
	if m.network != nil {
		netCtx, cancel := context.WithTimeout(ctx, m.timeout)
		err := m.network.Set(netCtx, key, value, m.ttl)
		cancel()
		if err == nil {
			return
		}
		m.logger.Debug("network cache set failed, using local fallback",
			zap.String("key", key),
			zap.Error(err))
	}

	if err := m.local.Set(ctx, key, value, m.ttl); err != nil {
		m.logger.Warn("local cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate removes every entry with the given prefix from both
// backends. Used after a data reload; best effort on each backend.
func (m *Manager) Invalidate(ctx context.Context, prefix string) {
	if m.network != nil {
		netCtx, cancel := context.WithTimeout(ctx, m.timeout)
		if _, err := m.network.DeletePrefix(netCtx, prefix); err != nil {
			m.logger.Debug("network cache invalidate failed",
				zap.String("prefix", prefix),
				zap.Error(err))
		}
		cancel()
	}
	if _, err := m.local.DeletePrefix(ctx, prefix); err != nil {
		m.logger.Warn("local cache invalidate failed",
			zap.String("prefix", prefix),
			zap.Error(err))
	}
}

// BackendInfo reports which backend is active and whether the network
// backend is currently reachable. Observability only.
func (m *Manager) BackendInfo(ctx context.Context) BackendInfo {
	info := BackendInfo{Backend: m.local.Name(), Reachable: true}
	if mem, ok := m.local.(*MemoryStore); ok {
		info.LocalEntries = mem.Count()
	}

	if m.network != nil {
		info.Backend = m.network.Name()
		netCtx, cancel := context.WithTimeout(ctx, m.timeout)
		info.Reachable = m.network.Ping(netCtx) == nil
		cancel()
	}
	return info
}

// Close releases both backends
func (m *Manager) Close() error {
	var err error
	if m.network != nil {
		err = m.network.Close()
	}
	if cerr := m.local.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
