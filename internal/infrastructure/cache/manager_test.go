package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore implements Store and fails every operation while failing
// is set. Stands in for an unreachable Redis.
type flakyStore struct {
	inner   *MemoryStore
	failing bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{inner: NewMemoryStore()}
}

var errBackendDown = errors.New("backend down")

func (s *flakyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.failing {
		return nil, false, errBackendDown
	}
	return s.inner.Get(ctx, key)
}

func (s *flakyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.failing {
		return errBackendDown
	}
	return s.inner.Set(ctx, key, value, ttl)
}

func (s *flakyStore) Delete(ctx context.Context, key string) error {
	if s.failing {
		return errBackendDown
	}
	return s.inner.Delete(ctx, key)
}

func (s *flakyStore) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	if s.failing {
		return 0, errBackendDown
	}
	return s.inner.DeletePrefix(ctx, prefix)
}

func (s *flakyStore) Name() string { return "flaky" }

func (s *flakyStore) Ping(ctx context.Context) error {
	if s.failing {
		return errBackendDown
	}
	return nil
}

func (s *flakyStore) Close() error { return s.inner.Close() }

var _ Store = (*flakyStore)(nil)

func TestManager_LocalOnly(t *testing.T) {
	m := NewManager()
	defer m.Close()
	ctx := context.Background()

	_, found := m.Get(ctx, "k")
	assert.False(t, found)

	m.Set(ctx, "k", []byte("v"))
	value, found := m.Get(ctx, "k")
	require.True(t, found)
	assert.Equal(t, []byte("v"), value)
}

func TestManager_NetworkPreferred(t *testing.T) {
	network := newFlakyStore()
	m := NewManager(WithNetworkStore(network))
	defer m.Close()
	ctx := context.Background()

	m.Set(ctx, "k", []byte("v"))

	// The write landed on the network backend
	_, found, err := network.inner.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)

	value, found := m.Get(ctx, "k")
	require.True(t, found)
	assert.Equal(t, []byte("v"), value)
}

func TestManager_FallbackPerCall(t *testing.T) {
	network := newFlakyStore()
	local := NewMemoryStore()
	m := NewManager(WithNetworkStore(network), WithLocalStore(local))
	defer m.Close()
	ctx := context.Background()

	// Network down: writes and reads go to the local store
	network.failing = true
	m.Set(ctx, "k", []byte("local-v"))

	value, found := m.Get(ctx, "k")
	require.True(t, found)
	assert.Equal(t, []byte("local-v"), value)

	_, foundOnNetwork, _ := network.inner.Get(ctx, "k")
	assert.False(t, foundOnNetwork)

	// Network back up: the very next write goes to it, no sticky
	// failover state to reset
	network.failing = false
	m.Set(ctx, "k2", []byte("net-v"))
	_, foundOnNetwork, _ = network.inner.Get(ctx, "k2")
	assert.True(t, foundOnNetwork)
}

func TestManager_InvalidateBothBackends(t *testing.T) {
	network := newFlakyStore()
	local := NewMemoryStore()
	m := NewManager(WithNetworkStore(network), WithLocalStore(local))
	defer m.Close()
	ctx := context.Background()

	// Seed both backends directly
	require.NoError(t, network.inner.Set(ctx, "analysis:invoice:a", []byte("1"), time.Minute))
	require.NoError(t, local.Set(ctx, "analysis:invoice:b", []byte("2"), time.Minute))
	require.NoError(t, local.Set(ctx, "analysis:payable:c", []byte("3"), time.Minute))

	m.Invalidate(ctx, "analysis:invoice:")

	_, found, _ := network.inner.Get(ctx, "analysis:invoice:a")
	assert.False(t, found)
	_, found, _ = local.Get(ctx, "analysis:invoice:b")
	assert.False(t, found)
	_, found, _ = local.Get(ctx, "analysis:payable:c")
	assert.True(t, found)
}

func TestManager_InvalidateSurvivesNetworkFailure(t *testing.T) {
	network := newFlakyStore()
	local := NewMemoryStore()
	m := NewManager(WithNetworkStore(network), WithLocalStore(local))
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, local.Set(ctx, "analysis:invoice:b", []byte("2"), time.Minute))

	network.failing = true
	m.Invalidate(ctx, "analysis:invoice:")

	_, found, _ := local.Get(ctx, "analysis:invoice:b")
	assert.False(t, found)
}

func TestManager_BackendInfo(t *testing.T) {
	ctx := context.Background()

	t.Run("local only", func(t *testing.T) {
		m := NewManager()
		defer m.Close()
		m.Set(ctx, "k", []byte("v"))

		info := m.BackendInfo(ctx)
		assert.Equal(t, "memory", info.Backend)
		assert.True(t, info.Reachable)
		assert.Equal(t, 1, info.LocalEntries)
	})

	t.Run("network reachability", func(t *testing.T) {
		network := newFlakyStore()
		m := NewManager(WithNetworkStore(network))
		defer m.Close()

		info := m.BackendInfo(ctx)
		assert.Equal(t, "flaky", info.Backend)
		assert.True(t, info.Reachable)

		network.failing = true
		info = m.BackendInfo(ctx)
		assert.False(t, info.Reachable)
	})
}
