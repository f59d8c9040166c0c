package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const scanBatchSize = 100

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisStore implements Store on a Redis server. Construction never
// dials: an unreachable server must not prevent startup, so
// reachability is a per-call concern handled by the Manager.
type RedisStore struct {
	client     *redis.Client
	ownsClient bool
	logger     *zap.Logger
}

// RedisStoreOption is a functional option for configuring the store
type RedisStoreOption func(*RedisStore)

// WithRedisLogger sets the logger for the store
func WithRedisLogger(logger *zap.Logger) RedisStoreOption {
	return func(s *RedisStore) {
		s.logger = logger
	}
}

// NewRedisStore creates a Redis-backed store
func NewRedisStore(cfg RedisConfig, opts ...RedisStoreOption) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	s := &RedisStore{
		client:     client,
		ownsClient: true,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewRedisStoreWithClient creates a store around an existing client.
// The caller retains ownership of the client and closes it.
func NewRedisStoreWithClient(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client:     client,
		ownsClient: false,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves a value from Redis
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return data, true, nil
}

// Set stores a value in Redis with the given TTL
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a key from Redis
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// DeletePrefix removes all keys with the given prefix using SCAN to
// avoid blocking Redis with KEYS.
func (s *RedisStore) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	var cursor uint64
	var deleted int64

	for {
		keys, next, err := s.client.Scan(ctx, cursor, prefix+"*", scanBatchSize).Result()
		if err != nil {
			return deleted, fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			n, err := s.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("redis del: %w", err)
			}
			deleted += n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	s.logger.Debug("deleted keys by prefix",
		zap.String("prefix", prefix),
		zap.Int64("deleted", deleted))
	return deleted, nil
}

// Name identifies the backend
func (s *RedisStore) Name() string {
	return "redis"
}

// Ping checks connectivity to the Redis server
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client if this store owns it
func (s *RedisStore) Close() error {
	if s.ownsClient {
		return s.client.Close()
	}
	return nil
}

// Ensure RedisStore implements Store
var _ Store = (*RedisStore)(nil)
