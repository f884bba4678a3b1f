package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/delegatefabric/fabric/core"
	"github.com/go-redis/redis/v8"
)

// ProviderFailureStore tracks which providers have exhausted their retry
// budget for the current session, shared across processes. Client's
// in-memory failed map always backs this up locally; a store lets a
// provider marked failed by one process be skipped by another without
// each one repeating the same failing attempts.
type ProviderFailureStore interface {
	MarkFailed(ctx context.Context, name string) error
	IsFailed(ctx context.Context, name string) (bool, error)
	Reset(ctx context.Context) error
}

// RedisProviderFailureStore is a ProviderFailureStore backed by Redis. Each
// failed provider is a key with a TTL, so a transient outage self-heals
// even if ResetSession is never called.
type RedisProviderFailureStore struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
	logger    core.Logger
}

const defaultFailureTTL = 10 * time.Minute

// NewRedisProviderFailureStore wraps an existing *redis.Client. namespace
// prefixes every key (default "fabric:llm:failed" when empty); ttl bounds
// how long a marked-failed provider stays skipped (default 10m when <= 0).
func NewRedisProviderFailureStore(client *redis.Client, namespace string, ttl time.Duration, logger core.Logger) *RedisProviderFailureStore {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	if namespace == "" {
		namespace = "fabric:llm:failed"
	}
	if ttl <= 0 {
		ttl = defaultFailureTTL
	}
	return &RedisProviderFailureStore{client: client, namespace: namespace, ttl: ttl, logger: logger}
}

// DialRedisProviderFailureStore parses redisURL, connects, and verifies the
// connection with a Ping before returning a RedisProviderFailureStore.
func DialRedisProviderFailureStore(redisURL, namespace string, ttl time.Duration, logger core.Logger) (*RedisProviderFailureStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("llm: invalid redis url: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("llm: connect to redis: %w", err)
	}

	return NewRedisProviderFailureStore(client, namespace, ttl, logger), nil
}

func (s *RedisProviderFailureStore) key(name string) string {
	return fmt.Sprintf("%s:%s", s.namespace, name)
}

func (s *RedisProviderFailureStore) MarkFailed(ctx context.Context, name string) error {
	if err := s.client.Set(ctx, s.key(name), "1", s.ttl).Err(); err != nil {
		s.logger.Error("llm provider failure redis mark failed", map[string]interface{}{
			"provider": name,
			"error":    err.Error(),
		})
		return fmt.Errorf("llm: mark provider failed in redis: %w", err)
	}
	return nil
}

func (s *RedisProviderFailureStore) IsFailed(ctx context.Context, name string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(name)).Result()
	if err != nil {
		return false, fmt.Errorf("llm: check provider failure in redis: %w", err)
	}
	return n > 0, nil
}

// Reset clears every provider's failed-for-session marker.
func (s *RedisProviderFailureStore) Reset(ctx context.Context) error {
	keys, err := s.client.Keys(ctx, s.namespace+":*").Result()
	if err != nil {
		return fmt.Errorf("llm: list provider failures in redis: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("llm: clear provider failures in redis: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (s *RedisProviderFailureStore) Close() error { return s.client.Close() }
