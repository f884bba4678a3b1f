package session

import (
	"context"
	"fmt"
	"time"

	"github.com/delegatefabric/fabric/core"
	"github.com/go-redis/redis/v8"
)

// ManifestStore persists a RecoveryManifest's serialized bytes under a
// path-like key. RecoveryAgent.PrepareRecovery and BootstrapManager.
// BootstrapSession fall back to the local filesystem when no store is
// configured; a ManifestStore lets recovery and bootstrap run in separate
// processes (or on separate machines) without a shared disk.
type ManifestStore interface {
	Save(ctx context.Context, path string, data []byte) error
	Load(ctx context.Context, path string) ([]byte, error)
}

// RedisManifestStore is a ManifestStore backed by Redis.
type RedisManifestStore struct {
	client    *redis.Client
	namespace string
	logger    core.Logger
}

// NewRedisManifestStore wraps an existing *redis.Client. namespace prefixes
// every key (default "fabric:session:manifest" when empty).
func NewRedisManifestStore(client *redis.Client, namespace string, logger core.Logger) *RedisManifestStore {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	if namespace == "" {
		namespace = "fabric:session:manifest"
	}
	return &RedisManifestStore{client: client, namespace: namespace, logger: logger}
}

// DialRedisManifestStore parses redisURL, connects, and verifies the
// connection with a Ping before returning a RedisManifestStore.
func DialRedisManifestStore(redisURL, namespace string, logger core.Logger) (*RedisManifestStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("session: invalid redis url: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("session: connect to redis: %w", err)
	}

	return NewRedisManifestStore(client, namespace, logger), nil
}

func (s *RedisManifestStore) key(path string) string {
	return fmt.Sprintf("%s:%s", s.namespace, path)
}

// Save writes data under path with no expiry; a recovery manifest is meant
// to be the durable hand-off point between sessions.
func (s *RedisManifestStore) Save(ctx context.Context, path string, data []byte) error {
	if err := s.client.Set(ctx, s.key(path), data, 0).Err(); err != nil {
		s.logger.Error("session manifest redis save failed", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return fmt.Errorf("session: save manifest to redis: %w", err)
	}
	return nil
}

// Load returns *BootstrapMissingManifest when path has no value in Redis,
// matching the local-filesystem store's not-found behavior.
func (s *RedisManifestStore) Load(ctx context.Context, path string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(path)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, &BootstrapMissingManifest{Path: path}
		}
		s.logger.Error("session manifest redis load failed", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return nil, fmt.Errorf("session: load manifest from redis: %w", err)
	}
	return data, nil
}

// Close releases the underlying Redis connection.
func (s *RedisManifestStore) Close() error { return s.client.Close() }
