package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func setupManifestStoreRedis(t *testing.T) (*miniredis.Miniredis, *RedisManifestStore) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewRedisManifestStore(client, "", nil)
}

func TestRedisManifestStoreRoundTrip(t *testing.T) {
	_, store := setupManifestStoreRedis(t)
	ctx := context.Background()

	if err := store.Save(ctx, "session_recovery_latest.json", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := store.Load(ctx, "session_recovery_latest.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Errorf("data = %q", data)
	}
}

func TestRedisManifestStoreLoadMissingReturnsBootstrapError(t *testing.T) {
	_, store := setupManifestStoreRedis(t)

	_, err := store.Load(context.Background(), "nope.json")
	var missing *BootstrapMissingManifest
	if !errors.As(err, &missing) {
		t.Fatalf("expected *BootstrapMissingManifest, got %v", err)
	}
}

func TestRecoveryAgentAndBootstrapManagerShareRedisManifestStore(t *testing.T) {
	_, store := setupManifestStoreRedis(t)

	agent := NewRecoveryAgent(nil, WithManifestStore(store), WithRepoDir(t.TempDir()))
	manifest := fallbackManifest(gitState{Branch: "main"})
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := agent.store.Save(context.Background(), defaultManifestPath, data); err != nil {
		t.Fatalf("save via agent store: %v", err)
	}

	mgr := NewBootstrapManager(WithBootstrapManifestStore(store))
	summary, err := mgr.BootstrapSession(BootstrapOptions{ManifestPath: defaultManifestPath})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if summary == "" {
		t.Error("expected non-empty summary")
	}
}
