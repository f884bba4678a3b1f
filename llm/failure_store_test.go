package llm

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func setupFailureStoreRedis(t *testing.T) *RedisProviderFailureStore {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisProviderFailureStore(client, "", time.Minute, nil)
}

func TestRedisProviderFailureStoreMarkAndCheck(t *testing.T) {
	store := setupFailureStoreRedis(t)
	ctx := context.Background()

	failed, err := store.IsFailed(ctx, "cheap")
	if err != nil {
		t.Fatalf("IsFailed: %v", err)
	}
	if failed {
		t.Fatal("expected cheap not failed before MarkFailed")
	}

	if err := store.MarkFailed(ctx, "cheap"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	failed, err = store.IsFailed(ctx, "cheap")
	if err != nil {
		t.Fatalf("IsFailed: %v", err)
	}
	if !failed {
		t.Fatal("expected cheap failed after MarkFailed")
	}
}

func TestRedisProviderFailureStoreReset(t *testing.T) {
	store := setupFailureStoreRedis(t)
	ctx := context.Background()

	if err := store.MarkFailed(ctx, "cheap"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if err := store.MarkFailed(ctx, "premium"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if err := store.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	for _, name := range []string{"cheap", "premium"} {
		failed, err := store.IsFailed(ctx, name)
		if err != nil {
			t.Fatalf("IsFailed(%s): %v", name, err)
		}
		if failed {
			t.Errorf("expected %s not failed after Reset", name)
		}
	}
}

func TestClientConsultsFailureStoreWhenLocalStateIsClean(t *testing.T) {
	reg, cheap, premium := newTestRegistry(t)
	cheap.SetResponses("cheap response")
	premium.SetResponses("premium response")

	store := setupFailureStoreRedis(t)
	if err := store.MarkFailed(context.Background(), "cheap"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	client := NewClient(WithRegistry(reg), WithFailureStore(store))
	resp, err := client.Call(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Provider != "premium" {
		t.Errorf("Provider = %q, want premium (cheap pre-marked failed in shared store)", resp.Provider)
	}
}
