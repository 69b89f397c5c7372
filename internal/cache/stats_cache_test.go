package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soaringjerry/Empatia/internal/services"
)

func TestNoopCacheNeverHits(t *testing.T) {
	c := NewStatsCache("", time.Minute)
	ctx := context.Background()
	if err := c.Set(ctx, 0, &services.StatsBundle{}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, err := c.Get(ctx, 0); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
}

func TestRedisCacheReportsUnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewRedisStatsCache(client, 0)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := c.Generation(ctx); err == nil {
		t.Fatalf("expected error from unreachable redis")
	}
	if _, ok, err := c.Get(ctx, 0); ok || err == nil {
		t.Fatalf("expected error from unreachable redis, got ok=%v err=%v", ok, err)
	}
}

func TestBundleKeysAreScopedByGeneration(t *testing.T) {
	if bundleKey(0) == bundleKey(1) {
		t.Fatalf("generations share a key")
	}
	if bundleKey(7) != "empatia:stats:bundle:7" {
		t.Fatalf("unexpected key %q", bundleKey(7))
	}
}
