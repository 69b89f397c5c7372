package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soaringjerry/Empatia/internal/services"
)

const (
	generationKey = "empatia:stats:gen"
	bundlePrefix  = "empatia:stats:bundle:"
)

func bundleKey(gen int64) string { return bundlePrefix + strconv.FormatInt(gen, 10) }

// StatsCache stores the computed statistics bundle between writes.
type StatsCache interface {
	services.StatsCache
	services.CacheInvalidator
	Close() error
}

type redisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache returns a redis backed cache, or a no-op cache when addr is empty.
func NewStatsCache(addr string, ttl time.Duration) StatsCache {
	if addr == "" {
		return Noop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
		ReadTimeout: time.Second,
	})
	return NewRedisStatsCache(client, ttl)
}

func NewRedisStatsCache(client *redis.Client, ttl time.Duration) StatsCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &redisStatsCache{client: client, ttl: ttl}
}

// Generation reads the current generation; a missing key is generation 0.
func (c *redisStatsCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *redisStatsCache) Get(ctx context.Context, gen int64) (*services.StatsBundle, bool, error) {
	data, err := c.client.Get(ctx, bundleKey(gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var b services.StatsBundle
	if err := json.Unmarshal(data, &b); err != nil {
		// a stale encoding is treated as a miss
		return nil, false, nil
	}
	return &b, true, nil
}

// Set stores b under gen. After an Invalidate the entry is unreachable and
// expires with its TTL.
func (c *redisStatsCache) Set(ctx context.Context, gen int64, b *services.StatsBundle) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, bundleKey(gen), data, c.ttl).Err()
}

// Invalidate advances the generation.
func (c *redisStatsCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, generationKey).Err()
}

func (c *redisStatsCache) Close() error { return c.client.Close() }

type noopCache struct{}

// Noop returns a cache that never hits.
func Noop() StatsCache { return noopCache{} }

func (noopCache) Generation(context.Context) (int64, error) { return 0, nil }
func (noopCache) Get(context.Context, int64) (*services.StatsBundle, bool, error) {
	return nil, false, nil
}
func (noopCache) Set(context.Context, int64, *services.StatsBundle) error { return nil }
func (noopCache) Invalidate(context.Context) error                        { return nil }
func (noopCache) Close() error                                            { return nil }
