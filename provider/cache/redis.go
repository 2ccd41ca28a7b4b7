package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisClient is the subset of redis.Cmdable the cache uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Redis is a shared cache backend. Every key is namespaced under prefix so
// Clear only touches this cache's entries.
type Redis struct {
	client redisClient
	prefix string
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

func NewRedis(client redisClient, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

// NewRedisFromAddr connects to a single Redis node.
func NewRedisFromAddr(addr, prefix string, ttl time.Duration) *Redis {
	return NewRedis(redis.NewClient(&redis.Options{Addr: addr}), prefix, ttl)
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("CACHE: Redis get failed", "key", key, "error", err)
		}
		r.misses.Add(1)
		return nil, false
	}
	r.hits.Add(1)
	return data, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) {
	if err := r.client.Set(ctx, r.prefix+key, value, r.ttl).Err(); err != nil {
		slog.Warn("CACHE: Redis set failed", "key", key, "error", err)
	}
}

// Clear deletes every key under the prefix.
func (r *Redis) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Stats reports hits and misses seen by this process. Size is not tracked.
func (r *Redis) Stats() Stats {
	return Stats{Hits: r.hits.Load(), Misses: r.misses.Load()}
}
