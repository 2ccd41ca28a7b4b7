// Package cache memoizes provider lookups. Values are stored as JSON so the
// in-process LRU and the shared Redis backend are interchangeable.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
)

// Cache is safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	Clear(ctx context.Context) error
	Stats() Stats
}

// Stats mirrors the usual hit/miss/size counters. MaxSize is 0 for unbounded
// backends.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Size    int   `json:"size"`
	MaxSize int   `json:"maxsize"`
}

// Key joins lower-cased parts into a cache key.
func Key(parts ...string) string {
	clean := make([]string, len(parts))
	for i, p := range parts {
		clean[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(clean, ":")
}

// Fetch returns the cached value for key, or calls load and caches its result.
// Load errors are returned as is and never cached.
func Fetch[T any](ctx context.Context, c Cache, key string, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}

	if data, ok := c.Get(ctx, key); ok {
		var v T
		err := json.Unmarshal(data, &v)
		if err == nil {
			return v, nil
		}
		slog.Warn("CACHE: Dropping undecodable entry", "key", key, "error", err)
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("CACHE: Value not cacheable", "key", key, "error", err)
		return v, nil
	}
	c.Set(ctx, key, data)
	return v, nil
}
