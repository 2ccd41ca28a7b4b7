package embedding

import (
	"context"
	"encoding/json"
	"fmt"

	"swapagent/provider/cache"
)

// CachedEmbedder memoizes per-text vectors so repeated ingredient names are
// embedded once. Only the texts missing from the cache reach the inner
// embedder, in a single batch.
type CachedEmbedder struct {
	inner Embedder
	cache cache.Cache
}

func NewCachedEmbedder(inner Embedder, c cache.Cache) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: c}
}

func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if c.cache == nil {
		return c.inner.Embed(ctx, texts)
	}

	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, t := range texts {
		if data, ok := c.cache.Get(ctx, cache.Key("embedding", t)); ok {
			var v []float32
			if err := json.Unmarshal(data, &v); err == nil {
				out[i] = v
				continue
			}
		}
		missing = append(missing, t)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := c.inner.Embed(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding using inner embedder: %w", err)
	}
	if len(vecs) != len(missing) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(missing), len(vecs))
	}

	for j, v := range vecs {
		out[missingIdx[j]] = v
		if data, err := json.Marshal(v); err == nil {
			c.cache.Set(ctx, cache.Key("embedding", missing[j]), data)
		}
	}
	return out, nil
}
