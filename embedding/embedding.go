// Package embedding scores how semantically close ingredient names are using
// text embeddings.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// Embedder turns texts into vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

var ErrDimensionMismatch = errors.New("embedding dimensions differ")

// Cosine returns the cosine similarity of a and b in [-1, 1]. Zero vectors
// score 0.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// Scores maps each candidate to its semantic closeness to original on a
// 0..100 scale. No candidates yields an empty map.
func Scores(ctx context.Context, e Embedder, original string, candidates []string) (map[string]float64, error) {
	out := make(map[string]float64, len(candidates))
	if len(candidates) == 0 {
		return out, nil
	}

	texts := append([]string{original}, candidates...)
	vecs, err := e.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed candidates: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vecs))
	}

	for i, c := range candidates {
		cos, err := Cosine(vecs[0], vecs[i+1])
		if err != nil {
			return nil, err
		}
		out[c] = math.Round((cos+1)/2*100*100) / 100
	}

	slog.Debug("RANKER: Semantic scores computed", "original", original, "candidates", len(candidates))
	return out, nil
}
