package embedding

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type batchEmbedder interface {
	NewBatch() *genai.EmbeddingBatch
	BatchEmbedContents(ctx context.Context, b *genai.EmbeddingBatch) (*genai.BatchEmbedContentsResponse, error)
}

// GeminiEmbedder embeds texts with a Gemini embedding model.
type GeminiEmbedder struct {
	client *genai.Client
	model  batchEmbedder
}

func NewGeminiEmbedder(ctx context.Context, apiKey, model string) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	em := client.EmbeddingModel(model)
	em.TaskType = genai.TaskTypeSemanticSimilarity
	return &GeminiEmbedder{client: client, model: em}, nil
}

func (g *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	b := g.model.NewBatch()
	for _, t := range texts {
		b.AddContent(genai.Text(t))
	}

	resp, err := g.model.BatchEmbedContents(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e == nil {
			return nil, fmt.Errorf("missing embedding for %q", texts[i])
		}
		out[i] = e.Values
	}

	slog.Debug("LLM_CLIENT: Embeddings generated", "count", len(out))
	return out, nil
}

// Close closes the underlying Gemini client.
func (g *GeminiEmbedder) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}
