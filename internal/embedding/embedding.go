package embedding

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/pbaille/cfaprep/internal/config"
)

// Embedder turns text into vectors
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
	Model() string
}

// New builds the embedder selected by settings
func New(settings config.EmbeddingSettings) (Embedder, error) {
	if settings.APIKey == "" {
		return nil, fmt.Errorf("%s embeddings: api key not set", settings.Provider)
	}

	client := &http.Client{Timeout: 60 * time.Second}

	switch settings.Provider {
	case config.EmbeddingVoyage:
		return NewVoyage(settings.APIKey, settings.BaseURL, settings.Model, client), nil
	case config.EmbeddingOpenAI:
		return NewOpenAI(settings.APIKey, settings.BaseURL, settings.Model, client), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CosineSimilarity computes similarity between two vectors
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// vectorsInOrder places each returned embedding at its input index
func vectorsInOrder(resp embeddingResponse, want int) ([][]float64, error) {
	if len(resp.Data) != want {
		return nil, fmt.Errorf("expected %d embeddings, got %d", want, len(resp.Data))
	}
	vectors := make([][]float64, want)
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= want {
			return nil, fmt.Errorf("invalid embedding index: %d", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}
