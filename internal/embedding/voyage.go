package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	voyageAPI   = "https://api.voyageai.com/v1/embeddings"
	voyageModel = "voyage-3-lite"
)

// Voyage handles embedding generation via Voyage AI
type Voyage struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewVoyage creates a Voyage client; empty baseURL and model use the defaults
func NewVoyage(apiKey, baseURL, model string, client *http.Client) *Voyage {
	if baseURL == "" {
		baseURL = voyageAPI
	}
	if model == "" {
		model = voyageModel
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Voyage{apiKey: apiKey, baseURL: baseURL, model: model, client: client}
}

// Model returns the embedding model name
func (v *Voyage) Model() string {
	return v.model
}

// Embed generates an embedding vector for the given text
func (v *Voyage) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := v.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts
func (v *Voyage) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts provided")
	}

	jsonBody, err := json.Marshal(embeddingRequest{Input: texts, Model: v.model})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+v.apiKey)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp embeddingResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return vectorsInOrder(apiResp, len(texts))
}
