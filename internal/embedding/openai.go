package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

const (
	openaiAPI          = "https://api.openai.com/v1/embeddings"
	openaiModel        = "text-embedding-3-small"
	openaiBatchSize    = 2048
	openaiMaxRetries   = 3
	openaiInitialDelay = 1 * time.Second
)

// OpenAI handles OpenAI embeddings
type OpenAI struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	delay   time.Duration
}

type openaiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewOpenAI creates an OpenAI client; empty baseURL and model use the defaults
func NewOpenAI(apiKey, baseURL, model string, client *http.Client) *OpenAI {
	if baseURL == "" {
		baseURL = openaiAPI
	}
	if model == "" {
		model = openaiModel
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenAI{apiKey: apiKey, baseURL: baseURL, model: model, client: client, delay: openaiInitialDelay}
}

// Model returns the embedding model name
func (c *OpenAI) Model() string {
	return c.model
}

// Embed embeds a single text
func (c *OpenAI) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts, splitting into API-sized batches
func (c *OpenAI) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts provided")
	}

	var all [][]float64
	for i := 0; i < len(texts); i += openaiBatchSize {
		end := min(i+openaiBatchSize, len(texts))
		vectors, err := c.embed(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d failed: %w", i, end, err)
		}
		all = append(all, vectors...)
	}
	return all, nil
}

func (c *OpenAI) embed(ctx context.Context, texts []string) ([][]float64, error) {
	body, err := json.Marshal(embeddingRequest{Input: texts, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < openaiMaxRetries; attempt++ {
		if attempt > 0 {
			// 2s, 4s with the default initial delay
			delay := time.Duration(math.Pow(2, float64(attempt))) * c.delay
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			var apiErr openaiError
			if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
				lastErr = fmt.Errorf("api error (status %d): %s", resp.StatusCode, apiErr.Error.Message)
			} else {
				lastErr = fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(respBody))
			}

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				continue
			}
			return nil, lastErr
		}

		var apiResp embeddingResponse
		if err := json.Unmarshal(respBody, &apiResp); err != nil {
			return nil, fmt.Errorf("unmarshal response: %w", err)
		}
		return vectorsInOrder(apiResp, len(texts))
	}

	return nil, fmt.Errorf("max retries (%d) exceeded: %w", openaiMaxRetries, lastErr)
}
