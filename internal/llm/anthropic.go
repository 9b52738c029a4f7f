package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pbaille/cfaprep/internal/config"
)

const (
	anthropicAPI     = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
	defaultModel     = "claude-sonnet-4-20250514"
)

// Prompt is one completion request
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature *float64
}

// Completer produces text for a prompt
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// Client calls the Anthropic Messages API
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	http        *http.Client
}

// New creates a Client from settings
func New(settings config.LLMSettings) (*Client, error) {
	if settings.APIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}

	c := &Client{
		apiKey:      settings.APIKey,
		baseURL:     settings.BaseURL,
		model:       settings.Model,
		maxTokens:   settings.MaxTokens,
		temperature: settings.Temperature,
		http:        &http.Client{Timeout: 5 * time.Minute},
	}
	if c.baseURL == "" {
		c.baseURL = anthropicAPI
	}
	if c.model == "" {
		c.model = defaultModel
	}
	if c.maxTokens <= 0 {
		c.maxTokens = 4096
	}
	return c, nil
}

// Model returns the model name requests are sent to
func (c *Client) Model() string {
	return c.model
}

type apiRequest struct {
	Model       string       `json:"model"`
	MaxTokens   int          `json:"max_tokens"`
	System      string       `json:"system,omitempty"`
	Temperature float64      `json:"temperature"`
	Messages    []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends the prompt and returns the concatenated text blocks
func (c *Client) Complete(ctx context.Context, p Prompt) (string, error) {
	reqBody := apiRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		System:      p.System,
		Temperature: c.temperature,
		Messages:    []apiMessage{{Role: "user", Content: p.User}},
	}
	if p.MaxTokens > 0 {
		reqBody.MaxTokens = p.MaxTokens
	}
	if p.Temperature != nil {
		reqBody.Temperature = *p.Temperature
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("api error: %s", apiResp.Error.Message)
	}

	var sb strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response")
	}
	if apiResp.StopReason == "max_tokens" {
		return sb.String(), ErrTruncated
	}

	return sb.String(), nil
}
