package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pbaille/cfaprep/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(config.LLMSettings{APIKey: "k", BaseURL: srv.URL, Model: "test-model", MaxTokens: 1000, Temperature: 0.5})
	require.NoError(t, err)
	return c
}

func TestCompleteSendsPromptAndJoinsText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req apiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, 200, req.MaxTokens)
		assert.Equal(t, "be terse", req.System)
		assert.InDelta(t, 0.2, req.Temperature, 1e-9)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "hello", req.Messages[0].Content)

		w.Write([]byte(`{"content":[{"type":"text","text":"Hi "},{"type":"text","text":"there"}],"stop_reason":"end_turn"}`))
	})

	temp := 0.2
	out, err := c.Complete(context.Background(), Prompt{System: "be terse", User: "hello", MaxTokens: 200, Temperature: &temp})
	require.NoError(t, err)
	assert.Equal(t, "Hi there", out)
}

func TestCompleteErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	})
	_, err := c.Complete(context.Background(), Prompt{User: "x"})
	assert.ErrorContains(t, err, "429")

	c = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	})
	_, err = c.Complete(context.Background(), Prompt{User: "x"})
	assert.ErrorContains(t, err, "empty response")

	c = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"type":"text","text":"{\"a\":"}],"stop_reason":"max_tokens"}`))
	})
	out, err := c.Complete(context.Background(), Prompt{User: "x"})
	assert.ErrorIs(t, err, ErrTruncated)
	assert.Equal(t, `{"a":`, out)
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(config.LLMSettings{})
	assert.Error(t, err)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain object", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around array", "Here you go:\n[{\"a\":1}]\nHope this helps!", `[{"a":1}]`},
		{"no json", "sorry", "sorry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.in))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Title string `json:"title"`
	}
	require.NoError(t, DecodeJSON("```\n{\"title\":\"Duration\"}\n```", &v))
	assert.Equal(t, "Duration", v.Title)

	assert.Error(t, DecodeJSON("not json", &v))
}
