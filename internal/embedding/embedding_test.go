package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pbaille/cfaprep/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// embeddingServer answers with one 2-d vector per input, returned in reverse order
func embeddingServer(t *testing.T, failFirst int32, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		if n <= failFirst {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"slow down"}}`))
			return
		}

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		type item struct {
			Embedding []float64 `json:"embedding"`
			Index     int       `json:"index"`
		}
		var data []item
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, item{Embedding: []float64{float64(i), float64(len(req.Input[i]))}, Index: i})
		}
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestVoyageEmbedBatchOrdersByIndex(t *testing.T) {
	srv, _ := embeddingServer(t, 0, 0)
	v := NewVoyage("test-key", srv.URL, "", srv.Client())

	vectors, err := v.EmbedBatch(context.Background(), []string{"a", "bbb"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float64{0, 1}, vectors[0])
	assert.Equal(t, []float64{1, 3}, vectors[1])
	assert.Equal(t, "voyage-3-lite", v.Model())
}

func TestVoyageAPIError(t *testing.T) {
	srv, _ := embeddingServer(t, 1, http.StatusUnauthorized)
	v := NewVoyage("test-key", srv.URL, "", srv.Client())

	_, err := v.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestOpenAIRetriesOnRateLimit(t *testing.T) {
	srv, calls := embeddingServer(t, 1, http.StatusTooManyRequests)
	c := NewOpenAI("test-key", srv.URL, "", srv.Client())
	c.delay = time.Millisecond

	vector, err := c.Embed(context.Background(), "duration")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 8}, vector)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenAIDoesNotRetryClientErrors(t *testing.T) {
	srv, calls := embeddingServer(t, 5, http.StatusBadRequest)
	c := NewOpenAI("test-key", srv.URL, "", srv.Client())
	c.delay = time.Millisecond

	_, err := c.Embed(context.Background(), "duration")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slow down")
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewSelectsProvider(t *testing.T) {
	e, err := New(config.EmbeddingSettings{Provider: config.EmbeddingOpenAI, APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", e.Model())

	_, err = New(config.EmbeddingSettings{Provider: config.EmbeddingVoyage})
	assert.Error(t, err)

	_, err = New(config.EmbeddingSettings{Provider: "cohere", APIKey: "k"})
	assert.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float64{1, 2}, []float64{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity([]float64{1}, []float64{1, 2}))
	assert.Equal(t, 0.0, CosineSimilarity([]float64{0, 0}, []float64{1, 2}))
}
