package notify

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

func TestWebhookPayloadFlavors(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = nil
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	slack := New(config.NotifySettings{WebhookURL: srv.URL}, srv.Client())
	require.NoError(t, slack.Notify(context.Background(), "post ready"))
	assert.Equal(t, map[string]string{"text": "post ready"}, got)

	discord := New(config.NotifySettings{WebhookURL: srv.URL, Flavor: config.WebhookDiscord}, srv.Client())
	require.NoError(t, discord.Notify(context.Background(), "post ready"))
	assert.Equal(t, map[string]string{"content": "post ready"}, got)
}

func TestWebhookErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_token", http.StatusForbidden)
	}))
	defer srv.Close()

	err := New(config.NotifySettings{WebhookURL: srv.URL}, srv.Client()).Notify(context.Background(), "x")
	assert.ErrorContains(t, err, "403")
	assert.ErrorContains(t, err, "invalid_token")
}

func TestNopWithoutURL(t *testing.T) {
	n := New(config.NotifySettings{}, nil)
	assert.IsType(t, Nop{}, n)
	assert.NoError(t, n.Notify(context.Background(), "ignored"))
}
