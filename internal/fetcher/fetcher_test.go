package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><head><style>body{}</style><script>var x=1;</script></head>
<body><nav>Home | About</nav><article><h1>Duration</h1><p>Duration measures
interest rate   risk.</p></article><footer>© 2026</footer></body></html>`

func TestFetchExtractsArticleText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Write([]byte(page))
	}))
	defer srv.Close()

	text, err := New(srv.Client()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Duration Duration measures interest rate risk.", text)
}

func TestFetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/empty" {
			w.Write([]byte("<html><script>x</script></html>"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := New(srv.Client())

	_, err := f.Fetch(context.Background(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "HTTP 404")

	_, err = f.Fetch(context.Background(), srv.URL+"/empty")
	assert.ErrorIs(t, err, ErrNoText)

	_, err = f.Fetch(context.Background(), "ftp://example.com/file")
	assert.ErrorContains(t, err, "unsupported scheme")
}

func TestExtractTextTruncates(t *testing.T) {
	long := "<p>" + strings.Repeat("a ", 20000) + "</p>"
	text := ExtractText(long)
	assert.True(t, strings.HasSuffix(text, "..."))
	assert.LessOrEqual(t, len(text), maxTextBytes+3)
}
