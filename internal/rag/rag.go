// Package rag assembles retrieval context for the question and blog
// generators: embed a query, search the vector index with a metadata
// filter, then concatenate the best chunks up to a character budget.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pbaille/cfaprep/internal/domain"
	"github.com/pbaille/cfaprep/internal/embedding"
	"github.com/pbaille/cfaprep/internal/store"
)

// Defaults applied when a Request leaves a field zero
const (
	DefaultTopK     = 5
	DefaultMaxChars = 6000

	separator = "\n\n---\n\n"
)

// ErrEmptyQuery is returned for a blank query
var ErrEmptyQuery = errors.New("rag: empty query")

// Index is the vector search the retriever runs against
type Index interface {
	SearchChunks(ctx context.Context, q store.ChunkQuery) ([]domain.ScoredChunk, error)
}

// Request describes one retrieval
type Request struct {
	Query    string
	Filter   map[string]string
	TopK     int
	MaxChars int
	MinScore float64
}

// Context is the assembled retrieval result
type Context struct {
	Text       string   `json:"context"`
	Sources    []string `json:"sources"`
	ChunkCount int      `json:"chunk_count"`
	CharCount  int      `json:"char_count"`
}

// Empty reports whether nothing was retrieved
func (c *Context) Empty() bool {
	return c == nil || c.ChunkCount == 0
}

// Retriever runs retrievals against an embedder and an index
type Retriever struct {
	embedder embedding.Embedder
	index    Index
	defaults Request
}

// NewRetriever creates a Retriever; defaults fill zero fields of each Request
func NewRetriever(e embedding.Embedder, idx Index, defaults Request) *Retriever {
	if defaults.TopK <= 0 {
		defaults.TopK = DefaultTopK
	}
	if defaults.MaxChars <= 0 {
		defaults.MaxChars = DefaultMaxChars
	}
	return &Retriever{embedder: e, index: idx, defaults: defaults}
}

// Retrieve embeds the query, searches the index and assembles the context
func (r *Retriever) Retrieve(ctx context.Context, req Request) (*Context, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if req.TopK <= 0 {
		req.TopK = r.defaults.TopK
	}
	if req.MaxChars <= 0 {
		req.MaxChars = r.defaults.MaxChars
	}
	if req.MinScore <= 0 {
		req.MinScore = r.defaults.MinScore
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	chunks, err := r.index.SearchChunks(ctx, store.ChunkQuery{
		Vector:   vector,
		Model:    r.embedder.Model(),
		Filter:   req.Filter,
		TopK:     req.TopK,
		MinScore: req.MinScore,
	})
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	return Assemble(chunks, req.MaxChars), nil
}

// Assemble joins chunks in the given order, each tagged with its source,
// and stops before the text would pass maxChars. A first chunk that alone
// exceeds the budget is cut to fit.
func Assemble(chunks []domain.ScoredChunk, maxChars int) *Context {
	out := &Context{Sources: []string{}}
	if maxChars <= 0 {
		return out
	}

	var sb strings.Builder
	seen := make(map[string]bool)

	for _, c := range chunks {
		part := fmt.Sprintf("[Source: %s]\n%s", c.Source, strings.TrimSpace(c.Content))
		if sb.Len() > 0 {
			part = separator + part
		}

		if sb.Len()+len(part) > maxChars {
			if sb.Len() == 0 {
				sb.WriteString(truncate(part, maxChars))
				out.ChunkCount++
				addSource(out, seen, c.Source)
			}
			break
		}

		sb.WriteString(part)
		out.ChunkCount++
		addSource(out, seen, c.Source)
	}

	out.Text = sb.String()
	out.CharCount = len(out.Text)
	return out
}

func addSource(out *Context, seen map[string]bool, source string) {
	if source == "" || seen[source] {
		return
	}
	seen[source] = true
	out.Sources = append(out.Sources, source)
}

// truncate cuts s to at most max bytes without splitting a UTF-8 sequence
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// QuestionQuery builds the retrieval query for question generation
func QuestionQuery(level, topic, subtopic, los string) string {
	parts := []string{"CFA Level " + level, topic}
	if subtopic != "" {
		parts = append(parts, subtopic)
	}
	if los != "" {
		parts = append(parts, los)
	}
	return strings.Join(parts, " ")
}

// QuestionFilter restricts question retrieval to curriculum chunks of a
// level, and a topic when given
func QuestionFilter(level, topic string) map[string]string {
	f := map[string]string{"level": level}
	if topic != "" {
		f["topic"] = topic
	}
	return f
}

// BlogQuery builds the retrieval query for a blog article
func BlogQuery(topic string, keywords []string) string {
	q := strings.TrimSpace(topic)
	if len(keywords) > 0 {
		q += " " + strings.Join(keywords, " ")
	}
	return q
}

// BlogFilter restricts blog retrieval to curriculum material
func BlogFilter(level string) map[string]string {
	f := map[string]string{"kind": KindCurriculum}
	if level != "" {
		f["level"] = level
	}
	return f
}

// KindCurriculum tags chunks ingested from study material
const KindCurriculum = "curriculum"
