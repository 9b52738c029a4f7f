package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pbaille/cfaprep/internal/chunking"
	"github.com/pbaille/cfaprep/internal/embedding"
	"github.com/pbaille/cfaprep/internal/store"
)

// embedBatchSize bounds texts per embeddings call
const embedBatchSize = 64

var (
	// ErrEmptyDocument is returned when a document has no text to index
	ErrEmptyDocument = errors.New("rag: document has no content")
	// ErrMissingDocumentID is returned when a document has no id
	ErrMissingDocumentID = errors.New("rag: document id is required")
)

// IndexWriter stores embedded chunks
type IndexWriter interface {
	ReplaceDocument(ctx context.Context, documentID string, chunks []store.ChunkInput) (int, error)
	DeleteDocument(ctx context.Context, documentID string) (int, error)
}

// Document is study material to add to the vector index
type Document struct {
	ID      string `json:"document_id"`
	Source  string `json:"source"`
	Content string `json:"content"`
	Level   string `json:"level"`
	Topic   string `json:"topic"`
	Kind    string `json:"kind,omitempty"`
}

// IngestResult reports what an ingestion wrote
type IngestResult struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
	Replaced   int    `json:"replaced"`
}

// Ingester chunks, embeds and indexes documents
type Ingester struct {
	embedder embedding.Embedder
	index    IndexWriter
	opts     chunking.Options
}

// NewIngester creates an Ingester
func NewIngester(e embedding.Embedder, idx IndexWriter, opts chunking.Options) *Ingester {
	return &Ingester{embedder: e, index: idx, opts: opts}
}

// Ingest replaces any previous chunks of doc.ID with freshly embedded ones
func (in *Ingester) Ingest(ctx context.Context, doc Document) (*IngestResult, error) {
	if strings.TrimSpace(doc.ID) == "" {
		return nil, ErrMissingDocumentID
	}
	pieces := chunking.Split(doc.Content, in.opts)
	if len(pieces) == 0 {
		return nil, ErrEmptyDocument
	}

	source := doc.Source
	if source == "" {
		source = doc.ID
	}
	kind := doc.Kind
	if kind == "" {
		kind = KindCurriculum
	}

	inputs := make([]store.ChunkInput, 0, len(pieces))
	for start := 0; start < len(pieces); start += embedBatchSize {
		end := min(start+embedBatchSize, len(pieces))

		texts := make([]string, 0, end-start)
		for _, p := range pieces[start:end] {
			texts = append(texts, p.Content)
		}

		vectors, err := in.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", start, end, err)
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("embed chunks %d-%d: got %d vectors", start, end, len(vectors))
		}

		for i, p := range pieces[start:end] {
			if len(vectors[i]) == 0 {
				return nil, fmt.Errorf("embed chunks %d-%d: empty vector for chunk %d", start, end, start+i)
			}
			chunkSource := source
			if p.Section != "" {
				chunkSource = source + " > " + p.Section
			}
			inputs = append(inputs, store.ChunkInput{
				DocumentID: doc.ID,
				Source:     chunkSource,
				Content:    p.Content,
				Metadata: map[string]string{
					"kind":  kind,
					"level": doc.Level,
					"topic": doc.Topic,
				},
				Embedding: vectors[i],
				Model:     in.embedder.Model(),
			})
		}
	}

	replaced, err := in.index.ReplaceDocument(ctx, doc.ID, inputs)
	if err != nil {
		return nil, err
	}

	return &IngestResult{DocumentID: doc.ID, Chunks: len(inputs), Replaced: replaced}, nil
}

// Remove drops a document from the index. Removing an unknown document
// returns store.ErrNotFound.
func (in *Ingester) Remove(ctx context.Context, documentID string) (int, error) {
	if strings.TrimSpace(documentID) == "" {
		return 0, ErrMissingDocumentID
	}
	n, err := in.index.DeleteDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("document %s: %w", documentID, store.ErrNotFound)
	}
	return n, nil
}
