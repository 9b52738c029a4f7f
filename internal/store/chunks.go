package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pbaille/cfaprep/internal/domain"
	"github.com/pbaille/cfaprep/internal/embedding"
)

// ChunkInput is one embedded chunk to write into the vector index
type ChunkInput struct {
	DocumentID string
	Source     string
	Content    string
	Metadata   map[string]string
	Embedding  []float64
	Model      string
}

// ChunkQuery is a similarity search against the vector index. When Model
// is set only chunks embedded by that model are scored.
type ChunkQuery struct {
	Vector   []float64
	Model    string
	Filter   map[string]string
	TopK     int
	MinScore float64
}

// SaveChunks writes chunks in one transaction
func (s *Store) SaveChunks(ctx context.Context, chunks []ChunkInput) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertChunks(ctx, tx, chunks); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ReplaceDocument swaps every chunk of a document for chunks in one
// transaction and returns how many were removed. On error the previous
// chunks stay in place.
func (s *Store) ReplaceDocument(ctx context.Context, documentID string, chunks []ChunkInput) (int, error) {
	for _, c := range chunks {
		if c.DocumentID != documentID {
			return 0, fmt.Errorf("chunk belongs to %s, not %s", c.DocumentID, documentID)
		}
		if len(c.Embedding) == 0 {
			return 0, fmt.Errorf("chunk of %s has no embedding", documentID)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID)
	if err != nil {
		return 0, fmt.Errorf("delete chunks: %w", err)
	}
	removed, _ := res.RowsAffected()

	if err := insertChunks(ctx, tx, chunks); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return int(removed), nil
}

func insertChunks(ctx context.Context, tx *sql.Tx, chunks []ChunkInput) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, source, content, metadata, embedding, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	t := now()
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk of %s has no embedding", c.DocumentID)
		}
		meta := c.Metadata
		if meta == nil {
			meta = map[string]string{}
		}
		metaJSON, err := encodeJSON(meta)
		if err != nil {
			return err
		}
		vecJSON, err := encodeJSON(c.Embedding)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, newID(), c.DocumentID, c.Source, c.Content,
			metaJSON, vecJSON, c.Model, t); err != nil {
			return fmt.Errorf("insert chunk: %w", err)
		}
	}
	return nil
}

// DeleteDocument removes every chunk of a document and returns how many went
func (s *Store) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID)
	if err != nil {
		return 0, fmt.Errorf("delete chunks: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// CountChunks returns the size of the vector index
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// SearchChunks scores every chunk whose metadata matches all filter keys
// and returns the TopK best by cosine similarity, highest first. Chunks
// whose vector dimension differs from the query are never returned.
func (s *Store) SearchChunks(ctx context.Context, q ChunkQuery) ([]domain.ScoredChunk, error) {
	if q.TopK <= 0 || len(q.Vector) == 0 {
		return nil, nil
	}

	query := "SELECT id, document_id, source, content, metadata, embedding, model, created_at FROM chunks"
	var args []any
	if q.Model != "" {
		query += " WHERE model = ?"
		args = append(args, q.Model)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()

	var results []domain.ScoredChunk
	for rows.Next() {
		var (
			c        domain.ScoredChunk
			metaJSON string
			vecJSON  string
		)
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Source, &c.Content, &metaJSON, &vecJSON,
			&c.Model, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(metaJSON), &c.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
		if !matchesFilter(c.Metadata, q.Filter) {
			continue
		}

		var vector []float64
		if err := json.Unmarshal([]byte(vecJSON), &vector); err != nil {
			return nil, fmt.Errorf("decode embedding: %w", err)
		}
		if len(vector) != len(q.Vector) {
			continue
		}
		c.Score = embedding.CosineSimilarity(q.Vector, vector)
		if c.Score < q.MinScore {
			continue
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > q.TopK {
		results = results[:q.TopK]
	}
	return results, nil
}

func matchesFilter(meta, filter map[string]string) bool {
	for k, v := range filter {
		if meta[k] != v {
			return false
		}
	}
	return true
}
