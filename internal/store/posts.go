package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pbaille/cfaprep/internal/domain"
)

const postColumns = `id, category_id, title, slug, excerpt, content, content_html,
	meta_description, keywords, faq, word_count, reading_time_minutes, status,
	source_url, generation_job_id, created_at, updated_at, published_at`

// UniqueSlug returns base, or base with the first free numeric suffix
func (s *Store) UniqueSlug(ctx context.Context, base string) (string, error) {
	if base == "" {
		base = "post"
	}
	candidate := base
	for i := 2; ; i++ {
		var exists int
		err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM blog_posts WHERE slug = ?", candidate,
		).Scan(&exists)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if exists == 0 {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(i)
	}
}

// CreatePost inserts a blog post, filling ID and timestamps
func (s *Store) CreatePost(ctx context.Context, p *domain.BlogPost) error {
	keywords, err := encodeJSON(nonNil(p.Keywords))
	if err != nil {
		return err
	}
	faq := "[]"
	if len(p.FAQ) > 0 {
		if faq, err = encodeJSON(p.FAQ); err != nil {
			return err
		}
	}

	p.ID = newID()
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	if p.Status == "" {
		p.Status = domain.PostDraft
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO blog_posts (`+postColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.CategoryID, p.Title, p.Slug, p.Excerpt, p.Content, p.ContentHTML,
		p.MetaDescription, keywords, faq, p.WordCount, p.ReadingTimeMinutes, p.Status,
		p.SourceURL, p.GenerationJobID, p.CreatedAt, p.UpdatedAt, p.PublishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// GetPost retrieves a post by ID regardless of status
func (s *Store) GetPost(ctx context.Context, id string) (*domain.BlogPost, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+postColumns+" FROM blog_posts WHERE id = ?", id)
	p, err := scanPost(row)
	if err != nil {
		return nil, notFound(err, "post")
	}
	return p, nil
}

// GetPublishedPostBySlug retrieves a published post
func (s *Store) GetPublishedPostBySlug(ctx context.Context, slug string) (*domain.BlogPost, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+postColumns+" FROM blog_posts WHERE slug = ? AND status = ?",
		slug, domain.PostPublished,
	)
	p, err := scanPost(row)
	if err != nil {
		return nil, notFound(err, "post")
	}
	return p, nil
}

// ListPublishedPosts returns published posts, newest first, optionally in one category
func (s *Store) ListPublishedPosts(ctx context.Context, categoryID string, limit, offset int) ([]domain.BlogPost, error) {
	query := "SELECT " + postColumns + " FROM blog_posts WHERE status = ?"
	args := []any{domain.PostPublished}
	if categoryID != "" {
		query += " AND category_id = ?"
		args = append(args, categoryID)
	}
	query += " ORDER BY published_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.BlogPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// PublishPost flips a post to published and stamps published_at
func (s *Store) PublishPost(ctx context.Context, id string) (*domain.BlogPost, error) {
	t := now()
	res, err := s.db.ExecContext(ctx,
		"UPDATE blog_posts SET status = ?, published_at = COALESCE(published_at, ?), updated_at = ? WHERE id = ?",
		domain.PostPublished, t, t, id,
	)
	if err != nil {
		return nil, fmt.Errorf("publish post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("post: %w", ErrNotFound)
	}
	return s.GetPost(ctx, id)
}

func scanPost(row rowScanner) (*domain.BlogPost, error) {
	var (
		p           domain.BlogPost
		keywords    string
		faq         string
		publishedAt sql.NullTime
	)
	err := row.Scan(
		&p.ID, &p.CategoryID, &p.Title, &p.Slug, &p.Excerpt, &p.Content, &p.ContentHTML,
		&p.MetaDescription, &keywords, &faq, &p.WordCount, &p.ReadingTimeMinutes, &p.Status,
		&p.SourceURL, &p.GenerationJobID, &p.CreatedAt, &p.UpdatedAt, &publishedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(keywords), &p.Keywords); err != nil {
		return nil, fmt.Errorf("decode keywords: %w", err)
	}
	if err := json.Unmarshal([]byte(faq), &p.FAQ); err != nil {
		return nil, fmt.Errorf("decode faq: %w", err)
	}
	p.PublishedAt = nullTime(publishedAt)
	return &p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
