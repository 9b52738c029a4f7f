package store

import (
	"context"
	"fmt"

	"github.com/pbaille/cfaprep/internal/domain"
)

// CreateCategory inserts a category; the slug is derived from the name
func (s *Store) CreateCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	c := &domain.Category{
		ID:          newID(),
		Name:        name,
		Slug:        domain.Slugify(name),
		Description: description,
		CreatedAt:   now(),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO categories (id, name, slug, description, created_at) VALUES (?, ?, ?, ?, ?)",
		c.ID, c.Name, c.Slug, c.Description, c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

// GetCategory retrieves a category by ID
func (s *Store) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	var c domain.Category
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, slug, description, created_at FROM categories WHERE id = ?", id,
	).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt)
	if err != nil {
		return nil, notFound(err, "category")
	}
	return &c, nil
}

// ListCategories returns all categories ordered by name
func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, slug, description, created_at FROM categories ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
