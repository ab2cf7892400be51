package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sm4rtm4art/go-api-template/models"
	"github.com/sm4rtm4art/go-api-template/repositories"
	"go.uber.org/zap"
)

// ContentRepository implements the repositories.ContentRepository interface
type ContentRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewContentRepository creates a new content repository
func NewContentRepository(db *DB, logger *zap.Logger) repositories.ContentRepository {
	return &ContentRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new content record and populates its ID
func (r *ContentRepository) Create(ctx context.Context, content *models.Content) error {
	query := `
		INSERT INTO content (title, slug, text, published, created_time, tags, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, query,
		content.Title,
		content.Slug,
		content.Text,
		content.Published,
		content.CreatedTime,
		content.Tags,
		content.UserID,
	).Scan(&content.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("slug %q: %w", content.Slug, repositories.ErrDuplicate)
		}
		return fmt.Errorf("failed to create content: %w", err)
	}

	r.logger.Debug("content created", zap.Int64("id", content.ID), zap.String("slug", content.Slug))
	return nil
}

// GetByID retrieves content by ID
func (r *ContentRepository) GetByID(ctx context.Context, id int64) (*models.Content, error) {
	query := `
		SELECT id, title, slug, text, published, created_time, tags, user_id
		FROM content
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	content := &models.Content{}

	err := executor.QueryRowContext(ctx, query, id).Scan(
		&content.ID,
		&content.Title,
		&content.Slug,
		&content.Text,
		&content.Published,
		&content.CreatedTime,
		&content.Tags,
		&content.UserID,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("content %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get content: %w", err)
	}

	return content, nil
}

// GetBySlug retrieves content by slug
func (r *ContentRepository) GetBySlug(ctx context.Context, slug string) (*models.Content, error) {
	query := `
		SELECT id, title, slug, text, published, created_time, tags, user_id
		FROM content
		WHERE slug = $1
	`

	executor := GetExecutor(ctx, r.db)
	content := &models.Content{}

	err := executor.QueryRowContext(ctx, query, slug).Scan(
		&content.ID,
		&content.Title,
		&content.Slug,
		&content.Text,
		&content.Published,
		&content.CreatedTime,
		&content.Tags,
		&content.UserID,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("content %q: %w", slug, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get content: %w", err)
	}

	return content, nil
}

// List retrieves all content ordered by creation time, newest first
func (r *ContentRepository) List(ctx context.Context, limit, offset int) ([]*models.Content, error) {
	query := `
		SELECT id, title, slug, text, published, created_time, tags, user_id
		FROM content
		ORDER BY created_time DESC
		LIMIT $1 OFFSET $2
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query content: %w", err)
	}
	defer rows.Close()

	var items []*models.Content
	for rows.Next() {
		content := &models.Content{}
		err := rows.Scan(
			&content.ID,
			&content.Title,
			&content.Slug,
			&content.Text,
			&content.Published,
			&content.CreatedTime,
			&content.Tags,
			&content.UserID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content: %w", err)
		}
		items = append(items, content)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating content rows: %w", err)
	}

	return items, nil
}

// Update replaces a content record
func (r *ContentRepository) Update(ctx context.Context, content *models.Content) error {
	query := `
		UPDATE content
		SET title = $2,
		    slug = $3,
		    text = $4,
		    published = $5,
		    tags = $6
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		content.ID,
		content.Title,
		content.Slug,
		content.Text,
		content.Published,
		content.Tags,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("slug %q: %w", content.Slug, repositories.ErrDuplicate)
		}
		return fmt.Errorf("failed to update content: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("content %d: %w", content.ID, repositories.ErrNotFound)
	}

	r.logger.Debug("content updated", zap.Int64("id", content.ID))
	return nil
}

// Delete deletes a content record
func (r *ContentRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM content WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete content: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("content %d: %w", id, repositories.ErrNotFound)
	}

	r.logger.Debug("content deleted", zap.Int64("id", id))
	return nil
}
