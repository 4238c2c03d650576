package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/inkwell/publisher/cmd/publisher/models"
	"github.com/inkwell/publisher/common/apperr"
	"github.com/inkwell/publisher/common/db"
)

// PostRepository handles database operations for posts and their tag
// associations
type PostRepository struct {
	db *db.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(database *db.DB) *PostRepository {
	return &PostRepository{db: database}
}

// Create inserts a new post
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (id, title, content, published, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		post.ID,
		post.Title,
		post.Content,
		post.Published,
		post.AuthorID,
		post.CreatedAt,
		post.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	return nil
}

// GetByID retrieves a bare post row by id
func (r *PostRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	query := `
		SELECT id, title, content, published, author_id, created_at, updated_at
		FROM posts
		WHERE id = $1
	`

	post := &models.Post{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&post.ID,
		&post.Title,
		&post.Content,
		&post.Published,
		&post.AuthorID,
		&post.CreatedAt,
		&post.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("post not found")
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return post, nil
}

// GetDetail retrieves the fully hydrated aggregate for a post: the post
// row, its author summary, and its resolved tags
func (r *PostRepository) GetDetail(ctx context.Context, id uuid.UUID) (*models.PostDetail, error) {
	query := `
		SELECT p.id, p.title, p.content, p.published, p.author_id, p.created_at, p.updated_at,
		       u.id, u.name
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.id = $1
	`

	detail := &models.PostDetail{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&detail.ID,
		&detail.Title,
		&detail.Content,
		&detail.Published,
		&detail.AuthorID,
		&detail.CreatedAt,
		&detail.UpdatedAt,
		&detail.Author.ID,
		&detail.Author.Name,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("post not found")
		}
		return nil, fmt.Errorf("failed to get post detail: %w", err)
	}

	tagsByPost, err := r.loadTags(ctx, []uuid.UUID{detail.ID})
	if err != nil {
		return nil, err
	}
	detail.Tags = tagsByPost[detail.ID]
	if detail.Tags == nil {
		detail.Tags = []models.Tag{}
	}

	return detail, nil
}

// Update writes the mutable scalar fields of a post. AuthorID and
// CreatedAt are never touched.
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET title = $2, content = $3, published = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		post.ID,
		post.Title,
		post.Content,
		post.Published,
		post.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("post not found")
	}

	return nil
}

// Delete removes a post; post_tags rows cascade at the schema level
func (r *PostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM posts WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("post not found")
	}

	return nil
}

// ReplaceTags swaps the entire association set of a post for the given
// tag ids, stamping each row with the acting user. Runs in a single
// transaction so a failure can only leave the old set or an empty set,
// never duplicates.
func (r *PostRepository) ReplaceTags(ctx context.Context, postID uuid.UUID, tagIDs []uuid.UUID, assignedBy uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tag replacement: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM post_tags WHERE post_id = $1`, postID); err != nil {
		return fmt.Errorf("failed to clear post tags: %w", err)
	}

	if len(tagIDs) > 0 {
		batch := &pgx.Batch{}
		for _, tagID := range tagIDs {
			batch.Queue(`
				INSERT INTO post_tags (post_id, tag_id, assigned_by, assigned_at)
				VALUES ($1, $2, $3, NOW())
				ON CONFLICT (post_id, tag_id) DO NOTHING
			`, postID, tagID, assignedBy)
		}

		results := tx.SendBatch(ctx, batch)
		for range tagIDs {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("failed to insert post tag: %w", err)
			}
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("failed to close tag batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit tag replacement: %w", err)
	}

	return nil
}

// List retrieves a page of published posts matching the filter, hydrated
// with author summaries and tags, plus the total match count.
// Ordered by created_at DESC with id DESC as tie-breaker so pagination
// stays deterministic.
func (r *PostRepository) List(ctx context.Context, filter models.PostFilter) ([]*models.PostDetail, int, error) {
	countQuery := `
		SELECT COUNT(*)
		FROM posts p
		WHERE p.published = TRUE
		  AND ($1::uuid IS NULL OR p.author_id = $1)
		  AND ($2::text IS NULL OR EXISTS (
		        SELECT 1
		        FROM post_tags pt
		        JOIN tags t ON t.id = pt.tag_id
		        WHERE pt.post_id = p.id AND t.name = $2
		  ))
	`

	var total int
	if err := r.db.QueryRow(ctx, countQuery, filter.AuthorID, filter.TagName).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	query := `
		SELECT p.id, p.title, p.content, p.published, p.author_id, p.created_at, p.updated_at,
		       u.id, u.name
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.published = TRUE
		  AND ($1::uuid IS NULL OR p.author_id = $1)
		  AND ($2::text IS NULL OR EXISTS (
		        SELECT 1
		        FROM post_tags pt
		        JOIN tags t ON t.id = pt.tag_id
		        WHERE pt.post_id = p.id AND t.name = $2
		  ))
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, filter.AuthorID, filter.TagName, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var details []*models.PostDetail
	var postIDs []uuid.UUID
	for rows.Next() {
		detail := &models.PostDetail{}
		err := rows.Scan(
			&detail.ID,
			&detail.Title,
			&detail.Content,
			&detail.Published,
			&detail.AuthorID,
			&detail.CreatedAt,
			&detail.UpdatedAt,
			&detail.Author.ID,
			&detail.Author.Name,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan post: %w", err)
		}
		detail.Tags = []models.Tag{}
		details = append(details, detail)
		postIDs = append(postIDs, detail.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating posts: %w", err)
	}

	// Hydrate tags for the whole page in one query instead of per post
	if len(postIDs) > 0 {
		tagsByPost, err := r.loadTags(ctx, postIDs)
		if err != nil {
			return nil, 0, err
		}
		for _, detail := range details {
			if tags, ok := tagsByPost[detail.ID]; ok {
				detail.Tags = tags
			}
		}
	}

	return details, total, nil
}

// loadTags fetches tags for a set of posts keyed by post id
func (r *PostRepository) loadTags(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]models.Tag, error) {
	query := `
		SELECT pt.post_id, t.id, t.name
		FROM post_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id = ANY($1)
		ORDER BY t.name ASC
	`

	rows, err := r.db.Query(ctx, query, postIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load post tags: %w", err)
	}
	defer rows.Close()

	tagsByPost := make(map[uuid.UUID][]models.Tag)
	for rows.Next() {
		var postID uuid.UUID
		var tag models.Tag
		if err := rows.Scan(&postID, &tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("failed to scan post tag: %w", err)
		}
		tagsByPost[postID] = append(tagsByPost[postID], tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post tags: %w", err)
	}

	return tagsByPost, nil
}
