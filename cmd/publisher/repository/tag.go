package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/inkwell/publisher/cmd/publisher/models"
	"github.com/inkwell/publisher/common/db"
)

// TagRepository handles database operations for tags
type TagRepository struct {
	db *db.DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(database *db.DB) *TagRepository {
	return &TagRepository{db: database}
}

// GetOrCreate atomically fetches the tag with the given name, creating it
// if absent. The unique index on tags.name makes concurrent creations of
// the same name converge to a single row: the race loser observes the
// winner's row via the conflict clause instead of erroring.
func (r *TagRepository) GetOrCreate(ctx context.Context, name string) (*models.Tag, error) {
	query := `
		INSERT INTO tags (id, name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name
	`

	tag := &models.Tag{}
	err := r.db.QueryRow(ctx, query, uuid.New(), name).Scan(
		&tag.ID,
		&tag.Name,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get or create tag %q: %w", name, err)
	}

	return tag, nil
}
