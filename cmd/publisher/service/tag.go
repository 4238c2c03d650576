package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/inkwell/publisher/cmd/publisher/models"
	"github.com/inkwell/publisher/common/logger"
)

// TagStore is the storage contract the tag service depends on. The
// get-or-create must be atomic at the storage layer so concurrent
// creations of the same new name converge to one row.
type TagStore interface {
	GetOrCreate(ctx context.Context, name string) (*models.Tag, error)
}

// TagService resolves tag names to tag rows, creating missing ones
type TagService struct {
	tags TagStore
	log  *logger.Logger
}

// NewTagService creates a new tag service
func NewTagService(tags TagStore, log *logger.Logger) *TagService {
	return &TagService{
		tags: tags,
		log:  log,
	}
}

// ResolveOrCreate maps each distinct tag name to its tag row, creating
// rows that do not exist yet. Names are trimmed; empty names are dropped
// silently; duplicates resolve once. Safe under concurrent calls for the
// same name via the store's atomic get-or-create.
func (s *TagService) ResolveOrCreate(ctx context.Context, names []string) (map[string]models.Tag, error) {
	resolved := make(map[string]models.Tag, len(names))

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := resolved[name]; ok {
			continue
		}

		tag, err := s.tags.GetOrCreate(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve tag %q: %w", name, err)
		}

		resolved[name] = *tag
	}

	return resolved, nil
}
