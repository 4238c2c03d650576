package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell/publisher/cmd/publisher/models"
	"github.com/inkwell/publisher/common/apperr"
	"github.com/inkwell/publisher/common/cache"
	"github.com/inkwell/publisher/common/logger"
)

// PostStore is the storage contract the post service depends on
type PostStore interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*models.PostDetail, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uuid.UUID) error
	ReplaceTags(ctx context.Context, postID uuid.UUID, tagIDs []uuid.UUID, assignedBy uuid.UUID) error
	List(ctx context.Context, filter models.PostFilter) ([]*models.PostDetail, int, error)
}

// TagResolver resolves tag names to tag rows, creating missing ones
type TagResolver interface {
	ResolveOrCreate(ctx context.Context, names []string) (map[string]models.Tag, error)
}

// PostInput carries the writable fields of a post. Published defaults to
// false on create and stays unchanged on update when nil. Tags nil means
// the tag list was omitted entirely; an empty non-nil slice clears all
// associations.
type PostInput struct {
	Title     string
	Content   string
	Published *bool
	Tags      []string
}

// ListQuery narrows and pages the public listing
type ListQuery struct {
	AuthorID string
	TagName  string
	Page     int
	Limit    int
}

// PostService orchestrates the post lifecycle: create, read, update,
// delete, and paginated listing, enforcing ownership and visibility
// rules before any mutation reaches the store
type PostService struct {
	posts    PostStore
	tags     TagResolver
	cache    cache.Cache
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewPostService creates a new post service. cache may be nil to disable
// read caching.
func NewPostService(posts PostStore, tags TagResolver, postCache cache.Cache, cacheTTL time.Duration, log *logger.Logger) *PostService {
	return &PostService{
		posts:    posts,
		tags:     tags,
		cache:    postCache,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

// Create persists a new post owned by the actor. Tags, when given, are
// resolved through the tag resolver and linked with assigned_by = actor.
func (s *PostService) Create(ctx context.Context, actor *models.User, in PostInput) (*models.PostDetail, error) {
	if actor == nil {
		return nil, apperr.Unauthenticated("login required")
	}

	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" || content == "" {
		return nil, apperr.Validation("title and content must not be empty")
	}

	now := time.Now().UTC()
	post := &models.Post{
		ID:        uuid.New(),
		Title:     title,
		Content:   content,
		Published: in.Published != nil && *in.Published,
		AuthorID:  actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	if len(in.Tags) > 0 {
		if err := s.linkTags(ctx, post.ID, in.Tags, actor.ID); err != nil {
			return nil, err
		}
	}

	s.log.Info("created post",
		"post_id", post.ID,
		"author_id", actor.ID,
		"published", post.Published,
	)

	return s.posts.GetDetail(ctx, post.ID)
}

// Get fetches the hydrated post. Unpublished posts are readable only by
// their author; everyone else, anonymous included, gets Forbidden.
func (s *PostService) Get(ctx context.Context, postID uuid.UUID, viewer *models.User) (*models.PostDetail, error) {
	// Only published posts ever enter the cache, so a hit is public
	if detail, ok := s.cachedDetail(ctx, postID); ok {
		return detail, nil
	}

	detail, err := s.posts.GetDetail(ctx, postID)
	if err != nil {
		return nil, err
	}

	if !detail.Published {
		if viewer == nil || viewer.ID != detail.AuthorID {
			return nil, apperr.Forbidden("this post is not published")
		}
		return detail, nil
	}

	s.cacheDetail(ctx, detail)
	return detail, nil
}

// Update rewrites the post's scalar fields and, when a tag list is
// supplied, replaces the entire association set. Checks run in a fixed
// order: existence, then ownership, then field validation; nothing is
// mutated before all three pass.
func (s *PostService) Update(ctx context.Context, actor *models.User, postID uuid.UUID, in PostInput) (*models.PostDetail, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if actor == nil {
		return nil, apperr.Unauthenticated("login required")
	}
	if actor.ID != post.AuthorID {
		return nil, apperr.Forbidden("only the author may edit this post")
	}

	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" || content == "" {
		return nil, apperr.Validation("title and content must not be empty")
	}

	post.Title = title
	post.Content = content
	if in.Published != nil {
		post.Published = *in.Published
	}
	post.UpdatedAt = time.Now().UTC()

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	// A nil tag list leaves associations untouched; a non-nil list,
	// empty included, replaces the whole set
	if in.Tags != nil {
		if err := s.linkTags(ctx, post.ID, in.Tags, actor.ID); err != nil {
			return nil, err
		}
	}

	s.invalidateDetail(ctx, post.ID)

	s.log.Info("updated post",
		"post_id", post.ID,
		"author_id", actor.ID,
		"published", post.Published,
		"tags_replaced", in.Tags != nil,
	)

	return s.posts.GetDetail(ctx, post.ID)
}

// Delete removes the post; associations cascade at the storage layer and
// tag rows survive
func (s *PostService) Delete(ctx context.Context, actor *models.User, postID uuid.UUID) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}

	if actor == nil {
		return apperr.Unauthenticated("login required")
	}
	if actor.ID != post.AuthorID {
		return apperr.Forbidden("only the author may delete this post")
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	s.invalidateDetail(ctx, postID)

	s.log.Info("deleted post", "post_id", postID, "author_id", actor.ID)
	return nil
}

// List returns a page of published posts. Filters are exact matches; an
// author filter that is not a valid id matches nothing rather than
// erroring, mirroring an unknown author id.
func (s *PostService) List(ctx context.Context, q ListQuery) (*models.PostPage, error) {
	if q.Limit <= 0 {
		return nil, apperr.Validation("limit must be a positive integer")
	}
	if q.Page < 1 {
		q.Page = 1
	}

	filter := models.PostFilter{
		Limit:  q.Limit,
		Offset: (q.Page - 1) * q.Limit,
	}

	if q.AuthorID != "" {
		authorID, err := uuid.Parse(q.AuthorID)
		if err != nil {
			return &models.PostPage{
				Posts: []*models.PostDetail{},
				Pagination: models.Pagination{
					Total: 0, Page: q.Page, Limit: q.Limit, TotalPages: 0,
				},
			}, nil
		}
		filter.AuthorID = &authorID
	}

	if q.TagName != "" {
		filter.TagName = &q.TagName
	}

	posts, total, err := s.posts.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	if posts == nil {
		posts = []*models.PostDetail{}
	}

	return &models.PostPage{
		Posts: posts,
		Pagination: models.Pagination{
			Total:      total,
			Page:       q.Page,
			Limit:      q.Limit,
			TotalPages: (total + q.Limit - 1) / q.Limit,
		},
	}, nil
}

// linkTags resolves names and swaps the post's association set
func (s *PostService) linkTags(ctx context.Context, postID uuid.UUID, names []string, assignedBy uuid.UUID) error {
	resolved, err := s.tags.ResolveOrCreate(ctx, names)
	if err != nil {
		return err
	}

	tagIDs := make([]uuid.UUID, 0, len(resolved))
	for _, tag := range resolved {
		tagIDs = append(tagIDs, tag.ID)
	}

	if err := s.posts.ReplaceTags(ctx, postID, tagIDs, assignedBy); err != nil {
		return fmt.Errorf("failed to replace post tags: %w", err)
	}

	return nil
}

func detailCacheKey(postID uuid.UUID) string {
	return fmt.Sprintf("post:detail:%s", postID)
}

// cachedDetail returns a cached hydrated post. Cache failures degrade to
// a miss; the cache is never a correctness dependency.
func (s *PostService) cachedDetail(ctx context.Context, postID uuid.UUID) (*models.PostDetail, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, ok, err := s.cache.Get(ctx, detailCacheKey(postID))
	if err != nil {
		s.log.Warn("post cache read failed", "post_id", postID, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	detail := &models.PostDetail{}
	if err := json.Unmarshal(data, detail); err != nil {
		s.log.Warn("post cache entry corrupt", "post_id", postID, "error", err)
		return nil, false
	}

	return detail, true
}

// cacheDetail stores a published post's hydrated detail
func (s *PostService) cacheDetail(ctx context.Context, detail *models.PostDetail) {
	if s.cache == nil || !detail.Published {
		return
	}

	data, err := json.Marshal(detail)
	if err != nil {
		s.log.Warn("post cache marshal failed", "post_id", detail.ID, "error", err)
		return
	}

	if err := s.cache.Set(ctx, detailCacheKey(detail.ID), data, s.cacheTTL); err != nil {
		s.log.Warn("post cache write failed", "post_id", detail.ID, "error", err)
	}
}

func (s *PostService) invalidateDetail(ctx context.Context, postID uuid.UUID) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Delete(ctx, detailCacheKey(postID)); err != nil {
		s.log.Warn("post cache invalidation failed", "post_id", postID, "error", err)
	}
}
