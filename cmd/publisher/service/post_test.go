package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell/publisher/cmd/publisher/models"
	"github.com/inkwell/publisher/common/apperr"
	"github.com/inkwell/publisher/common/logger"
)

// fakeBackend is an in-memory stand-in for the Postgres repositories.
// It implements PostStore and TagStore so the real TagService can run
// on top of it.
type fakeBackend struct {
	mu         sync.Mutex
	posts      map[uuid.UUID]*models.Post
	authors    map[uuid.UUID]models.AuthorSummary
	tagsByName map[string]models.Tag
	tagsByID   map[uuid.UUID]models.Tag
	links      map[uuid.UUID]map[uuid.UUID]uuid.UUID // postID -> tagID -> assignedBy
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		posts:      make(map[uuid.UUID]*models.Post),
		authors:    make(map[uuid.UUID]models.AuthorSummary),
		tagsByName: make(map[string]models.Tag),
		tagsByID:   make(map[uuid.UUID]models.Tag),
		links:      make(map[uuid.UUID]map[uuid.UUID]uuid.UUID),
	}
}

func (f *fakeBackend) addUser(name string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()

	user := &models.User{ID: uuid.New(), Name: name, Email: name + "@example.com"}
	f.authors[user.ID] = models.AuthorSummary{ID: user.ID, Name: user.Name}
	return user
}

func (f *fakeBackend) Create(ctx context.Context, post *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	clone := *post
	f.posts[post.ID] = &clone
	return nil
}

func (f *fakeBackend) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	post, ok := f.posts[id]
	if !ok {
		return nil, apperr.NotFound("post not found")
	}
	clone := *post
	return &clone, nil
}

func (f *fakeBackend) GetDetail(ctx context.Context, id uuid.UUID) (*models.PostDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	post, ok := f.posts[id]
	if !ok {
		return nil, apperr.NotFound("post not found")
	}
	return f.hydrate(post), nil
}

func (f *fakeBackend) Update(ctx context.Context, post *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.posts[post.ID]; !ok {
		return apperr.NotFound("post not found")
	}
	clone := *post
	f.posts[post.ID] = &clone
	return nil
}

func (f *fakeBackend) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.posts[id]; !ok {
		return apperr.NotFound("post not found")
	}
	delete(f.posts, id)
	delete(f.links, id) // cascade
	return nil
}

func (f *fakeBackend) ReplaceTags(ctx context.Context, postID uuid.UUID, tagIDs []uuid.UUID, assignedBy uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	set := make(map[uuid.UUID]uuid.UUID, len(tagIDs))
	for _, tagID := range tagIDs {
		set[tagID] = assignedBy
	}
	f.links[postID] = set
	return nil
}

func (f *fakeBackend) List(ctx context.Context, filter models.PostFilter) ([]*models.PostDetail, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []*models.Post
	for _, post := range f.posts {
		if !post.Published {
			continue
		}
		if filter.AuthorID != nil && post.AuthorID != *filter.AuthorID {
			continue
		}
		if filter.TagName != nil && !f.hasTag(post.ID, *filter.TagName) {
			continue
		}
		matched = append(matched, post)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() > matched[j].ID.String()
	})

	total := len(matched)
	start := filter.Offset
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}

	var details []*models.PostDetail
	for _, post := range matched[start:end] {
		details = append(details, f.hydrate(post))
	}
	return details, total, nil
}

func (f *fakeBackend) GetOrCreate(ctx context.Context, name string) (*models.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if tag, ok := f.tagsByName[name]; ok {
		return &tag, nil
	}
	tag := models.Tag{ID: uuid.New(), Name: name}
	f.tagsByName[name] = tag
	f.tagsByID[tag.ID] = tag
	return &tag, nil
}

func (f *fakeBackend) hasTag(postID uuid.UUID, name string) bool {
	for tagID := range f.links[postID] {
		if f.tagsByID[tagID].Name == name {
			return true
		}
	}
	return false
}

func (f *fakeBackend) hydrate(post *models.Post) *models.PostDetail {
	detail := &models.PostDetail{Post: *post, Tags: []models.Tag{}}
	detail.Author = f.authors[post.AuthorID]
	for tagID := range f.links[post.ID] {
		detail.Tags = append(detail.Tags, f.tagsByID[tagID])
	}
	sort.Slice(detail.Tags, func(i, j int) bool {
		return detail.Tags[i].Name < detail.Tags[j].Name
	})
	return detail
}

// tagNames extracts the sorted tag names of a detail
func tagNames(detail *models.PostDetail) []string {
	names := make([]string, 0, len(detail.Tags))
	for _, tag := range detail.Tags {
		names = append(names, tag.Name)
	}
	return names
}

func newPostService(backend *fakeBackend) *PostService {
	log := logger.New("error", "json")
	resolver := NewTagService(backend, log)
	return NewPostService(backend, resolver, nil, 0, log)
}

func boolPtr(b bool) *bool {
	return &b
}

func TestCreatePost(t *testing.T) {
	backend := newFakeBackend()
	svc := newPostService(backend)
	author := backend.addUser("alice")
	ctx := context.Background()

	detail, err := svc.Create(ctx, author, PostInput{
		Title:   "First post",
		Content: "Hello world",
		Tags:    []string{"go", "intro"},
	})
	require.NoError(t, err)

	assert.Equal(t, author.ID, detail.AuthorID)
	assert.False(t, detail.Published, "published defaults to false")
	assert.Equal(t, []string{"go", "intro"}, tagNames(detail))
	assert.Equal(t, "alice", detail.Author.Name)
	assert.False(t, detail.CreatedAt.IsZero())
	assert.Equal(t, detail.CreatedAt, detail.UpdatedAt)
}

func TestCreatePost_Unauthenticated(t *testing.T) {
	svc := newPostService(newFakeBackend())

	_, err := svc.Create(context.Background(), nil, PostInput{Title: "t", Content: "c"})
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))
}

func TestCreatePost_Validation(t *testing.T) {
	backend := newFakeBackend()
	svc := newPostService(backend)
	author := backend.addUser("alice")
	ctx := context.Background()

	_, err := svc.Create(ctx, author, PostInput{Title: "", Content: "body"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.Create(ctx, author, PostInput{Title: "   ", Content: "body"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation), "whitespace-only title is empty")

	_, err = svc.Create(ctx, author, PostInput{Title: "title", Content: "\n\t "})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	assert.Empty(t, backend.posts, "nothing persisted on validation failure")
}

func TestGetPost_Visibility(t *testing.T) {
	backend := newFakeBackend()
	svc := newPostService(backend)
	author := backend.addUser("alice")
	other := backend.addUser("bob")
	ctx := context.Background()

	draft, err := svc.Create(ctx, author, PostInput{Title: "Draft", Content: "wip"})
	require.NoError(t, err)

	// The author reads their draft regardless of published state
	detail, err := svc.Get(ctx, draft.ID, author)
	require.NoError(t, err)
	assert.Equal(t, "Draft", detail.Title)

	// Anyone else is forbidden, anonymous included
	_, err = svc.Get(ctx, draft.ID, other)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	_, err = svc.Get(ctx, draft.ID, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	// Published posts are public
	published, err := svc.Create(ctx, author, PostInput{
		Title: "Live", Content: "out", Published: boolPtr(true),
	})
	require.NoError(t, err)

	detail, err = svc.Get(ctx, published.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "Live", detail.Title)
}

func TestGetPost_NotFound(t *testing.T) {
	svc := newPostService(newFakeBackend())

	_, err := svc.Get(context.Background(), uuid.New(), nil)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestUpdatePost(t *testing.T) {
	backend := newFakeBackend()
	svc := newPostService(backend)
	author := backend.addUser("alice")
	ctx := context.Background()

	created, err := svc.Create(ctx, author, PostInput{Title: "v1", Content: "first"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, author, created.ID, PostInput{
		Title: "v2", Content: "second", Published: boolPtr(true),
	})
	require.NoError(t, err)

	assert.Equal(t, "v2", updated.Title)
	assert.Equal(t, "second", updated.Content)
	assert.True(t, updated.Published)
	assert.Equal(t, author.ID, updated.AuthorID, "authorId is immutable")
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt) || updated.UpdatedAt.Equal(created.UpdatedAt))
}

func TestUpdatePost_PublishedOmittedKeepsState(t *testing.T) {
	backend := newFakeBackend()
	svc := newPostService(backend)
	author := backend.addUser("alice")
	ctx := context.Background()

	created, err := svc.Create(ctx, author, PostInput{
		Title: "t", Content: "c", Published: boolPtr(true),
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, author, created.ID, PostInput{Title: "t2", Content: "c2"})
	require.NoError(t, err)
	assert.True(t, updated.Published, "omitted published leaves state unchanged")
}

func TestUpdatePost_CheckOrdering(t *testing.T) {
	backend := newFakeBackend()
	svc := newPostService(backend)
	author := backend.addUser("alice")
	intruder := backend.addUser("mallory")
	ctx := context.Background()

	// Unknown id: NotFound wins even for an anonymous caller
	_, err := svc.Update(ctx, nil, uuid.New(), PostInput{Title: "t", Content: "c"})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	created, err := svc.Create(ctx, author, PostInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	// Existing id, anonymous caller: Unauthenticated
	_, err = svc.Update(ctx, nil, created.ID, PostInput{Title: "t", Content: "c"})
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))

	// Ownership is checked before field validation
	_, err = svc.Update(ctx, intruder, created.ID, PostInput{Title: "", Content: ""})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	// No partial side effects from the rejected attempts
	current, err := svc.Get(ctx, created.ID, author)
	require.NoError(t, err)
	assert.Equal(t, "t", current.Title)
	assert.Equal(t, "c", current.Content)

	// Owner with empty fields: validation
	_, err = svc.Update(ctx, author, created.ID, PostInput{Title: "", Content: "c"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestUpdatePost_TagReplacement(t *testing.T) {
	backend := newFakeBackend()
	svc := newPostService(backend)
	author := backend.addUser("alice")
	ctx := context.Background()

	created, err := svc.Create(ctx, author, PostInput{
		Title: "t", Content: "c", Tags: []string{"a", "c"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "c"}, tagNames(created))
	tagC := backend.tagsByName["c"]

	// Omitted list leaves associations untouched
	updated, err := svc.Update(ctx, author, created.ID, PostInput{Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, tagNames(updated))

	// Supplied list replaces the whole set
	updated, err = svc.Update(ctx, author, created.ID, PostInput{
		Title: "t", Content: "c", Tags: []string{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tagNames(updated))

	// "c" is orphaned but its tag row survives
	surviving, ok := backend.tagsByName["c"]
	assert.True(t, ok)
	assert.Equal(t, tagC.ID, surviving.ID)

	// Empty list clears every association
	updated, err = svc.Update(ctx, author, created.ID, PostInput{
		Title: "t", Content: "c", Tags: []string{},
	})
	require.NoError(t, err)
	assert.Empty(t, updated.Tags)
}

func TestUpdatePost_TagAssignedByActor(t *testing.T) {
	backend := newFakeBackend()
	svc := newPostService(backend)
	author := backend.addUser("alice")
	ctx := context.Background()

	created, err := svc.Create(ctx, author, PostInput{
		Title: "t", Content: "c", Tags: []string{"x"},
	})
	require.NoError(t, err)

	tag := backend.tagsByName["x"]
	assert.Equal(t, author.ID, backend.links[created.ID][tag.ID])
}

func TestDeletePost(t *testing.T) {
	backend := newFakeBackend()
	svc := newPostService(backend)
	author := backend.addUser("alice")
	other := backend.addUser("bob")
	ctx := context.Background()

	created, err := svc.Create(ctx, author, PostInput{
		Title: "t", Content: "c", Tags: []string{"x"},
	})
	require.NoError(t, err)

	// Unknown id before anything else
	err = svc.Delete(ctx, nil, uuid.New())
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	err = svc.Delete(ctx, nil, created.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))

	err = svc.Delete(ctx, other, created.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	require.NoError(t, svc.Delete(ctx, author, created.ID))

	_, err = svc.Get(ctx, created.ID, author)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	// Associations cascaded, tag rows survive
	assert.Empty(t, backend.links[created.ID])
	assert.Contains(t, backend.tagsByName, "x")
}

func seedPublished(t *testing.T, backend *fakeBackend, author *models.User, n int, tags ...string) []*models.Post {
	t.Helper()

	base := time.Now().UTC()
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		post := &models.Post{
			ID:        uuid.New(),
			Title:     fmt.Sprintf("post %d", i),
			Content:   "content",
			Published: true,
			AuthorID:  author.ID,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			UpdatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, backend.Create(context.Background(), post))
		for _, name := range tags {
			tag, err := backend.GetOrCreate(context.Background(), name)
			require.NoError(t, err)
			require.NoError(t, backend.ReplaceTags(context.Background(), post.ID, []uuid.UUID{tag.ID}, author.ID))
		}
		posts = append(posts, post)
	}
	return posts
}

func TestListPosts_Pagination(t *testing.T) {
	backend := newFakeBackend()
	svc := newPostService(backend)
	author := backend.addUser("alice")
	ctx := context.Background()

	seedPublished(t, backend, author, 25)

	page, err := svc.List(ctx, ListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Posts, 10)
	assert.Equal(t, 25, page.Pagination.Total)
	assert.Equal(t, 3, page.Pagination.TotalPages)

	// Newest first
	assert.Equal(t, "post 24", page.Posts[0].Title)

	page, err = svc.List(ctx, ListQuery{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Posts, 5)

	// Past the end: empty page, not an error
	page, err = svc.List(ctx, ListQuery{Page: 4, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.Equal(t, 25, page.Pagination.Total)
}

func TestListPosts_InvalidLimit(t *testing.T) {
	svc := newPostService(newFakeBackend())

	_, err := svc.List(context.Background(), ListQuery{Page: 1, Limit: 0})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.List(context.Background(), ListQuery{Page: 1, Limit: -5})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestListPosts_ExcludesDrafts(t *testing.T) {
	backend := newFakeBackend()
	svc := newPostService(backend)
	author := backend.addUser("alice")
	ctx := context.Background()

	seedPublished(t, backend, author, 2)
	_, err := svc.Create(ctx, author, PostInput{Title: "draft", Content: "hidden"})
	require.NoError(t, err)

	page, err := svc.List(ctx, ListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Posts, 2)
	assert.Equal(t, 2, page.Pagination.Total)
}

func TestListPosts_Filters(t *testing.T) {
	backend := newFakeBackend()
	svc := newPostService(backend)
	alice := backend.addUser("alice")
	bob := backend.addUser("bob")
	ctx := context.Background()

	seedPublished(t, backend, alice, 2, "go")
	seedPublished(t, backend, bob, 3, "rust")

	page, err := svc.List(ctx, ListQuery{AuthorID: alice.ID.String(), Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Posts, 2)
	for _, post := range page.Posts {
		assert.Equal(t, alice.ID, post.AuthorID)
	}

	page, err = svc.List(ctx, ListQuery{TagName: "rust", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Posts, 3)

	// Exact, case-sensitive match only
	page, err = svc.List(ctx, ListQuery{TagName: "Rust", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Posts)

	// An author filter that is not a valid id matches nothing
	page, err = svc.List(ctx, ListQuery{AuthorID: "not-a-uuid", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.Equal(t, 0, page.Pagination.Total)
}
