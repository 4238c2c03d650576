package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell/publisher/common/logger"
)

func newTagService(backend *fakeBackend) *TagService {
	return NewTagService(backend, logger.New("error", "json"))
}

func TestResolveOrCreate(t *testing.T) {
	backend := newFakeBackend()
	svc := newTagService(backend)
	ctx := context.Background()

	resolved, err := svc.ResolveOrCreate(ctx, []string{"go", "databases"})
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Equal(t, "go", resolved["go"].Name)
	assert.NotEqual(t, uuid.Nil, resolved["go"].ID)

	// Resolving again returns the same rows, no new ones
	again, err := svc.ResolveOrCreate(ctx, []string{"go"})
	require.NoError(t, err)
	assert.Equal(t, resolved["go"].ID, again["go"].ID)
	assert.Len(t, backend.tagsByName, 2)
}

func TestResolveOrCreate_NormalizesInput(t *testing.T) {
	backend := newFakeBackend()
	svc := newTagService(backend)

	resolved, err := svc.ResolveOrCreate(context.Background(), []string{
		"  go  ", "go", "", "   ", "web",
	})
	require.NoError(t, err)

	// Trimmed, deduplicated, empties dropped
	assert.Len(t, resolved, 2)
	assert.Contains(t, resolved, "go")
	assert.Contains(t, resolved, "web")
	assert.Len(t, backend.tagsByName, 2)
}

func TestResolveOrCreate_Empty(t *testing.T) {
	svc := newTagService(newFakeBackend())

	resolved, err := svc.ResolveOrCreate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, resolved)
}

func TestResolveOrCreate_ConcurrentSameName(t *testing.T) {
	backend := newFakeBackend()
	svc := newTagService(backend)

	const workers = 50
	ids := make([]uuid.UUID, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resolved, err := svc.ResolveOrCreate(context.Background(), []string{"shared"})
			assert.NoError(t, err)
			ids[i] = resolved["shared"].ID
		}(i)
	}
	wg.Wait()

	// Every caller converged on one row
	require.Len(t, backend.tagsByName, 1)
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}
