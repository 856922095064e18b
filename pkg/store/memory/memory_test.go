package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/locallore/pkg/deps"
	"github.com/matzehuels/locallore/pkg/errors"
)

var (
	t0     = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	lodash = deps.New(deps.NPM, "lodash", "4.17.21")
)

func TestUpsertDependency_InsertThenTouch(t *testing.T) {
	ctx := context.Background()
	s := New()

	first, err := s.UpsertDependency(ctx, lodash, t0)
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, t0, first.FirstSeenAt)
	assert.Equal(t, t0, first.LastSeenAt)
	assert.Nil(t, first.LastIndexedAt)

	t1 := t0.Add(time.Hour)
	second, err := s.UpsertDependency(ctx, lodash, t1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, t0, second.FirstSeenAt)
	assert.Equal(t, t1, second.LastSeenAt)
	assert.Len(t, s.Records(), 1)
}

func TestUpsertDependency_LastSeenNeverRegresses(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.UpsertDependency(ctx, lodash, t0.Add(time.Hour))
	require.NoError(t, err)
	r, err := s.UpsertDependency(ctx, lodash, t0)
	require.NoError(t, err)

	assert.Equal(t, t0.Add(time.Hour), r.LastSeenAt)
}

func TestUpsertDependency_PreservesIndexedAt(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.UpsertDependency(ctx, lodash, t0)
	require.NoError(t, err)
	indexed := t0.Add(time.Minute)
	require.NoError(t, s.MarkIndexed(ctx, lodash.Identity, indexed))

	r, err := s.UpsertDependency(ctx, lodash, t0.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, r.LastIndexedAt)
	assert.Equal(t, indexed, *r.LastIndexedAt)

	stale, err := s.FindUnindexed(ctx)
	require.NoError(t, err)
	assert.Empty(t, stale)
	assert.NotNil(t, stale)
}

func TestUpsertDependency_ConcurrentSameIdentity(t *testing.T) {
	ctx := context.Background()
	s := New()

	var wg sync.WaitGroup
	ids := make([]string, 50)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := s.UpsertDependency(ctx, lodash, t0.Add(time.Duration(i)*time.Second))
			assert.NoError(t, err)
			ids[i] = r.ID
		}()
	}
	wg.Wait()

	records := s.Records()
	require.Len(t, records, 1)
	for _, id := range ids {
		assert.Equal(t, records[0].ID, id)
	}
	assert.Equal(t, t0.Add(49*time.Second), records[0].LastSeenAt)
}

func TestMarkIndexed_Unknown(t *testing.T) {
	err := New().MarkIndexed(context.Background(), lodash.Identity, t0)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestProjectsUsing(t *testing.T) {
	ctx := context.Background()
	s := New()

	r, err := s.UpsertDependency(ctx, lodash, t0)
	require.NoError(t, err)
	for _, p := range []string{"/srv/b", "/srv/a", "/srv/a"} {
		_, err := s.UpsertLink(ctx, p, r.ID, t0)
		require.NoError(t, err)
	}

	links, err := s.ProjectsUsing(ctx, lodash.Identity)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "/srv/a", links[0].Path)
	assert.Equal(t, "/srv/b", links[1].Path)

	none, err := s.ProjectsUsing(ctx, deps.Identity{Ecosystem: deps.NPM, Name: "nope", Version: "1"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().UpsertDependency(ctx, lodash, t0)
	assert.ErrorIs(t, err, context.Canceled)
}
