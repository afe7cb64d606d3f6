package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage/badger"
)

func newTestCache(t *testing.T, opts ...Option) (*Cache, *badger.Repositories) {
	t.Helper()

	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	c, err := NewCache(repos.Cache, opts...)
	require.NoError(t, err)
	return c, repos
}

func TestSaveThenLookup(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	vector := []float32{1, 0, 0}
	sources := []core.SourceRef{{DocumentId: 7, ChunkId: 42}}

	saved, err := c.Save(ctx, "what is the warranty period?", core.RoleExternal, vector, "Two years.", sources)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), saved.HitCount)

	entry, hit, err := c.Lookup(ctx, vector, core.RoleExternal)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "Two years.", entry.Answer)
	assert.Equal(t, sources, entry.Sources)
	// One save plus one lookup.
	assert.Equal(t, uint32(2), entry.HitCount)
}

func TestLookupThresholdInclusive(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	stored := []float32{1, 0}
	_, err := c.Save(ctx, "stored question", core.RoleOwner, stored, "answer", nil)
	require.NoError(t, err)

	// cos(36.87deg) = 0.8 which is below 0.85: miss.
	_, hit, err := c.Lookup(ctx, []float32{0.8, 0.6}, core.RoleOwner)
	require.NoError(t, err)
	assert.False(t, hit)

	// Identical vector scores 1.0: hit.
	_, hit, err = c.Lookup(ctx, stored, core.RoleOwner)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestLookupBoundaryScore(t *testing.T) {
	// With a threshold of exactly the achieved similarity, the comparison
	// is inclusive.
	c, _ := newTestCache(t, WithThreshold(0.8))
	ctx := context.Background()

	_, err := c.Save(ctx, "boundary question", core.RoleOwner, []float32{1, 0}, "answer", nil)
	require.NoError(t, err)

	entry, hit, err := c.Lookup(ctx, []float32{0.8, 0.6}, core.RoleOwner)
	require.NoError(t, err)
	require.True(t, hit, "similarity equal to threshold must hit")
	assert.Equal(t, "answer", entry.Answer)
}

func TestLookupPicksBestMatch(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, err := c.Save(ctx, "close question", core.RoleStaff, []float32{0.9, 0.43589}, "close answer", nil)
	require.NoError(t, err)
	_, err = c.Save(ctx, "exact question", core.RoleStaff, []float32{1, 0}, "exact answer", nil)
	require.NoError(t, err)

	entry, hit, err := c.Lookup(ctx, []float32{1, 0}, core.RoleStaff)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "exact answer", entry.Answer)
}

func TestLookupIsRoleScoped(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	vector := []float32{1, 0}
	_, err := c.Save(ctx, "staff question", core.RoleStaff, vector, "staff answer", nil)
	require.NoError(t, err)

	// The same question from an external user misses entirely.
	_, hit, err := c.Lookup(ctx, vector, core.RoleExternal)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestSaveOverwritesSameQuestion(t *testing.T) {
	c, repos := newTestCache(t)
	ctx := context.Background()

	_, err := c.Save(ctx, "repeat question", core.RoleOwner, []float32{1, 0}, "old answer", nil)
	require.NoError(t, err)
	updated, err := c.Save(ctx, "repeat question", core.RoleOwner, []float32{1, 0}, "new answer", nil)
	require.NoError(t, err)

	assert.Equal(t, "new answer", updated.Answer)
	assert.Equal(t, uint32(2), updated.HitCount)

	entries, err := repos.Cache.ListEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "same question and role must stay a single entry")
}

func TestSaveEmptyQuestion(t *testing.T) {
	c, _ := newTestCache(t)

	_, err := c.Save(context.Background(), "  ", core.RoleOwner, []float32{1}, "answer", nil)
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestPrune(t *testing.T) {
	c, repos := newTestCache(t, WithPruneAge(time.Hour), WithPruneMinHits(3))
	ctx := context.Background()

	old := time.Now().UTC().Add(-2 * time.Hour)

	// Stale and unpopular: pruned.
	stale, err := c.Save(ctx, "stale question", core.RoleOwner, []float32{1, 0}, "a", nil)
	require.NoError(t, err)

	// Stale but popular: kept.
	popular, err := c.Save(ctx, "popular question", core.RoleOwner, []float32{0, 1}, "b", nil)
	require.NoError(t, err)
	popular.HitCount = 10
	popular.LastHitAt = old
	require.NoError(t, repos.Cache.PutEntry(ctx, popular))

	stale.LastHitAt = old
	require.NoError(t, repos.Cache.PutEntry(ctx, stale))

	// Fresh and unpopular: kept.
	_, err = c.Save(ctx, "fresh question", core.RoleOwner, []float32{1, 1}, "c", nil)
	require.NoError(t, err)

	removed, err := c.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	entries, err := repos.Cache.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.NotEqual(t, stale.Id, entry.Id)
	}
}
