package search

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docqa/ai/mock"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage/badger"
)

// fakeKeywordSearcher returns canned matches keyed by query.
type fakeKeywordSearcher struct {
	matches []core.ChunkMatch
	err     error
}

func (f *fakeKeywordSearcher) Search(ctx context.Context, query string, documentIds []core.ID, limit int) ([]core.ChunkMatch, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.matches) > limit {
		return f.matches[:limit], nil
	}
	return f.matches, nil
}

// queryVectorEmbedder always embeds the query as a fixed vector so chunk
// similarities are exact.
func queryVectorEmbedder(vector []float32) *mock.MockEmbedder {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return vector, nil
	}
	return embedder
}

type searchFixture struct {
	repos    *badger.Repositories
	document *core.Document
	chunkIDs []core.ID
}

// newSearchFixture stores one document with three chunks. Chunk 0 embeds
// to similarity 1.0 against query vector [1,0], chunk 1 to 0.8, and chunk 2
// has no embedding at all.
func newSearchFixture(t *testing.T) *searchFixture {
	t.Helper()

	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	ctx := context.Background()
	doc, err := repos.Documents.AddDocument(ctx, &core.Document{
		Filename:  "kb.txt",
		MediaType: "text/plain",
	})
	require.NoError(t, err)

	ids, err := repos.Chunks.PutChunks(ctx, doc.Id, []*core.Chunk{
		{Index: 0, Content: "exact semantic match"},
		{Index: 1, Content: "close semantic match"},
		{Index: 2, Content: "keyword only content"},
	})
	require.NoError(t, err)

	require.NoError(t, repos.Chunks.PutEmbedding(ctx, ids[0], []float32{1, 0}))
	require.NoError(t, repos.Chunks.PutEmbedding(ctx, ids[1], []float32{0.8, 0.6}))

	return &searchFixture{repos: repos, document: doc, chunkIDs: ids}
}

func newTestSearcher(t *testing.T, fx *searchFixture, kw *fakeKeywordSearcher, opts ...Option) *Searcher {
	t.Helper()

	provider := mock.NewMockProviderWithServices(
		queryVectorEmbedder([]float32{1, 0}),
		mock.NewMockGenerator(),
		mock.NewMockTextExtractor(),
	)
	searcher, err := NewSearcher(fx.repos.Chunks, kw, provider, opts...)
	require.NoError(t, err)
	return searcher
}

func TestHybridFusionScores(t *testing.T) {
	fx := newSearchFixture(t)
	kw := &fakeKeywordSearcher{matches: []core.ChunkMatch{
		{ChunkId: fx.chunkIDs[0], Score: 0.5},
		{ChunkId: fx.chunkIDs[2], Score: 1.0},
	}}
	searcher := newTestSearcher(t, fx, kw)

	results, err := searcher.Search(context.Background(), "query", []core.ID{fx.document.Id})
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Chunk 0: both sides, 1.0*0.6 + 0.5*0.4 = 0.8
	assert.Equal(t, fx.chunkIDs[0], results[0].Chunk.Id)
	assert.Equal(t, core.MatchHybrid, results[0].Source)
	assert.InDelta(t, 0.8, float64(results[0].Score), 1e-6)

	// Chunk 1: semantic only, 0.8*0.6 = 0.48
	assert.Equal(t, fx.chunkIDs[1], results[1].Chunk.Id)
	assert.Equal(t, core.MatchSemantic, results[1].Source)
	assert.InDelta(t, 0.48, float64(results[1].Score), 1e-6)

	// Chunk 2: keyword only, 1.0*0.4 = 0.4
	assert.Equal(t, fx.chunkIDs[2], results[2].Chunk.Id)
	assert.Equal(t, core.MatchKeyword, results[2].Source)
	assert.InDelta(t, 0.4, float64(results[2].Score), 1e-6)

	// Hydrated chunks carry their stored content.
	assert.Equal(t, "exact semantic match", results[0].Chunk.Content)
}

func TestTieBreakPrefersSemantic(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	doc, err := repos.Documents.AddDocument(ctx, &core.Document{
		Filename:  "tie.txt",
		MediaType: "text/plain",
	})
	require.NoError(t, err)

	ids, err := repos.Chunks.PutChunks(ctx, doc.Id, []*core.Chunk{
		{Index: 0, Content: "semantic side"},
		{Index: 1, Content: "keyword side"},
	})
	require.NoError(t, err)

	// Similarity 0.6 against [1,0]: weighted 0.6*0.6 = 0.36.
	require.NoError(t, repos.Chunks.PutEmbedding(ctx, ids[0], []float32{0.6, 0.8}))

	// Keyword score 0.9: weighted 0.9*0.4 = 0.36. Same combined score.
	kw := &fakeKeywordSearcher{matches: []core.ChunkMatch{
		{ChunkId: ids[1], Score: 0.9},
	}}

	provider := mock.NewMockProviderWithServices(
		queryVectorEmbedder([]float32{1, 0}),
		mock.NewMockGenerator(),
		mock.NewMockTextExtractor(),
	)
	searcher, err := NewSearcher(repos.Chunks, kw, provider)
	require.NoError(t, err)

	results, err := searcher.Search(ctx, "query", []core.ID{doc.Id})
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.True(t, math.Abs(float64(results[0].Score-results[1].Score)) < 1e-6, "scores should tie")
	assert.Equal(t, ids[0], results[0].Chunk.Id, "semantic hit ranks first on ties")
	assert.Equal(t, core.MatchSemantic, results[0].Source)
	assert.Equal(t, core.MatchKeyword, results[1].Source)
}

func TestSearchLimit(t *testing.T) {
	fx := newSearchFixture(t)
	kw := &fakeKeywordSearcher{matches: []core.ChunkMatch{
		{ChunkId: fx.chunkIDs[2], Score: 1.0},
	}}
	searcher := newTestSearcher(t, fx, kw, WithLimit(2))

	results, err := searcher.Search(context.Background(), "query", []core.ID{fx.document.Id})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchDegradesWhenKeywordSideFails(t *testing.T) {
	fx := newSearchFixture(t)
	kw := &fakeKeywordSearcher{err: errors.New("index unavailable")}
	searcher := newTestSearcher(t, fx, kw)

	results, err := searcher.Search(context.Background(), "query", []core.ID{fx.document.Id})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, core.MatchSemantic, r.Source)
	}
}

func TestSearchDegradesWhenSemanticSideFails(t *testing.T) {
	fx := newSearchFixture(t)
	kw := &fakeKeywordSearcher{matches: []core.ChunkMatch{
		{ChunkId: fx.chunkIDs[2], Score: 0.7},
	}}

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockGenerator(), mock.NewMockTextExtractor())

	searcher, err := NewSearcher(fx.repos.Chunks, kw, provider)
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), "query", []core.ID{fx.document.Id})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, core.MatchKeyword, results[0].Source)
	assert.InDelta(t, 0.7*0.4, float64(results[0].Score), 1e-6)
}

func TestSearchFailsWhenBothSidesFail(t *testing.T) {
	fx := newSearchFixture(t)
	kw := &fakeKeywordSearcher{err: errors.New("index unavailable")}

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockGenerator(), mock.NewMockTextExtractor())

	searcher, err := NewSearcher(fx.repos.Chunks, kw, provider)
	require.NoError(t, err)

	_, err = searcher.Search(context.Background(), "query", []core.ID{fx.document.Id})
	assert.ErrorIs(t, err, ErrSearchFailed)
}

func TestSearchEmptyInputs(t *testing.T) {
	fx := newSearchFixture(t)
	searcher := newTestSearcher(t, fx, &fakeKeywordSearcher{})
	ctx := context.Background()

	_, err := searcher.Search(ctx, "   ", []core.ID{fx.document.Id})
	assert.ErrorIs(t, err, ErrEmptyQuery)

	// No visible documents means no results, not an error.
	results, err := searcher.Search(ctx, "query", nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
