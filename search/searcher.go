package search

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

const (
	// DefaultSemanticWeight is the contribution of vector similarity to the
	// combined score.
	DefaultSemanticWeight = 0.6

	// DefaultKeywordWeight is the contribution of keyword relevance to the
	// combined score.
	DefaultKeywordWeight = 0.4

	// DefaultScoreFloor is the minimum cosine similarity for a semantic
	// match. Matches must score strictly above the floor.
	DefaultScoreFloor = 0.2

	// DefaultLimit is the maximum number of ranked chunks returned.
	DefaultLimit = 20

	// DefaultSideTimeout bounds each retrieval side independently. A side
	// that times out degrades to no results instead of failing the search.
	DefaultSideTimeout = 5 * time.Second
)

// Searcher provides hybrid semantic and keyword search over document chunks.
type Searcher struct {
	chunks         storage.ChunkRepository
	keyword        storage.KeywordSearcher
	embedder       ai.Embedder
	scoreFloor     float32
	semanticWeight float32
	keywordWeight  float32
	limit          int
	sideTimeout    time.Duration
	logger         *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithLimit sets the maximum number of results.
// Default is DefaultLimit.
func WithLimit(limit int) Option {
	return func(s *Searcher) error {
		if limit > 0 {
			s.limit = limit
		}
		return nil
	}
}

// WithWeights sets the semantic and keyword score contributions.
// Defaults are DefaultSemanticWeight and DefaultKeywordWeight.
func WithWeights(semantic, keyword float32) Option {
	return func(s *Searcher) error {
		if semantic < 0 || keyword < 0 {
			return ErrInvalidWeights
		}
		s.semanticWeight = semantic
		s.keywordWeight = keyword
		return nil
	}
}

// WithSideTimeout sets the per-side retrieval timeout.
// Default is DefaultSideTimeout.
func WithSideTimeout(timeout time.Duration) Option {
	return func(s *Searcher) error {
		if timeout > 0 {
			s.sideTimeout = timeout
		}
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	chunks storage.ChunkRepository,
	keyword storage.KeywordSearcher,
	provider ai.AIProvider,
	opts ...Option,
) (*Searcher, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if keyword == nil {
		return nil, ErrKeywordSearcherRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		chunks:         chunks,
		keyword:        keyword,
		embedder:       provider.Embedder(),
		scoreFloor:     DefaultScoreFloor,
		semanticWeight: DefaultSemanticWeight,
		keywordWeight:  DefaultKeywordWeight,
		limit:          DefaultLimit,
		sideTimeout:    DefaultSideTimeout,
		logger:         slog.Default().With("component", "search"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// sideResult carries one retrieval side's outcome across its goroutine.
type sideResult struct {
	matches []core.ChunkMatch
	err     error
}

// Search runs hybrid retrieval over the given documents and returns ranked
// chunks. documentIds is the caller's access filter; an empty filter yields
// no results.
func (s *Searcher) Search(ctx context.Context, query string, documentIds []core.ID) ([]*core.RankedChunk, error) {
	return s.SearchWithMonitor(ctx, query, documentIds, nil)
}

// SearchVector runs hybrid retrieval using a precomputed query embedding,
// avoiding a second embedding call when the caller already has one.
func (s *Searcher) SearchVector(ctx context.Context, query string, vector []float32, documentIds []core.ID) ([]*core.RankedChunk, error) {
	return s.search(ctx, query, vector, documentIds, nil)
}

// SearchWithMonitor runs hybrid retrieval with monitoring callbacks at each
// stage of the search process.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, documentIds []core.ID, monitor SearchMonitor) ([]*core.RankedChunk, error) {
	return s.search(ctx, query, nil, documentIds, monitor)
}

// search is the retrieval core. Both sides run concurrently, each under
// its own timeout. A side that fails or times out contributes nothing; the
// search only errors when both sides fail. Chunks found by both sides
// combine their weighted scores; single-side hits keep their own weighted
// score. Ties rank semantic hits before keyword hits.
func (s *Searcher) search(ctx context.Context, query string, vector []float32, documentIds []core.ID, monitor SearchMonitor) ([]*core.RankedChunk, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	monitor.Start(query)

	if len(documentIds) == 0 {
		monitor.Finish(nil)
		return nil, nil
	}

	semanticCh := make(chan sideResult, 1)
	keywordCh := make(chan sideResult, 1)

	go func() {
		sideCtx, cancel := context.WithTimeout(ctx, s.sideTimeout)
		defer cancel()
		matches, err := s.semanticSide(sideCtx, query, vector, documentIds)
		semanticCh <- sideResult{matches: matches, err: err}
	}()

	go func() {
		sideCtx, cancel := context.WithTimeout(ctx, s.sideTimeout)
		defer cancel()
		matches, err := s.keyword.Search(sideCtx, query, documentIds, s.limit)
		keywordCh <- sideResult{matches: matches, err: err}
	}()

	semantic := <-semanticCh
	keyword := <-keywordCh

	if semantic.err != nil {
		s.logger.Warn("semantic side degraded", "err", semantic.err)
		monitor.SideDegraded("semantic", semantic.err)
		semantic.matches = nil
	}
	if keyword.err != nil {
		s.logger.Warn("keyword side degraded", "err", keyword.err)
		monitor.SideDegraded("keyword", keyword.err)
		keyword.matches = nil
	}
	if semantic.err != nil && keyword.err != nil {
		return nil, errors.Join(ErrSearchFailed, semantic.err, keyword.err)
	}

	monitor.AfterSemanticSearch(semantic.matches)
	monitor.AfterKeywordSearch(keyword.matches)

	ranked := s.fuse(semantic.matches, keyword.matches)
	if len(ranked) > s.limit {
		ranked = ranked[:s.limit]
	}

	results, err := s.hydrate(ctx, ranked)
	if err != nil {
		return nil, err
	}
	monitor.Finish(results)

	return results, nil
}

// semanticSide runs the vector similarity search, embedding the query
// first unless a vector was supplied.
func (s *Searcher) semanticSide(ctx context.Context, query string, vector []float32, documentIds []core.ID) ([]core.ChunkMatch, error) {
	if len(vector) == 0 {
		var err error
		vector, err = s.embedder.EmbedText(ctx, query)
		if err != nil {
			return nil, err
		}
	}
	return s.chunks.SemanticSearch(ctx, vector, documentIds, s.scoreFloor, s.limit)
}

// fuse performs a full outer join of the two match lists. Insertion order
// is semantic matches first, then keyword-only matches, so the stable sort
// breaks score ties in favor of semantic hits.
func (s *Searcher) fuse(semantic, keyword []core.ChunkMatch) []*core.RankedChunk {
	position := make(map[core.ID]int, len(semantic)+len(keyword))
	ranked := make([]*core.RankedChunk, 0, len(semantic)+len(keyword))

	for _, match := range semantic {
		if _, seen := position[match.ChunkId]; seen {
			continue
		}
		position[match.ChunkId] = len(ranked)
		ranked = append(ranked, &core.RankedChunk{
			Chunk:  &core.Chunk{Id: match.ChunkId},
			Score:  match.Score * s.semanticWeight,
			Source: core.MatchSemantic,
		})
	}

	for _, match := range keyword {
		if idx, seen := position[match.ChunkId]; seen {
			ranked[idx].Score += match.Score * s.keywordWeight
			ranked[idx].Source = core.MatchHybrid
			continue
		}
		position[match.ChunkId] = len(ranked)
		ranked = append(ranked, &core.RankedChunk{
			Chunk:  &core.Chunk{Id: match.ChunkId},
			Score:  match.Score * s.keywordWeight,
			Source: core.MatchKeyword,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// hydrate replaces the ID-only chunk placeholders with stored chunks.
// Chunks deleted since retrieval are dropped from the results.
func (s *Searcher) hydrate(ctx context.Context, ranked []*core.RankedChunk) ([]*core.RankedChunk, error) {
	if len(ranked) == 0 {
		return nil, nil
	}

	ids := make([]core.ID, len(ranked))
	for i, r := range ranked {
		ids[i] = r.Chunk.Id
	}

	chunks, err := s.chunks.GetChunks(ctx, ids...)
	if err != nil {
		return nil, err
	}

	byID := make(map[core.ID]*core.Chunk, len(chunks))
	for _, chunk := range chunks {
		byID[chunk.Id] = chunk
	}

	results := make([]*core.RankedChunk, 0, len(ranked))
	for _, r := range ranked {
		chunk, ok := byID[r.Chunk.Id]
		if !ok {
			continue
		}
		r.Chunk = chunk
		results = append(results, r)
	}
	return results, nil
}
