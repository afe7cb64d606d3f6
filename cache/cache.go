package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

const (
	// DefaultSimilarityThreshold is the minimum cosine similarity between a
	// stored question and a new one for the cached answer to be reused.
	// The comparison is inclusive.
	DefaultSimilarityThreshold = 0.85

	// DefaultPruneAge is how long an entry may go without a hit before it
	// becomes a pruning candidate.
	DefaultPruneAge = 90 * 24 * time.Hour

	// DefaultPruneMinHits protects entries with at least this many hits
	// from pruning regardless of age.
	DefaultPruneMinHits = 3
)

// Cache answers repeated questions without re-running retrieval and
// generation. Entries are scoped per role so an answer assembled from
// one role's documents is never served to another.
type Cache struct {
	repository storage.CacheRepository
	threshold  float32
	pruneAge   time.Duration
	minHits    uint32
	logger     *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache) error

// WithThreshold sets the similarity threshold for lookups.
// Default is DefaultSimilarityThreshold.
func WithThreshold(threshold float32) Option {
	return func(c *Cache) error {
		if threshold > 0 && threshold <= 1 {
			c.threshold = threshold
		}
		return nil
	}
}

// WithPruneAge sets the idle age after which low-hit entries are pruned.
// Default is DefaultPruneAge.
func WithPruneAge(age time.Duration) Option {
	return func(c *Cache) error {
		if age > 0 {
			c.pruneAge = age
		}
		return nil
	}
}

// WithPruneMinHits sets the hit count that protects entries from pruning.
// Default is DefaultPruneMinHits.
func WithPruneMinHits(hits uint32) Option {
	return func(c *Cache) error {
		c.minHits = hits
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewCache creates a new answer cache.
func NewCache(repository storage.CacheRepository, opts ...Option) (*Cache, error) {
	if repository == nil {
		return nil, ErrCacheRepositoryRequired
	}

	c := &Cache{
		repository: repository,
		threshold:  DefaultSimilarityThreshold,
		pruneAge:   DefaultPruneAge,
		minHits:    DefaultPruneMinHits,
		logger:     slog.Default().With("component", "cache"),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Lookup finds the best cached answer for the question among entries of
// the same role. The question vector is compared against stored question
// vectors; the best entry at or above the threshold is returned with its
// hit count incremented and LastHitAt refreshed. Returns (nil, false, nil)
// on a miss.
func (c *Cache) Lookup(ctx context.Context, vector []float32, role core.Role) (*core.CacheEntry, bool, error) {
	entries, err := c.repository.EntriesByRole(ctx, role)
	if err != nil {
		return nil, false, err
	}

	var (
		best      *core.CacheEntry
		bestScore float32
	)
	for _, entry := range entries {
		score := core.CosineSimilarity(vector, entry.Vector)
		if score < c.threshold {
			continue
		}
		if best == nil || score > bestScore {
			best = entry
			bestScore = score
		}
	}

	if best == nil {
		return nil, false, nil
	}

	c.logger.Debug("cache hit", "entry", best.Id, "similarity", bestScore)
	touched, err := c.repository.TouchEntry(ctx, best.Id, time.Now().UTC())
	if err != nil {
		return nil, false, err
	}
	return touched, true, nil
}

// Save stores an answer under the exact question text and role. Saving
// the same question again overwrites the stored answer, vector and
// sources in place; there is never more than one entry per question and
// role.
func (c *Cache) Save(ctx context.Context, question string, role core.Role, vector []float32, answer string, sources []core.SourceRef) (*core.CacheEntry, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	id := core.CacheEntryID(question, role)
	now := time.Now().UTC()

	entry, err := c.repository.GetEntry(ctx, id)
	switch {
	case err == nil:
		entry.Answer = answer
		entry.Vector = vector
		entry.Sources = sources
		entry.HitCount++
		entry.LastHitAt = now
	case errors.Is(err, storage.ErrNotFound):
		entry = &core.CacheEntry{
			Id:        id,
			Question:  question,
			Role:      role,
			Vector:    vector,
			Answer:    answer,
			Sources:   sources,
			HitCount:  1,
			LastHitAt: now,
		}
	default:
		return nil, err
	}

	if err := c.repository.PutEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Prune removes stale entries: those whose last hit is older than the
// prune age AND whose hit count is below the protected minimum. Both
// conditions must hold; a popular old entry stays, as does a fresh
// unpopular one. Returns the number of entries removed.
func (c *Cache) Prune(ctx context.Context) (int, error) {
	entries, err := c.repository.ListEntries(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().UTC().Add(-c.pruneAge)
	var stale []core.ID
	for _, entry := range entries {
		if entry.LastHitAt.Before(cutoff) && entry.HitCount < c.minHits {
			stale = append(stale, entry.Id)
		}
	}

	if len(stale) == 0 {
		return 0, nil
	}

	if err := c.repository.DeleteEntries(ctx, stale...); err != nil {
		return 0, err
	}
	c.logger.Info("pruned cache entries", "removed", len(stale))
	return len(stale), nil
}
