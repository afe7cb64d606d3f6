// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package docqa

import (
	"context"
	"io"
	"log/slog"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/ai/openai"
	"github.com/poiesic/docqa/answer"
	"github.com/poiesic/docqa/cache"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/ingestion"
	"github.com/poiesic/docqa/reembed"
	"github.com/poiesic/docqa/search"
	"github.com/poiesic/docqa/storage"
	"github.com/poiesic/docqa/storage/badger"
)

// Database wires storage, the AI provider, and the ingestion, search,
// cache, and answer layers into one handle. It is the entry point for
// both the CLI and embedding the system as a library.
type Database struct {
	repos    *badger.Repositories
	provider ai.AIProvider
	pipeline *ingestion.Pipeline
	searcher *search.Searcher
	cache    *cache.Cache
	answers  *answer.Service
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig      *ai.Config
	provider      ai.AIProvider
	ingestionOpts []ingestion.Option
	searchOpts    []search.Option
	cacheOpts     []cache.Option
}

// WithAIConfig sets the AI provider configuration. Ignored when
// WithProvider is also given.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithProvider supplies a pre-built AI provider instead of constructing
// the OpenAI-compatible one. The Database takes ownership and closes it.
func WithProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithIngestionOptions forwards options to the ingestion pipeline.
func WithIngestionOptions(opts ...ingestion.Option) DatabaseOption {
	return func(o *databaseOptions) {
		o.ingestionOpts = append(o.ingestionOpts, opts...)
	}
}

// WithSearchOptions forwards options to the searcher.
func WithSearchOptions(opts ...search.Option) DatabaseOption {
	return func(o *databaseOptions) {
		o.searchOpts = append(o.searchOpts, opts...)
	}
}

// WithCacheOptions forwards options to the answer cache.
func WithCacheOptions(opts ...cache.Option) DatabaseOption {
	return func(o *databaseOptions) {
		o.cacheOpts = append(o.cacheOpts, opts...)
	}
}

// NewDatabase opens the stores under dir and assembles the full stack.
// An empty dir opens everything in memory, which is useful for tests.
func NewDatabase(dir string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	var repos *badger.Repositories
	var err error
	if dir == "" {
		repos, err = badger.NewMemoryRepositories()
	} else {
		repos, err = badger.OpenRepositories(dir)
	}
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			repos.Close()
			return nil, err
		}
	}

	pipeline, err := ingestion.NewPipeline(repos.Documents, repos.Chunks, provider, options.ingestionOpts...)
	if err != nil {
		provider.Close()
		repos.Close()
		return nil, err
	}

	searcher, err := search.NewSearcher(repos.Chunks, repos.Keyword, provider, options.searchOpts...)
	if err != nil {
		pipeline.Release()
		provider.Close()
		repos.Close()
		return nil, err
	}

	answerCache, err := cache.NewCache(repos.Cache, options.cacheOpts...)
	if err != nil {
		pipeline.Release()
		provider.Close()
		repos.Close()
		return nil, err
	}

	answers, err := answer.NewService(repos.Documents, repos.Queries, searcher, answerCache, provider)
	if err != nil {
		pipeline.Release()
		provider.Close()
		repos.Close()
		return nil, err
	}

	return &Database{
		repos:    repos,
		provider: provider,
		pipeline: pipeline,
		searcher: searcher,
		cache:    answerCache,
		answers:  answers,
		logger:   slog.Default().With("component", "database"),
	}, nil
}

// Close shuts down the pipeline, the AI provider and all stores.
func (db *Database) Close() error {
	db.pipeline.Release()
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}
	if err := db.repos.Close(); err != nil {
		db.logger.Error("error closing repositories", "err", err)
		return err
	}
	return nil
}

// AddDocument ingests a new document end to end. The returned document
// carries the final status; a non-nil error means ingestion failed and
// the document is retryable.
func (db *Database) AddDocument(ctx context.Context, doc *core.Document, raw []byte) (*core.Document, error) {
	return db.pipeline.Ingest(ctx, doc, raw)
}

// RetryDocument resumes ingestion of a failed document. raw is only
// needed when the document failed before its chunks were stored.
func (db *Database) RetryDocument(ctx context.Context, id core.ID, raw []byte) (*core.Document, error) {
	return db.pipeline.Retry(ctx, id, raw)
}

// GetDocument retrieves a document by ID.
func (db *Database) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	return db.repos.Documents.GetDocument(ctx, id)
}

// ListDocuments retrieves all documents.
func (db *Database) ListDocuments(ctx context.Context) ([]*core.Document, error) {
	return db.repos.Documents.ListDocuments(ctx)
}

// DeleteDocument removes a document with all of its chunks, embeddings,
// and keyword index entries.
func (db *Database) DeleteDocument(ctx context.Context, id core.ID) error {
	return db.repos.Documents.DeleteDocument(ctx, id)
}

// Ask answers a question for the given role.
func (db *Database) Ask(ctx context.Context, question string, role core.Role) (*answer.Answer, error) {
	return db.answers.Ask(ctx, question, role)
}

// Search runs hybrid retrieval over the documents visible to role and
// returns the ranked chunks without generating an answer.
func (db *Database) Search(ctx context.Context, query string, role core.Role) ([]*core.RankedChunk, error) {
	visible, err := db.repos.Documents.VisibleDocumentIDs(ctx, role)
	if err != nil {
		return nil, err
	}
	return db.searcher.Search(ctx, query, visible)
}

// CaptureQuery records a customer question the system could not answer
// so a human can follow up.
func (db *Database) CaptureQuery(ctx context.Context, question, contactName, contactEmail string) (*core.CustomerQuery, error) {
	return db.answers.CaptureQuery(ctx, question, contactName, contactEmail)
}

// ListCustomerQueries retrieves captured queries, optionally filtered by
// status. Pass status 0 for all.
func (db *Database) ListCustomerQueries(ctx context.Context, status core.QueryStatus) ([]*core.CustomerQuery, error) {
	return db.repos.Queries.ListCustomerQueries(ctx, status)
}

// SetCustomerQueryStatus updates the follow-up state of a captured query.
func (db *Database) SetCustomerQueryStatus(ctx context.Context, id core.ID, status core.QueryStatus) error {
	return db.repos.Queries.SetCustomerQueryStatus(ctx, id, status)
}

// PruneCache evicts cache entries that are both stale and rarely hit.
// Returns the number of entries removed.
func (db *Database) PruneCache(ctx context.Context) (int, error) {
	return db.cache.Prune(ctx)
}

// Reembed regenerates every stored chunk embedding with the current
// embedding model, writing progress to output.
func (db *Database) Reembed(ctx context.Context, config reembed.Config, output io.Writer) (int, error) {
	reembedder := reembed.NewReembedder(db.repos.Documents, db.repos.Chunks, db.provider.Embedder(), config, output, db.logger)
	return reembedder.Run(ctx)
}

// DocumentRepository exposes the underlying document store.
func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.repos.Documents
}

// ChunkRepository exposes the underlying chunk store.
func (db *Database) ChunkRepository() storage.ChunkRepository {
	return db.repos.Chunks
}

// QueryRepository exposes the underlying customer query store.
func (db *Database) QueryRepository() storage.QueryRepository {
	return db.repos.Queries
}
