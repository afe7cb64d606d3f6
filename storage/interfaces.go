package storage

import (
	"context"
	"time"

	"github.com/poiesic/docqa/core"
)

// Repository provides common lifecycle operations shared across all
// repositories. Implementations must be thread-safe and support concurrent
// access.
type Repository interface {
	// Close closes the repository and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing documents.
// The ingestion pipeline exclusively owns the write paths.
type DocumentRepository interface {
	Repository

	// AddDocument stores a new document. For documents with ID=0, generates
	// a new ID from sequence; sets timestamps and normalizes the visibility
	// set so the owner role is always included. Status defaults to
	// StatusProcessing when unset. Returns the stored document.
	AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// ListDocuments retrieves all documents, ordered by ID.
	ListDocuments(ctx context.Context) ([]*core.Document, error)

	// SetDocumentStatus moves a document through its state machine.
	// The change is validated against the allowed-transition table;
	// core.ErrInvalidTransition is returned for moves not in the table.
	// errMsg is stored only when status is StatusFailed and cleared
	// otherwise.
	SetDocumentStatus(ctx context.Context, id core.ID, status core.DocumentStatus, errMsg string) error

	// DeleteDocument removes a document and cascades to all of its chunks,
	// their embeddings, and their keyword index entries.
	DeleteDocument(ctx context.Context, id core.ID) error

	// VisibleDocumentIDs returns the IDs of completed documents whose
	// visibility set contains role. This is the access filter passed into
	// retrieval; retrieval itself never makes visibility decisions.
	VisibleDocumentIDs(ctx context.Context, role core.Role) ([]core.ID, error)
}

// ChunkRepository provides operations for managing chunks and their
// embeddings, plus the vector-similarity read path.
type ChunkRepository interface {
	Repository

	// PutChunks stores a batch of chunks for one document atomically.
	// Chunks receive sequence IDs and InsertedAt timestamps; their content
	// is also added to the keyword index. Returns the generated chunk IDs
	// in input order.
	PutChunks(ctx context.Context, documentId core.ID, chunks []*core.Chunk) ([]core.ID, error)

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetChunks retrieves multiple chunks by their IDs.
	// Returns only the chunks that exist (no error for missing chunks).
	GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error)

	// GetDocumentChunks retrieves all chunks of a document ordered by
	// chunk index.
	GetDocumentChunks(ctx context.Context, documentId core.ID) ([]*core.Chunk, error)

	// ReindexDocument rewrites the keyword index entries for all of the
	// document's stored chunks. Indexing is idempotent, so this repairs an
	// index that lost the batch written after the chunk records.
	ReindexDocument(ctx context.Context, documentId core.ID) error

	// ChunksMissingEmbedding returns the IDs of the document's chunks that
	// have no stored embedding. Callers retrying ingestion must re-read
	// this set fresh rather than reuse an earlier snapshot.
	ChunksMissingEmbedding(ctx context.Context, documentId core.ID) ([]core.ID, error)

	// PutEmbedding stores the embedding for a chunk, replacing any
	// existing one.
	PutEmbedding(ctx context.Context, chunkId core.ID, vector []float32) error

	// GetEmbedding retrieves the embedding for a chunk.
	// Returns ErrNotFound if no embedding is stored.
	GetEmbedding(ctx context.Context, chunkId core.ID) (*core.Embedding, error)

	// DeleteEmbedding removes the embedding for a chunk. Deleting a missing
	// embedding is not an error.
	DeleteEmbedding(ctx context.Context, chunkId core.ID) error

	// SemanticSearch returns chunks of the given documents ranked by cosine
	// similarity against vector. Only matches with score strictly greater
	// than scoreFloor are returned, highest first, up to limit.
	SemanticSearch(ctx context.Context, vector []float32, documentIds []core.ID, scoreFloor float32, limit int) ([]core.ChunkMatch, error)
}

// KeywordSearcher exposes the inverted-index read path. Implemented by the
// keyword package; declared here so the ranker depends on storage
// interfaces only.
type KeywordSearcher interface {
	// Search returns chunks of the given documents matching the query text,
	// ranked by normalized relevance in [0, 1], up to limit.
	Search(ctx context.Context, query string, documentIds []core.ID, limit int) ([]core.ChunkMatch, error)
}

// CacheRepository provides operations for managing answer cache entries.
// The answer cache exclusively owns the write paths.
type CacheRepository interface {
	Repository

	// PutEntry inserts or overwrites a cache entry under its ID.
	// Sets InsertedAt on first write and UpdatedAt always.
	PutEntry(ctx context.Context, entry *core.CacheEntry) error

	// GetEntry retrieves a cache entry by ID.
	// Returns ErrNotFound if the entry doesn't exist.
	GetEntry(ctx context.Context, id core.ID) (*core.CacheEntry, error)

	// TouchEntry increments an entry's hit count and refreshes LastHitAt.
	// Returns the updated entry, or ErrNotFound.
	TouchEntry(ctx context.Context, id core.ID, at time.Time) (*core.CacheEntry, error)

	// EntriesByRole retrieves all entries scoped to role.
	EntriesByRole(ctx context.Context, role core.Role) ([]*core.CacheEntry, error)

	// ListEntries retrieves all entries across roles.
	ListEntries(ctx context.Context) ([]*core.CacheEntry, error)

	// DeleteEntries removes entries by ID. Missing IDs are ignored.
	DeleteEntries(ctx context.Context, ids ...core.ID) error
}

// QueryRepository provides operations for captured customer queries.
type QueryRepository interface {
	Repository

	// AddCustomerQuery stores a new customer query with status pending.
	AddCustomerQuery(ctx context.Context, q *core.CustomerQuery) (*core.CustomerQuery, error)

	// ListCustomerQueries retrieves queries, optionally filtered by status.
	// Pass status 0 for all.
	ListCustomerQueries(ctx context.Context, status core.QueryStatus) ([]*core.CustomerQuery, error)

	// SetCustomerQueryStatus updates the follow-up state of a query.
	// Returns ErrNotFound if the query doesn't exist.
	SetCustomerQueryStatus(ctx context.Context, id core.ID, status core.QueryStatus) error
}
