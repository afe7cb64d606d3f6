package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/chunker"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

// Pipeline orchestrates the ingestion and processing of documents.
// A document moves through two phases: chunk creation and embedding
// generation. Each phase is recorded in the document's status so that a
// failed run can be retried without repeating completed work.
type Pipeline struct {
	documents    storage.DocumentRepository
	chunks       storage.ChunkRepository
	extractor    ai.TextExtractor
	embedder     ai.Embedder
	embedPool    *ants.Pool
	maxChunkSize int
	chunkOverlap int
	busy         sync.Map
	logger       *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.embedPool != nil {
			p.embedPool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.embedPool = pool
		return nil
	}
}

// WithChunkSize sets the maximum chunk size in characters.
// Default is chunker.DefaultMaxSize.
func WithChunkSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("chunk size must be positive, got %d", size)
		}
		p.maxChunkSize = size
		return nil
	}
}

// WithChunkOverlap sets the chunk overlap in characters.
// Default is chunker.DefaultOverlap.
func WithChunkOverlap(overlap int) Option {
	return func(p *Pipeline) error {
		if overlap < 0 {
			return fmt.Errorf("chunk overlap must not be negative, got %d", overlap)
		}
		p.chunkOverlap = overlap
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		documents:    documents,
		chunks:       chunks,
		extractor:    provider.TextExtractor(),
		embedder:     provider.Embedder(),
		embedPool:    pool,
		maxChunkSize: chunker.DefaultMaxSize,
		chunkOverlap: chunker.DefaultOverlap,
		logger:       slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Ingest stores a new document and runs it through both processing phases.
// The returned document reflects the final status: completed on success,
// failed with an error message otherwise. Processing errors are recorded
// on the document rather than hidden, so Ingest returns them as well.
func (p *Pipeline) Ingest(ctx context.Context, doc *core.Document, raw []byte) (*core.Document, error) {
	doc.Size = int64(len(raw))

	added, err := p.documents.AddDocument(ctx, doc)
	if err != nil {
		return nil, err
	}

	if err := p.run(ctx, added.Id, raw); err != nil {
		return p.reload(ctx, added.Id, err)
	}
	return p.documents.GetDocument(ctx, added.Id)
}

// Retry resumes processing of an existing document. Completed documents
// are left alone. A failed document re-enters processing; work that
// already succeeded (stored chunks, stored embeddings) is not repeated.
// raw is only needed when the document has no stored chunks yet.
func (p *Pipeline) Retry(ctx context.Context, id core.ID, raw []byte) (*core.Document, error) {
	doc, err := p.documents.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	if doc.Status == core.StatusCompleted {
		p.logger.Debug("document already completed, nothing to do", "document", id)
		return doc, nil
	}

	if doc.Status == core.StatusFailed {
		if err := p.documents.SetDocumentStatus(ctx, id, core.StatusProcessing, ""); err != nil {
			return nil, err
		}
	}

	if err := p.run(ctx, id, raw); err != nil {
		return p.reload(ctx, id, err)
	}
	return p.documents.GetDocument(ctx, id)
}

// Release releases the embedding worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embedPool != nil {
		p.embedPool.Release()
	}
}

// reload fetches the document's current state so callers see the recorded
// failure alongside the error.
func (p *Pipeline) reload(ctx context.Context, id core.ID, cause error) (*core.Document, error) {
	doc, err := p.documents.GetDocument(ctx, id)
	if err != nil {
		return nil, errors.Join(cause, err)
	}
	return doc, cause
}

// run executes both processing phases for a document. Only one run per
// document may be active at a time.
func (p *Pipeline) run(ctx context.Context, id core.ID, raw []byte) error {
	if _, loaded := p.busy.LoadOrStore(id, struct{}{}); loaded {
		return ErrDocumentBusy
	}
	defer p.busy.Delete(id)

	if err := p.ensureChunks(ctx, id, raw); err != nil {
		return err
	}
	return p.ensureEmbeddings(ctx, id)
}

// ensureChunks runs the first phase: text extraction and chunk creation.
// Documents that already have stored chunks skip straight to the status
// update, which makes retries idempotent.
func (p *Pipeline) ensureChunks(ctx context.Context, id core.ID, raw []byte) error {
	existing, err := p.chunks.GetDocumentChunks(ctx, id)
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		if len(raw) == 0 {
			return p.fail(ctx, id, ErrContentRequired)
		}

		doc, err := p.documents.GetDocument(ctx, id)
		if err != nil {
			return err
		}

		text, err := p.extractor.Extract(ctx, raw, doc.MediaType)
		if err != nil {
			return p.fail(ctx, id, err)
		}

		pieces := chunker.Split(text, p.maxChunkSize, p.chunkOverlap)
		if len(pieces) == 0 {
			return p.fail(ctx, id, ErrNoChunks)
		}

		chunks := make([]*core.Chunk, len(pieces))
		for i, piece := range pieces {
			chunks[i] = &core.Chunk{
				Index:   uint32(i),
				Content: piece,
			}
		}

		if _, err := p.chunks.PutChunks(ctx, id, chunks); err != nil {
			return p.fail(ctx, id, err)
		}
		p.logger.Info("created chunks", "document", id, "chunks", len(chunks))
	} else {
		// Chunks survived an earlier run. Rewrite their keyword index
		// entries in case the previous run stopped before indexing.
		if err := p.chunks.ReindexDocument(ctx, id); err != nil {
			return p.fail(ctx, id, err)
		}
	}

	doc, err := p.documents.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if doc.Status == core.StatusProcessing {
		return p.documents.SetDocumentStatus(ctx, id, core.StatusChunksCreated, "")
	}
	return nil
}

// ensureEmbeddings runs the second phase: embedding every chunk that does
// not have one yet. The missing set is read fresh at the start and checked
// fresh again at the end, so a retry after partial failure only embeds
// what is actually absent.
func (p *Pipeline) ensureEmbeddings(ctx context.Context, id core.ID) error {
	missing, err := p.chunks.ChunksMissingEmbedding(ctx, id)
	if err != nil {
		return err
	}

	if len(missing) > 0 {
		p.logger.Info("embedding chunks", "document", id, "chunks", len(missing))
		if err := p.embedChunks(ctx, missing); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				// Cancellation is not a document failure. The status stays
				// where it is and a later retry picks up the remainder.
				return err
			}
			return p.fail(ctx, id, err)
		}
	}

	// Verify against current state before declaring the document ready.
	missing, err = p.chunks.ChunksMissingEmbedding(ctx, id)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return p.fail(ctx, id, fmt.Errorf("%d chunks still missing embeddings", len(missing)))
	}

	return p.documents.SetDocumentStatus(ctx, id, core.StatusCompleted, "")
}

// embedChunks generates and stores embeddings for the given chunks using
// the worker pool. The first error is returned after all workers finish.
func (p *Pipeline) embedChunks(ctx context.Context, ids []core.ID) error {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	record := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	for _, chunkID := range ids {
		chunkID := chunkID
		wg.Add(1)
		submitErr := p.embedPool.Submit(func() {
			defer wg.Done()

			if err := ctx.Err(); err != nil {
				record(err)
				return
			}

			chunk, err := p.chunks.GetChunk(ctx, chunkID)
			if err != nil {
				record(err)
				return
			}

			vector, err := p.embedder.EmbedText(ctx, chunk.Content)
			if err != nil {
				p.logger.Error("error generating embedding", "chunk", chunkID, "err", err)
				record(err)
				return
			}

			if err := p.chunks.PutEmbedding(ctx, chunkID, vector); err != nil {
				record(err)
			}
		})
		if submitErr != nil {
			wg.Done()
			record(submitErr)
			break
		}
	}

	wg.Wait()
	return firstErr
}

// fail marks the document failed with the error's message and returns the
// original error.
func (p *Pipeline) fail(ctx context.Context, id core.ID, cause error) error {
	p.logger.Error("document processing failed", "document", id, "err", cause)
	if err := p.documents.SetDocumentStatus(ctx, id, core.StatusFailed, cause.Error()); err != nil {
		p.logger.Error("error recording failure status", "document", id, "err", err)
	}
	return cause
}
