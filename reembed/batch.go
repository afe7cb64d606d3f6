package reembed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

// BatchProcessor regenerates embeddings for batches of chunks.
type BatchProcessor struct {
	embedder   ai.Embedder
	chunks     storage.ChunkRepository
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewBatchProcessor creates a processor that embeds chunk batches and
// replaces their stored vectors.
func NewBatchProcessor(embedder ai.Embedder, chunks storage.ChunkRepository, maxRetries int, retryDelay time.Duration, logger *slog.Logger) *BatchProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchProcessor{
		embedder:   embedder,
		chunks:     chunks,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger.With("component", "reembed"),
	}
}

// Process embeds the batch and writes the new vectors, replacing any
// existing embeddings. Returns the number of chunks updated.
func (bp *BatchProcessor) Process(ctx context.Context, batch []*core.Chunk) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Content
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var embedErr error
		vectors, embedErr = bp.embedder.EmbedTexts(ctx, texts)
		return embedErr
	}, bp.maxRetries, bp.retryDelay)
	if err != nil {
		return 0, fmt.Errorf("failed to embed batch of %d chunks: %w", len(batch), err)
	}

	if len(vectors) != len(batch) {
		return 0, fmt.Errorf("embedding count mismatch: got %d vectors for %d chunks", len(vectors), len(batch))
	}

	updated := 0
	for i, chunk := range batch {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		vector := NormalizeVector(vectors[i])

		if err := bp.chunks.DeleteEmbedding(ctx, chunk.Id); err != nil {
			return updated, fmt.Errorf("failed to delete old embedding for chunk %d: %w", chunk.Id, err)
		}
		if err := bp.chunks.PutEmbedding(ctx, chunk.Id, vector); err != nil {
			return updated, fmt.Errorf("failed to store embedding for chunk %d: %w", chunk.Id, err)
		}
		updated++
	}

	bp.logger.Debug("batch reembedded", "chunks", updated)
	return updated, nil
}
