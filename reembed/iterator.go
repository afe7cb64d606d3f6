package reembed

import (
	"context"
	"fmt"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

// DefaultBatchSize is the number of chunks handed to the callback per batch.
const DefaultBatchSize = 100

// ChunkIterator walks every chunk in the store, document by document,
// yielding fixed-size batches.
type ChunkIterator struct {
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	batchSize int
}

// NewChunkIterator creates an iterator over all stored chunks.
// A batchSize of zero or less falls back to DefaultBatchSize.
func NewChunkIterator(documents storage.DocumentRepository, chunks storage.ChunkRepository, batchSize int) *ChunkIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ChunkIterator{
		documents: documents,
		chunks:    chunks,
		batchSize: batchSize,
	}
}

// ForEach invokes fn for each batch of chunks. Iteration stops on the
// first error from fn or when the context is canceled.
func (it *ChunkIterator) ForEach(ctx context.Context, fn func(batch []*core.Chunk) error) error {
	docs, err := it.documents.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	batch := make([]*core.Chunk, 0, it.batchSize)

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}

		chunks, err := it.chunks.GetDocumentChunks(ctx, doc.Id)
		if err != nil {
			return fmt.Errorf("failed to load chunks for document %d: %w", doc.Id, err)
		}

		for _, chunk := range chunks {
			batch = append(batch, chunk)
			if len(batch) >= it.batchSize {
				if err := fn(batch); err != nil {
					return err
				}
				batch = make([]*core.Chunk, 0, it.batchSize)
			}
		}
	}

	if len(batch) > 0 {
		if err := fn(batch); err != nil {
			return err
		}
	}

	return nil
}

// Count returns the total number of chunks across all documents.
func (it *ChunkIterator) Count(ctx context.Context) (int, error) {
	docs, err := it.documents.ListDocuments(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list documents: %w", err)
	}

	total := 0
	for _, doc := range docs {
		chunks, err := it.chunks.GetDocumentChunks(ctx, doc.Id)
		if err != nil {
			return 0, fmt.Errorf("failed to load chunks for document %d: %w", doc.Id, err)
		}
		total += len(chunks)
	}
	return total, nil
}
