package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

// Config holds tunables for a reembedding run.
type Config struct {
	// BatchSize is the number of chunks embedded per model call.
	BatchSize int
	// ReportInterval controls how often progress is printed, in chunks.
	ReportInterval int
	// MaxRetries is the number of attempts per embedding call.
	MaxRetries int
	// RetryDelay is the base delay between retry attempts.
	RetryDelay time.Duration
}

// DefaultConfig returns the standard reembedding configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     time.Second,
	}
}

// Reembedder regenerates every stored chunk embedding with the current
// embedding model. Run it after switching models so semantic search
// scores stay comparable across the whole corpus.
type Reembedder struct {
	iterator  *ChunkIterator
	processor *BatchProcessor
	config    Config
	output    io.Writer
	logger    *slog.Logger
}

// NewReembedder creates a reembedder over the given repositories.
// Progress output is written to output; pass io.Discard to silence it.
func NewReembedder(documents storage.DocumentRepository, chunks storage.ChunkRepository, embedder ai.Embedder, config Config, output io.Writer, logger *slog.Logger) *Reembedder {
	if logger == nil {
		logger = slog.Default()
	}
	if output == nil {
		output = io.Discard
	}
	return &Reembedder{
		iterator:  NewChunkIterator(documents, chunks, config.BatchSize),
		processor: NewBatchProcessor(embedder, chunks, config.MaxRetries, config.RetryDelay, logger),
		config:    config,
		output:    output,
		logger:    logger.With("component", "reembed"),
	}
}

// Run reembeds every chunk in the store. It returns the number of
// chunks updated, or an error if any batch could not be processed.
func (r *Reembedder) Run(ctx context.Context) (int, error) {
	total, err := r.iterator.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}

	if total == 0 {
		fmt.Fprintln(r.output, "No chunks to reembed.")
		return 0, nil
	}

	r.logger.Info("starting reembedding", "chunks", total, "batch_size", r.config.BatchSize)

	tracker := NewProgressTracker(r.output, total, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	err = r.iterator.ForEach(ctx, func(batch []*core.Chunk) error {
		updated, err := r.processor.Process(ctx, batch)
		processed += updated
		if err != nil {
			return err
		}
		tracker.Update(processed)
		return nil
	})
	if err != nil {
		return processed, err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.output, "Reembedded %d chunks in %s (%.1f chunks/s)\n",
		processed, elapsed.Round(time.Millisecond), float64(processed)/elapsed.Seconds())

	r.logger.Info("reembedding complete", "chunks", processed, "elapsed", elapsed)
	return processed, nil
}
