package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces grounded answers from retrieved passages.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Answer generates an answer to the question using only the provided
	// passages as evidence. When the passages do not contain enough
	// evidence, the returned text contains the NoAnswerSentinel phrase.
	// Returns an error if generation fails.
	Answer(ctx context.Context, question string, passages []string) (string, error)
}

// TextExtractor converts raw uploaded bytes into plain text.
// Implementations must be thread-safe for concurrent use.
type TextExtractor interface {
	// Extract returns the plain-text content of raw.
	// Returns ErrUnsupportedMediaType when the media type is not handled.
	Extract(ctx context.Context, raw []byte, mediaType string) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder, Generator and TextExtractor instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Generator returns the answer generation service.
	// The returned Generator is safe for concurrent use.
	Generator() Generator

	// TextExtractor returns the document text extraction service.
	// The returned TextExtractor is safe for concurrent use.
	TextExtractor() TextExtractor

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
