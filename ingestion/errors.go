package ingestion

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrDocumentBusy is returned when the document is already being processed.
	ErrDocumentBusy = errors.New("document is already being processed")

	// ErrContentRequired is returned when a document has no stored chunks and
	// no raw content was supplied to rebuild them from.
	ErrContentRequired = errors.New("raw document content required")

	// ErrNoChunks is returned when chunking produced no usable content.
	ErrNoChunks = errors.New("document produced no chunks")
)
