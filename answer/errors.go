package answer

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrQueryRepositoryRequired is returned when a query repository is not provided.
	ErrQueryRepositoryRequired = errors.New("query repository required")

	// ErrSearcherRequired is returned when a searcher is not provided.
	ErrSearcherRequired = errors.New("searcher required")

	// ErrCacheRequired is returned when an answer cache is not provided.
	ErrCacheRequired = errors.New("answer cache required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrEmptyQuestion is returned when the question text is blank.
	ErrEmptyQuestion = errors.New("question text required")
)
