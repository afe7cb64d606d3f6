package cache

import "errors"

var (
	// ErrCacheRepositoryRequired is returned when a cache repository is not provided.
	ErrCacheRepositoryRequired = errors.New("cache repository required")

	// ErrEmptyQuestion is returned when the question text is blank.
	ErrEmptyQuestion = errors.New("question text required")
)
