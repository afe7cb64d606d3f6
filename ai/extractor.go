package ai

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"unicode/utf8"
)

// PlainTextExtractor implements TextExtractor for text/* media types.
// Binary formats need a dedicated extractor.
type PlainTextExtractor struct{}

var _ TextExtractor = (*PlainTextExtractor)(nil)

// NewPlainTextExtractor creates an extractor for plain-text documents.
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

// Extract returns the document bytes as a string after verifying the
// media type and UTF-8 validity.
func (e *PlainTextExtractor) Extract(ctx context.Context, raw []byte, mediaType string) (string, error) {
	base := mediaType
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		base = parsed
	}

	if !strings.HasPrefix(base, "text/") && base != "application/json" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMediaType, mediaType)
	}

	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: %s content is not valid UTF-8", ErrExtractionFailed, mediaType)
	}

	return string(raw), nil
}
