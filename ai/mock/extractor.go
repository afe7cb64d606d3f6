package mock

import (
	"context"
)

// MockTextExtractor is a test double for ai.TextExtractor.
// It allows custom behavior injection via function fields.
type MockTextExtractor struct {
	// ExtractFunc is called by Extract if set.
	// If nil, returns the raw bytes as a string regardless of media type.
	ExtractFunc func(ctx context.Context, raw []byte, mediaType string) (string, error)

	callCount int
}

// NewMockTextExtractor creates a mock extractor with default passthrough behavior.
func NewMockTextExtractor() *MockTextExtractor {
	return &MockTextExtractor{}
}

// Extract returns the raw bytes as text.
func (m *MockTextExtractor) Extract(ctx context.Context, raw []byte, mediaType string) (string, error) {
	m.callCount++

	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, raw, mediaType)
	}

	return string(raw), nil
}

// CallCount returns the number of times Extract was called.
func (m *MockTextExtractor) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockTextExtractor) Reset() {
	m.callCount = 0
	m.ExtractFunc = nil
}
