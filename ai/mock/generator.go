package mock

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/docqa/ai"
)

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// AnswerFunc is called by Answer if set.
	// If nil, uses default deterministic behavior.
	AnswerFunc func(ctx context.Context, question string, passages []string) (string, error)

	callCount int
}

// NewMockGenerator creates a mock generator with default deterministic behavior.
// Note: Returns concrete type to allow test assertions via GetMockGenerator().
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Answer returns a deterministic answer built from the first passage.
// With no passages it returns the no-answer sentinel, mirroring the
// production generator.
func (m *MockGenerator) Answer(ctx context.Context, question string, passages []string) (string, error) {
	m.callCount++

	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, question, passages)
	}

	if len(passages) == 0 {
		return ai.NoAnswerSentinel, nil
	}
	return fmt.Sprintf("Based on the documents: %s", strings.TrimSpace(passages[0])), nil
}

// CallCount returns the number of times Answer was called.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.AnswerFunc = nil
}
