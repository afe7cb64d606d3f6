// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Generator,
// ai.TextExtractor and ai.AIProvider for use in unit tests. The mocks allow
// tests to run without external AI service dependencies and enable
// controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockGenerator := mock.NewMockGenerator()
//	mockGenerator.AnswerFunc = func(ctx context.Context, question string, passages []string) (string, error) {
//	    return "a canned answer", nil
//	}
//
//	// Check call counts
//	count := mockGenerator.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder generates deterministic 384-dimension vectors from an
//     FNV hash of the input text, so the same text always embeds the same
//   - MockGenerator answers from the first passage and returns the
//     no-answer sentinel when given no passages
//   - MockTextExtractor passes the raw bytes through as text
package mock
