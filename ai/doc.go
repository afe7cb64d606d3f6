// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ai provides abstractions for AI services used in DocQA.
//
// This package defines interfaces for AI operations including text embeddings,
// grounded answer generation and document text extraction. It follows the
// dependency inversion principle, allowing the core domain and business logic
// to depend on abstractions rather than concrete implementations.
//
// # Design Principles
//
// The package is designed around four key interfaces:
//
//   - Embedder: Generates vector embeddings from text
//   - Generator: Produces answers grounded in retrieved passages
//   - TextExtractor: Converts uploaded document bytes into plain text
//   - AIProvider: Aggregates AI services for convenient initialization
//
// # Implementation Packages
//
// The ai package includes two implementation sub-packages:
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types to enforce abstraction and prevent accidental coupling to
// concrete implementations. This is essential for dependency injection and
// supporting multiple implementations.
//
//	provider, err := openai.NewProvider(config)  // returns ai.AIProvider
//
// Test utility constructors (mock.NewMockEmbedder, mock.NewMockGenerator)
// return CONCRETE types to enable test assertions and behavior injection via
// the mock's public methods (CallCount, function fields, Reset, etc.).
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "What is the refund policy?")
//	answer, err := provider.Generator().Answer(ctx, question, passages)
//
// # No-Answer Detection
//
// Generators are prompted to emit the NoAnswerSentinel phrase when the
// retrieved passages lack enough evidence to answer. Callers use IsNoAnswer
// to detect this and fall back to capturing the question for human follow-up.
package ai
