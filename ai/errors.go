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


package ai

import (
	"errors"
	"strings"
)

// NoAnswerSentinel is the phrase the generator is instructed to emit when
// the retrieved passages do not contain enough evidence to answer.
const NoAnswerSentinel = "insufficient information"

var (
	// ErrEmbeddingUnavailable indicates the embedding service could not be reached.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationUnavailable indicates the generation service could not be reached.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrUnsupportedMediaType indicates no extractor handles the media type.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrExtractionFailed indicates text extraction from a document failed.
	ErrExtractionFailed = errors.New("text extraction failed")
)

// IsNoAnswer reports whether generated text declines to answer, i.e.
// contains the sentinel phrase. The check is case-insensitive.
func IsNoAnswer(text string) bool {
	return strings.Contains(strings.ToLower(text), NoAnswerSentinel)
}
