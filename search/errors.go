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


package search

import "errors"

var (
	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrKeywordSearcherRequired is returned when a keyword searcher is not provided.
	ErrKeywordSearcherRequired = errors.New("keyword searcher required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrInvalidWeights is returned when a configured fusion weight is negative.
	ErrInvalidWeights = errors.New("fusion weights must not be negative")

	// ErrEmptyQuery is returned when the query text is blank.
	ErrEmptyQuery = errors.New("query text required")

	// ErrSearchFailed is returned when both retrieval sides fail.
	ErrSearchFailed = errors.New("search failed on both sides")
)
