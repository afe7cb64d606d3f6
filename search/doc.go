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


// Package search provides hybrid semantic and keyword retrieval over chunks.
//
// The Searcher type runs two retrieval sides concurrently:
//   - Semantic search using vector embeddings and cosine similarity
//   - Keyword search using an inverted index
//
// The two result lists are merged with a full outer join: chunks found by
// both sides combine their weighted scores and are tagged hybrid, while
// single-side hits keep their own weighted score and tag. Each side runs
// under its own timeout and degrades to no results on failure; the search
// as a whole only fails when both sides do.
package search
