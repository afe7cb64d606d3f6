// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package reembed regenerates stored chunk embeddings in bulk.
//
// Embeddings are only comparable when they come from the same model,
// so after changing the embedding model every stored vector has to be
// rebuilt before semantic search gives sensible results again. The
// Reembedder walks all documents, embeds their chunks in batches with
// retry and backoff, and replaces the stored vectors in place.
package reembed
