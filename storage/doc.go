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


// Package storage provides the storage abstraction layer for docqa.
//
// This package defines repository interfaces that decouple storage
// implementation from business logic, so different backends (BadgerDB,
// in-memory, etc.) can be used interchangeably.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return these interfaces to
// enforce abstraction:
//
//	repo, err := badger.NewDocumentRepository(backend)  // storage.DocumentRepository
//
// Internal constructors may return concrete types within their own package.
//
// # Repositories
//
//   - DocumentRepository: documents, status machine, access filter
//   - ChunkRepository: chunks, embeddings, vector similarity search
//   - KeywordSearcher: inverted-index search over chunk content
//   - CacheRepository: answer cache entries
//   - QueryRepository: captured customer queries
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines. Writes are per-document;
// readers never block on ingestion of unrelated documents.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and
// timeout support.
package storage
