// Package ingestion provides pipeline orchestration for processing documents.
//
// The Pipeline type manages the ingestion workflow for documents, including:
//   - Storing the document record
//   - Extracting text and creating chunks (phase one)
//   - Generating embeddings for every chunk (phase two)
//
// Each completed phase is recorded in the document status, so a failed run
// can be retried without repeating work: stored chunks are reused and the
// set of chunks missing an embedding is always read fresh from storage.
// Embedding generation runs concurrently on a worker pool.
package ingestion
