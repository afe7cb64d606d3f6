package badger

import (
	"bytes"
	"context"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
	"github.com/poiesic/docqa/storage/keyword"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
// Chunk content is mirrored into the keyword index on write.
type ChunkRepository struct {
	backend *Backend
	keyword *keyword.Index
	idSeq   *badger.Sequence
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend, kw *keyword.Index) (*ChunkRepository, error) {
	idSeq, err := backend.GetSequence(chunkRecordIDSeq)
	if err != nil {
		return nil, err
	}

	return &ChunkRepository{
		backend: backend,
		keyword: kw,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ChunkRepository) Close() error {
	return r.idSeq.Release()
}

// PutChunks stores a batch of chunks for one document atomically and adds
// their content to the keyword index. Returns the generated chunk IDs in
// input order.
func (r *ChunkRepository) PutChunks(ctx context.Context, documentId core.ID, chunks []*core.Chunk) ([]core.ID, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	for _, chunk := range chunks {
		chunk.DocumentId = documentId
		if err := core.ValidateChunk(chunk); err != nil {
			return nil, err
		}
	}

	ids := make([]core.ID, 0, len(chunks))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, chunk := range chunks {
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			chunk.Id = core.ID(nextID)
			chunk.InsertedAt = now

			if err := tx.Set(makeChunkKey(chunk.Id), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
			if err := tx.Set(makeChunkDocKey(documentId, chunk.Id), storage.MarshalID(chunk.Id)); err != nil {
				return err
			}
			ids = append(ids, chunk.Id)
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	// The keyword index lives outside the BadgerDB transaction. Ingestion
	// re-indexes on retry, so a crash between the two writes heals itself.
	if err := r.keyword.IndexChunks(chunks...); err != nil {
		return nil, err
	}
	return ids, nil
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error) {
	var result *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readChunk(tx, makeChunkKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetChunks retrieves multiple chunks by their IDs. Missing chunks are
// skipped without error.
func (r *ChunkRepository) GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			chunk, err := readChunk(tx, makeChunkKey(id))
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)
	return results, err
}

// GetDocumentChunks retrieves all chunks of a document ordered by chunk
// index.
func (r *ChunkRepository) GetDocumentChunks(ctx context.Context, documentId core.ID) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		chunkIDs, err := documentChunkIDs(tx, documentId)
		if err != nil {
			return err
		}
		for _, id := range chunkIDs {
			chunk, err := readChunk(tx, makeChunkKey(id))
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})
	return results, nil
}

// ReindexDocument rewrites the keyword index entries for all stored chunks
// of a document.
func (r *ChunkRepository) ReindexDocument(ctx context.Context, documentId core.ID) error {
	chunks, err := r.GetDocumentChunks(ctx, documentId)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}
	return r.keyword.IndexChunks(chunks...)
}

// ChunksMissingEmbedding returns the IDs of the document's chunks that
// have no stored embedding.
func (r *ChunkRepository) ChunksMissingEmbedding(ctx context.Context, documentId core.ID) ([]core.ID, error) {
	var missing []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		chunkIDs, err := documentChunkIDs(tx, documentId)
		if err != nil {
			return err
		}
		for _, id := range chunkIDs {
			_, err := tx.Get(makeEmbeddingKey(id))
			if err == badger.ErrKeyNotFound {
				missing = append(missing, id)
				continue
			}
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	return missing, err
}

// PutEmbedding stores the embedding for a chunk, replacing any existing
// one.
func (r *ChunkRepository) PutEmbedding(ctx context.Context, chunkId core.ID, vector []float32) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeChunkKey(chunkId))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}

		embedding := &core.Embedding{
			ChunkId:    chunkId,
			Vector:     vector,
			InsertedAt: time.Now().UTC(),
		}
		if err := tx.Set(makeEmbeddingKey(chunkId), storage.MarshalEmbedding(embedding)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetEmbedding retrieves the embedding for a chunk.
func (r *ChunkRepository) GetEmbedding(ctx context.Context, chunkId core.ID) (*core.Embedding, error) {
	var result *core.Embedding
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEmbeddingKey(chunkId))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			result, err = storage.UnmarshalEmbedding(val)
			return err
		})
	}, false)
	return result, err
}

// DeleteEmbedding removes the embedding for a chunk. Deleting a missing
// embedding is not an error.
func (r *ChunkRepository) DeleteEmbedding(ctx context.Context, chunkId core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeEmbeddingKey(chunkId)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// SemanticSearch returns chunks of the given documents ranked by cosine
// similarity against vector. Only matches scoring strictly above
// scoreFloor are returned, highest first, up to limit.
func (r *ChunkRepository) SemanticSearch(ctx context.Context, vector []float32, documentIds []core.ID, scoreFloor float32, limit int) ([]core.ChunkMatch, error) {
	if len(vector) == 0 {
		return nil, storage.ErrInvalidQuery
	}
	if len(documentIds) == 0 || limit <= 0 {
		return nil, nil
	}

	var matches []core.ChunkMatch
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, documentId := range documentIds {
			if err := ctx.Err(); err != nil {
				return err
			}
			chunkIDs, err := documentChunkIDs(tx, documentId)
			if err != nil {
				return err
			}
			for _, chunkID := range chunkIDs {
				item, err := tx.Get(makeEmbeddingKey(chunkID))
				if err == badger.ErrKeyNotFound {
					continue
				}
				if err != nil {
					return err
				}
				var embedding *core.Embedding
				if err := item.Value(func(val []byte) error {
					var err error
					embedding, err = storage.UnmarshalEmbedding(val)
					return err
				}); err != nil {
					return err
				}

				score := core.CosineSimilarity(vector, embedding.Vector)
				if score > scoreFloor {
					matches = append(matches, core.ChunkMatch{
						ChunkId: chunkID,
						Score:   score,
					})
				}
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// documentChunkIDs reads the chunk IDs of a document from the
// document->chunk index, in key order.
func documentChunkIDs(tx *badger.Txn, documentId core.ID) ([]core.ID, error) {
	startKey := makePartialChunkDocKey(documentId)
	iter := tx.NewIterator(badger.DefaultIteratorOptions)
	defer iter.Close()

	var ids []core.ID
	for iter.Seek(startKey); iter.Valid(); iter.Next() {
		k := iter.Item().Key()
		if len(k) < len(startKey) || !bytes.Equal(k[:len(startKey)], startKey) {
			break
		}
		var chunkID core.ID
		if err := iter.Item().Value(func(val []byte) error {
			var err error
			chunkID, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return nil, err
		}
		ids = append(ids, chunkID)
	}
	return ids, nil
}

// readChunk reads a chunk from the transaction.
// Returns nil without error when the key is absent.
func readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		chunk, unmarshalErr = storage.UnmarshalChunk(val)
		return unmarshalErr
	})
	return chunk, err
}
