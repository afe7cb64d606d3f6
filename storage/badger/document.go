package badger

import (
	"bytes"
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
	"github.com/poiesic/docqa/storage/keyword"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	keyword *keyword.Index
	idSeq   *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository. The keyword index
// is needed for cascade deletion of chunk index entries.
func NewDocumentRepository(backend *Backend, kw *keyword.Index) (*DocumentRepository, error) {
	idSeq, err := backend.GetSequence(docRecordIDSeq)
	if err != nil {
		return nil, err
	}

	return &DocumentRepository{
		backend: backend,
		keyword: kw,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *DocumentRepository) Close() error {
	return r.idSeq.Release()
}

// AddDocument stores a new document.
func (r *DocumentRepository) AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if doc.Status == 0 {
		doc.Status = core.StatusProcessing
	}
	doc.VisibleTo = doc.VisibleTo.Normalize()

	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if doc.Id == 0 {
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
			doc.Id = core.ID(nextID)
		}

		doc.InsertedAt = time.Now().UTC()
		doc.UpdatedAt = doc.InsertedAt

		if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return doc, err
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
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

// ListDocuments retrieves all documents, ordered by ID.
func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(docRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if doc != nil {
				results = append(results, doc)
			}
		}
		return nil
	}, false)
	return results, err
}

// SetDocumentStatus moves a document through its state machine.
// The change is validated against the allowed-transition table.
func (r *DocumentRepository) SetDocumentStatus(ctx context.Context, id core.ID, status core.DocumentStatus, errMsg string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)
		doc, err := readDocument(tx, key)
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}

		next, err := core.Transition(doc.Status, status)
		if err != nil {
			return err
		}

		doc.Status = next
		if next == core.StatusFailed {
			doc.ErrorMessage = errMsg
		} else {
			doc.ErrorMessage = ""
		}
		doc.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteDocument removes a document and cascades to its chunks, embeddings
// and keyword index entries.
func (r *DocumentRepository) DeleteDocument(ctx context.Context, id core.ID) error {
	var chunkIDs []core.ID

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)
		doc, err := readDocument(tx, key)
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}

		// Collect and delete all chunks via the document->chunk index.
		startKey := makePartialChunkDocKey(id)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		var indexKeys [][]byte
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
				iter.Close()
				return err
			}
			chunkIDs = append(chunkIDs, chunkID)
			indexKeys = append(indexKeys, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		for i, chunkID := range chunkIDs {
			if err := tx.Delete(makeChunkKey(chunkID)); err != nil {
				return err
			}
			if err := tx.Delete(makeEmbeddingKey(chunkID)); err != nil {
				return err
			}
			if err := tx.Delete(indexKeys[i]); err != nil {
				return err
			}
		}

		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	if len(chunkIDs) > 0 {
		return r.keyword.DeleteChunks(chunkIDs...)
	}
	return nil
}

// VisibleDocumentIDs returns IDs of completed documents visible to role.
func (r *DocumentRepository) VisibleDocumentIDs(ctx context.Context, role core.Role) ([]core.ID, error) {
	if err := core.ValidateRole(role); err != nil {
		return nil, err
	}

	var ids []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(docRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if doc == nil {
				continue
			}
			if doc.Status == core.StatusCompleted && doc.VisibleTo.Has(role) {
				ids = append(ids, doc.Id)
			}
		}
		return nil
	}, false)
	return ids, err
}

// readDocument reads a document from the transaction.
// Returns nil without error when the key is absent.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}
