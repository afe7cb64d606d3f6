package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

// QueryRepository implements storage.QueryRepository for BadgerDB.
type QueryRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.QueryRepository = (*QueryRepository)(nil)

// NewQueryRepository creates a new QueryRepository.
func NewQueryRepository(backend *Backend) (*QueryRepository, error) {
	idSeq, err := backend.GetSequence(queryRecordIDSeq)
	if err != nil {
		return nil, err
	}

	return &QueryRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *QueryRepository) Close() error {
	return r.idSeq.Release()
}

// AddCustomerQuery stores a new customer query with status pending.
func (r *QueryRepository) AddCustomerQuery(ctx context.Context, q *core.CustomerQuery) (*core.CustomerQuery, error) {
	if q.Status == 0 {
		q.Status = core.QueryPending
	}
	if err := core.ValidateCustomerQuery(q); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if q.Id == 0 {
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
			q.Id = core.ID(nextID)
		}

		q.InsertedAt = time.Now().UTC()
		q.UpdatedAt = q.InsertedAt

		if err := tx.Set(makeCustomerQueryKey(q.Id), storage.MarshalCustomerQuery(q)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return q, err
}

// ListCustomerQueries retrieves queries, optionally filtered by status.
// Pass status 0 for all.
func (r *QueryRepository) ListCustomerQueries(ctx context.Context, status core.QueryStatus) ([]*core.CustomerQuery, error) {
	var results []*core.CustomerQuery
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(queryRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var q *core.CustomerQuery
			err := iter.Item().Value(func(val []byte) error {
				var err error
				q, err = storage.UnmarshalCustomerQuery(val)
				return err
			})
			if err != nil {
				return err
			}
			if q == nil {
				continue
			}
			if status != 0 && q.Status != status {
				continue
			}
			results = append(results, q)
		}
		return nil
	}, false)
	return results, err
}

// SetCustomerQueryStatus updates the follow-up state of a query.
func (r *QueryRepository) SetCustomerQueryStatus(ctx context.Context, id core.ID, status core.QueryStatus) error {
	if err := core.ValidateQueryStatus(status); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeCustomerQueryKey(id)
		item, err := tx.Get(key)
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		var q *core.CustomerQuery
		if err := item.Value(func(val []byte) error {
			var err error
			q, err = storage.UnmarshalCustomerQuery(val)
			return err
		}); err != nil {
			return err
		}

		q.Status = status
		q.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalCustomerQuery(q)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
