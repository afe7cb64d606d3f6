package badger

import (
	"bytes"
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

// CacheRepository implements storage.CacheRepository for BadgerDB.
// A secondary role index supports role-scoped scans.
type CacheRepository struct {
	backend *Backend
}

var _ storage.CacheRepository = (*CacheRepository)(nil)

// NewCacheRepository creates a new CacheRepository.
func NewCacheRepository(backend *Backend) *CacheRepository {
	return &CacheRepository{backend: backend}
}

// Close is a no-op; the repository holds no resources of its own.
func (r *CacheRepository) Close() error {
	return nil
}

// PutEntry inserts or overwrites a cache entry under its ID.
func (r *CacheRepository) PutEntry(ctx context.Context, entry *core.CacheEntry) error {
	if err := core.ValidateCacheEntry(entry); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeCacheEntryKey(entry.Id)
		now := time.Now().UTC()

		existing, err := readCacheEntry(tx, key)
		if err != nil {
			return err
		}
		if existing == nil {
			entry.InsertedAt = now
		} else {
			entry.InsertedAt = existing.InsertedAt
		}
		entry.UpdatedAt = now

		if err := tx.Set(key, storage.MarshalCacheEntry(entry)); err != nil {
			return err
		}
		if err := tx.Set(makeCacheRoleKey(entry.Role, entry.Id), storage.MarshalID(entry.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetEntry retrieves a cache entry by ID.
func (r *CacheRepository) GetEntry(ctx context.Context, id core.ID) (*core.CacheEntry, error) {
	var result *core.CacheEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readCacheEntry(tx, makeCacheEntryKey(id))
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

// TouchEntry increments an entry's hit count and refreshes LastHitAt.
func (r *CacheRepository) TouchEntry(ctx context.Context, id core.ID, at time.Time) (*core.CacheEntry, error) {
	var result *core.CacheEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeCacheEntryKey(id)
		entry, err := readCacheEntry(tx, key)
		if err != nil {
			return err
		}
		if entry == nil {
			return storage.ErrNotFound
		}

		entry.HitCount++
		entry.LastHitAt = at.UTC()
		entry.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalCacheEntry(entry)); err != nil {
			return err
		}
		result = entry
		return tx.Commit()
	}, true)
	return result, err
}

// EntriesByRole retrieves all entries scoped to role via the role index.
func (r *CacheRepository) EntriesByRole(ctx context.Context, role core.Role) ([]*core.CacheEntry, error) {
	if err := core.ValidateRole(role); err != nil {
		return nil, err
	}

	var results []*core.CacheEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialCacheRoleKey(role)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			k := iter.Item().Key()
			if len(k) < len(startKey) || !bytes.Equal(k[:len(startKey)], startKey) {
				break
			}
			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}
			entry, err := readCacheEntry(tx, makeCacheEntryKey(id))
			if err != nil {
				return err
			}
			if entry != nil {
				results = append(results, entry)
			}
		}
		return nil
	}, false)
	return results, err
}

// ListEntries retrieves all entries across roles.
func (r *CacheRepository) ListEntries(ctx context.Context) ([]*core.CacheEntry, error) {
	var results []*core.CacheEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(cacheRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var entry *core.CacheEntry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalCacheEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			if entry != nil {
				results = append(results, entry)
			}
		}
		return nil
	}, false)
	return results, err
}

// DeleteEntries removes entries by ID. Missing IDs are ignored.
func (r *CacheRepository) DeleteEntries(ctx context.Context, ids ...core.ID) error {
	if len(ids) == 0 {
		return nil
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeCacheEntryKey(id)
			entry, err := readCacheEntry(tx, key)
			if err != nil {
				return err
			}
			if entry == nil {
				continue
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
			if err := tx.Delete(makeCacheRoleKey(entry.Role, id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// readCacheEntry reads a cache entry from the transaction.
// Returns nil without error when the key is absent.
func readCacheEntry(tx *badger.Txn, key []byte) (*core.CacheEntry, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var entry *core.CacheEntry
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		entry, unmarshalErr = storage.UnmarshalCacheEntry(val)
		return unmarshalErr
	})
	return entry, err
}
