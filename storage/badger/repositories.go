package badger

import (
	"errors"
	"path/filepath"

	"github.com/poiesic/docqa/storage"
	"github.com/poiesic/docqa/storage/keyword"
)

// Repositories bundles all BadgerDB-backed repositories sharing one
// backend and one keyword index.
type Repositories struct {
	Documents storage.DocumentRepository
	Chunks    storage.ChunkRepository
	Cache     storage.CacheRepository
	Queries   storage.QueryRepository
	Keyword   *keyword.Index

	backend *Backend
}

// OpenRepositories opens the record store and keyword index under dir and
// wires up all repositories.
func OpenRepositories(dir string) (*Repositories, error) {
	backend, err := OpenBackend(filepath.Join(dir, "records"), false)
	if err != nil {
		return nil, err
	}

	kw, err := keyword.Open(filepath.Join(dir, "keyword.bleve"))
	if err != nil {
		backend.Close()
		return nil, err
	}

	return newRepositories(backend, kw)
}

// NewMemoryRepositories wires up fully in-memory repositories, used in
// tests.
func NewMemoryRepositories() (*Repositories, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}

	kw, err := keyword.OpenMemory()
	if err != nil {
		backend.Close()
		return nil, err
	}

	return newRepositories(backend, kw)
}

func newRepositories(backend *Backend, kw *keyword.Index) (*Repositories, error) {
	documents, err := NewDocumentRepository(backend, kw)
	if err != nil {
		kw.Close()
		backend.Close()
		return nil, err
	}

	chunks, err := NewChunkRepository(backend, kw)
	if err != nil {
		documents.Close()
		kw.Close()
		backend.Close()
		return nil, err
	}

	queries, err := NewQueryRepository(backend)
	if err != nil {
		chunks.Close()
		documents.Close()
		kw.Close()
		backend.Close()
		return nil, err
	}

	return &Repositories{
		Documents: documents,
		Chunks:    chunks,
		Cache:     NewCacheRepository(backend),
		Queries:   queries,
		Keyword:   kw,
		backend:   backend,
	}, nil
}

// Close closes all repositories, the keyword index and the backend.
func (r *Repositories) Close() error {
	errs := []error{
		r.Documents.Close(),
		r.Chunks.Close(),
		r.Cache.Close(),
		r.Queries.Close(),
		r.Keyword.Close(),
		r.backend.Close(),
	}
	return errors.Join(errs...)
}
