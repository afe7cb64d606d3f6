package keyword

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/blevesearch/bleve"
	keywordanalyzer "github.com/blevesearch/bleve/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/mapping"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

// scoreScale converts a raw full-text rank into the shared [0, 1] score
// space: raw score times 2, capped at 1.
const scoreScale = 2.0

// chunkDoc is the shape indexed per chunk.
type chunkDoc struct {
	Content    string `json:"content"`
	DocumentID string `json:"document_id"`
}

// Index is a bleve-backed inverted index over chunk content.
// It implements storage.KeywordSearcher.
type Index struct {
	idx    bleve.Index
	logger *slog.Logger
}

var _ storage.KeywordSearcher = (*Index)(nil)

// Open opens the keyword index at path, creating it if absent.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, buildMapping())
	}
	if err != nil {
		return nil, err
	}
	return &Index{idx: idx, logger: slog.Default().With("component", "keyword-index")}, nil
}

// OpenMemory creates an in-memory keyword index, used in tests.
func OpenMemory() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, err
	}
	return &Index{idx: idx, logger: slog.Default().With("component", "keyword-index")}, nil
}

func buildMapping() mapping.IndexMapping {
	content := bleve.NewTextFieldMapping()

	// Document IDs are filter terms, never analyzed text.
	docID := bleve.NewTextFieldMapping()
	docID.Analyzer = keywordanalyzer.Name

	chunk := bleve.NewDocumentMapping()
	chunk.AddFieldMappingsAt("content", content)
	chunk.AddFieldMappingsAt("document_id", docID)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = chunk
	return im
}

// IndexChunks adds a batch of chunks to the index.
func (ix *Index) IndexChunks(chunks ...*core.Chunk) error {
	batch := ix.idx.NewBatch()
	for _, chunk := range chunks {
		doc := chunkDoc{
			Content:    chunk.Content,
			DocumentID: formatID(chunk.DocumentId),
		}
		if err := batch.Index(formatID(chunk.Id), doc); err != nil {
			return err
		}
	}
	return ix.idx.Batch(batch)
}

// DeleteChunks removes chunks from the index.
func (ix *Index) DeleteChunks(ids ...core.ID) error {
	batch := ix.idx.NewBatch()
	for _, id := range ids {
		batch.Delete(formatID(id))
	}
	return ix.idx.Batch(batch)
}

// Search returns chunks of the given documents matching the query text.
// Scores are normalized to [0, 1]. An empty document set yields no results;
// all lookups are scoped to the caller-supplied access filter.
func (ix *Index) Search(ctx context.Context, query string, documentIds []core.ID, limit int) ([]core.ChunkMatch, error) {
	if len(documentIds) == 0 || query == "" {
		return nil, nil
	}

	match := bleve.NewMatchQuery(query)
	match.SetField("content")

	scope := bleve.NewDisjunctionQuery()
	for _, docID := range documentIds {
		term := bleve.NewTermQuery(formatID(docID))
		term.SetField("document_id")
		scope.AddQuery(term)
	}

	req := bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(match, scope), limit, 0, false)
	res, err := ix.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, err
	}

	matches := make([]core.ChunkMatch, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := parseID(hit.ID)
		if err != nil {
			ix.logger.Warn("skipping hit with malformed id", "id", hit.ID, "err", err)
			continue
		}
		matches = append(matches, core.ChunkMatch{
			ChunkId: id,
			Score:   normalizeScore(hit.Score),
		})
	}
	return matches, nil
}

// Close closes the underlying bleve index.
func (ix *Index) Close() error {
	return ix.idx.Close()
}

func normalizeScore(raw float64) float32 {
	scaled := raw * scoreScale
	if scaled > 1.0 {
		scaled = 1.0
	}
	return float32(scaled)
}

func formatID(id core.ID) string {
	return strconv.FormatUint(uint64(id), 10)
}

func parseID(s string) (core.ID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	return core.ID(v), err
}
