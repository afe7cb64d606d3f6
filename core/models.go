package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// CacheEntryID derives the identity of a cache entry from its (question, role)
// pair. The same question asked under the same role always maps to the same
// entry, which is what makes cache saves upserts rather than inserts.
func CacheEntryID(question string, role Role) ID {
	return IDFromContent(role.String() + "\x1f" + question)
}

// Document represents an uploaded file that has been (or is being) prepared
// for retrieval. The raw bytes live in external storage; StorageRef points at
// them. Status tracks progress through the ingestion pipeline.
type Document struct {
	Id           ID
	Filename     string
	Size         int64
	MediaType    string
	StorageRef   string
	Status       DocumentStatus
	ErrorMessage string  // populated only when Status is StatusFailed
	VisibleTo    RoleSet // always includes RoleOwner
	InsertedAt   time.Time
	UpdatedAt    time.Time
}

// Chunk is a contiguous passage of a document's text, the unit of retrieval.
// Chunks are immutable once created and are destroyed only by cascading
// document deletion.
type Chunk struct {
	Id         ID
	DocumentId ID
	Index      uint32 // zero-based position within the document
	Content    string
	Metadata   map[string]string
	InsertedAt time.Time
}

// Embedding is the fixed-dimension vector representation of exactly one
// chunk. It is never mutated in place, only replaced by delete+reinsert.
type Embedding struct {
	ChunkId    ID
	Vector     []float32
	InsertedAt time.Time
}

// SourceRef points at a chunk that contributed to a generated answer.
type SourceRef struct {
	DocumentId ID
	ChunkId    ID
}

// CacheEntry stores a previously generated answer together with the
// embedding of the question that produced it. Lookups are similarity-based;
// saves are keyed on the exact (question, role) pair.
type CacheEntry struct {
	Id         ID
	Question   string
	Role       Role
	Vector     []float32
	Answer     string
	Sources    []SourceRef
	HitCount   uint32
	LastHitAt  time.Time
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// CustomerQuery captures an external-role question the system could not
// answer, along with contact details for a human follow-up.
type CustomerQuery struct {
	Id           ID
	Question     string
	ContactName  string
	ContactEmail string
	Status       QueryStatus
	InsertedAt   time.Time
	UpdatedAt    time.Time
}

// ChunkMatch is a single hit from one retrieval signal (semantic or keyword).
// Scores are normalized to [0, 1] by the producing side.
type ChunkMatch struct {
	ChunkId ID
	Score   float32
}

// MatchSource tags which retrieval signal(s) produced a ranked chunk.
type MatchSource string

const (
	// MatchSemantic marks a chunk found only by vector similarity.
	MatchSemantic MatchSource = "semantic"
	// MatchKeyword marks a chunk found only by the inverted index.
	MatchKeyword MatchSource = "keyword"
	// MatchHybrid marks a chunk found by both signals.
	MatchHybrid MatchSource = "hybrid"
)

// RankedChunk is a fused search result with the full chunk hydrated.
type RankedChunk struct {
	Chunk  *Chunk
	Score  float32
	Source MatchSource
}
