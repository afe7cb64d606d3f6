package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/docqa/core"
)

// Key prefixes for different data types
const (
	docRecordPrefix   = "docrec"
	docRecordIDSeq    = "docrecseq"
	chunkRecordPrefix = "churec"
	chunkRecordIDSeq  = "churecseq"
	chunkDocPrefix    = "chudoc"
	embeddingPrefix   = "embrec"
	cacheRecordPrefix = "cacrec"
	cacheRolePrefix   = "cacrol"
	queryRecordPrefix = "qryrec"
	queryRecordIDSeq  = "qryrecseq"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", docRecordPrefix, id))
}

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkRecordPrefix, id))
}

// makeEmbeddingKey generates a key for a chunk's embedding.
func makeEmbeddingKey(chunkID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", embeddingPrefix, chunkID))
}

// makeChunkDocKey generates a composite key for the document->chunk index.
// Format: prefix:documentID:chunkID
func makeChunkDocKey(documentID, chunkID core.ID) []byte {
	prefix := chunkDocPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(chunkID))
	return buf
}

// makePartialChunkDocKey generates a partial key for scanning one
// document's chunks.
func makePartialChunkDocKey(documentID core.ID) []byte {
	prefix := chunkDocPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	return buf
}

// makeCacheEntryKey generates a key for a cache entry by ID.
func makeCacheEntryKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", cacheRecordPrefix, id))
}

// makeCacheRoleKey generates a composite key for the role->entry index.
// Format: prefix:role:entryID
func makeCacheRoleKey(role core.Role, id core.ID) []byte {
	prefix := cacheRolePrefix + ":"
	buf := make([]byte, len(prefix)+9)
	offset := copy(buf, prefix)
	buf[offset] = byte(role)
	offset++
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialCacheRoleKey generates a partial key for scanning one role's
// cache entries.
func makePartialCacheRoleKey(role core.Role) []byte {
	prefix := cacheRolePrefix + ":"
	buf := make([]byte, len(prefix)+1)
	offset := copy(buf, prefix)
	buf[offset] = byte(role)
	return buf
}

// makeCustomerQueryKey generates a key for a customer query by ID.
func makeCustomerQueryKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", queryRecordPrefix, id))
}
