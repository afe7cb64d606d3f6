package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validDocument() *Document {
	return &Document{
		Filename:  "handbook.txt",
		Size:      1024,
		MediaType: "text/plain",
		Status:    StatusProcessing,
		VisibleTo: NewRoleSet(RoleStaff),
	}
}

func TestValidateDocument(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateDocument(validDocument()))
	})

	t.Run("nil", func(t *testing.T) {
		assert.ErrorIs(t, ValidateDocument(nil), ErrInvalidDocument)
	})

	t.Run("missing filename", func(t *testing.T) {
		doc := validDocument()
		doc.Filename = ""
		assert.ErrorIs(t, ValidateDocument(doc), ErrEmptyFilename)
	})

	t.Run("unknown status", func(t *testing.T) {
		doc := validDocument()
		doc.Status = DocumentStatus(99)
		assert.ErrorIs(t, ValidateDocument(doc), ErrInvalidStatus)
	})

	t.Run("owner must be visible", func(t *testing.T) {
		doc := validDocument()
		doc.VisibleTo = 0
		assert.ErrorIs(t, ValidateDocument(doc), ErrInvalidDocument)
	})
}

func TestValidateChunk(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateChunk(&Chunk{DocumentId: 1, Content: "some passage"}))
	})

	t.Run("whitespace-only content", func(t *testing.T) {
		err := ValidateChunk(&Chunk{DocumentId: 1, Content: "  \n\t "})
		assert.ErrorIs(t, err, ErrEmptyContent)
	})

	t.Run("missing document", func(t *testing.T) {
		assert.ErrorIs(t, ValidateChunk(&Chunk{Content: "text"}), ErrInvalidChunk)
	})
}

func TestValidateCacheEntry(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		entry := &CacheEntry{
			Question: "What is the refund policy?",
			Role:     RoleExternal,
			Vector:   []float32{0.1, 0.2},
			Answer:   "Thirty days.",
		}
		assert.NoError(t, ValidateCacheEntry(entry))
	})

	t.Run("empty question", func(t *testing.T) {
		entry := &CacheEntry{Question: " ", Role: RoleExternal, Vector: []float32{0.1}}
		assert.ErrorIs(t, ValidateCacheEntry(entry), ErrEmptyQuestion)
	})

	t.Run("missing vector", func(t *testing.T) {
		entry := &CacheEntry{Question: "q", Role: RoleExternal}
		assert.ErrorIs(t, ValidateCacheEntry(entry), ErrInvalidCacheEntry)
	})

	t.Run("bad role", func(t *testing.T) {
		entry := &CacheEntry{Question: "q", Role: Role(42), Vector: []float32{0.1}}
		assert.ErrorIs(t, ValidateCacheEntry(entry), ErrInvalidRole)
	})
}
