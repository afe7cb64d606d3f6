package docqa

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docqa/ai/mock"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/reembed"
)

func newTestDatabase(t *testing.T, dir string) *Database {
	t.Helper()

	db, err := NewDatabase(dir, WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})
	return db
}

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(tmpDir, WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		assert.NotNil(t, db.DocumentRepository())
		assert.NotNil(t, db.ChunkRepository())
		assert.NotNil(t, db.QueryRepository())
		assert.NotNil(t, db.logger)
	})

	t.Run("in-memory database", func(t *testing.T) {
		db, err := NewDatabase("", WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		require.NotNil(t, db)
		assert.NoError(t, db.Close())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// A file where the store directory should be.
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0644))

		db, err := NewDatabase(tmpFile, WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}

func TestDatabaseEndToEnd(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t, "")

	doc, err := db.AddDocument(ctx, &core.Document{
		Filename:  "returns.txt",
		MediaType: "text/plain",
	}, []byte("Returns are accepted within thirty days of purchase. Refunds are issued to the original payment method within five business days."))
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, doc.Status)

	docs, err := db.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	t.Run("ask and cache", func(t *testing.T) {
		result, err := db.Ask(ctx, "What is the return window?", core.RoleOwner)
		require.NoError(t, err)
		assert.False(t, result.Cached)
		assert.False(t, result.NoAnswer)
		assert.NotEmpty(t, result.Sources)
		assert.Equal(t, doc.Id, result.Sources[0].DocumentId)

		again, err := db.Ask(ctx, "What is the return window?", core.RoleOwner)
		require.NoError(t, err)
		assert.True(t, again.Cached)
		assert.Equal(t, result.Text, again.Text)
	})

	t.Run("search", func(t *testing.T) {
		ranked, err := db.Search(ctx, "refund payment method", core.RoleOwner)
		require.NoError(t, err)
		require.NotEmpty(t, ranked)
		assert.Equal(t, doc.Id, ranked[0].Chunk.DocumentId)
	})

	t.Run("customer queries", func(t *testing.T) {
		q, err := db.CaptureQuery(ctx, "Do you ship to Iceland?", "Jo Smith", "jo@example.com")
		require.NoError(t, err)
		assert.Equal(t, core.QueryPending, q.Status)

		require.NoError(t, db.SetCustomerQueryStatus(ctx, q.Id, core.QueryResponded))

		responded, err := db.ListCustomerQueries(ctx, core.QueryResponded)
		require.NoError(t, err)
		require.Len(t, responded, 1)
		assert.Equal(t, "jo@example.com", responded[0].ContactEmail)
	})

	t.Run("prune cache", func(t *testing.T) {
		// Entries are fresh, nothing qualifies for eviction.
		pruned, err := db.PruneCache(ctx)
		require.NoError(t, err)
		assert.Zero(t, pruned)
	})

	t.Run("reembed", func(t *testing.T) {
		updated, err := db.Reembed(ctx, reembed.DefaultConfig(), io.Discard)
		require.NoError(t, err)
		assert.Positive(t, updated)
	})

	t.Run("delete document", func(t *testing.T) {
		require.NoError(t, db.DeleteDocument(ctx, doc.Id))

		ranked, err := db.Search(ctx, "refund payment method", core.RoleOwner)
		require.NoError(t, err)
		assert.Empty(t, ranked)
	})
}

func TestDatabasePersistence(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "docqa_db")

	db, err := NewDatabase(dir, WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)

	doc, err := db.AddDocument(ctx, &core.Document{
		Filename:  "hours.txt",
		MediaType: "text/plain",
	}, []byte("The showroom is open Monday through Saturday from nine to six."))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reopened, err := NewDatabase(dir, WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, loaded.Status)

	ranked, err := reopened.Search(ctx, "showroom hours", core.RoleOwner)
	require.NoError(t, err)
	assert.NotEmpty(t, ranked)
}

func TestDatabaseRoleVisibility(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t, "")

	_, err := db.AddDocument(ctx, &core.Document{
		Filename:  "internal.txt",
		MediaType: "text/plain",
		VisibleTo: core.NewRoleSet(core.RoleStaff),
	}, []byte("Staff discount codes rotate on the first of every month."))
	require.NoError(t, err)

	ranked, err := db.Search(ctx, "discount codes", core.RoleExternal)
	require.NoError(t, err)
	assert.Empty(t, ranked)

	ranked, err = db.Search(ctx, "discount codes", core.RoleStaff)
	require.NoError(t, err)
	assert.NotEmpty(t, ranked)
}
