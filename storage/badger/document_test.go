package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

func newTestRepositories(t *testing.T) *Repositories {
	t.Helper()
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	t.Cleanup(func() {
		repos.Close()
	})
	return repos
}

func TestDocumentBasics(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	doc := &core.Document{
		Filename:  "handbook.pdf",
		Size:      2048,
		MediaType: "application/pdf",
		VisibleTo: core.NewRoleSet(core.RoleStaff),
	}

	added, err := repos.Documents.AddDocument(ctx, doc)
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}
	if added.Id == 0 {
		t.Fatal("Expected non-zero ID")
	}
	if added.Status != core.StatusProcessing {
		t.Fatalf("Expected processing status, got %s", added.Status)
	}
	if !added.VisibleTo.Has(core.RoleOwner) {
		t.Fatal("Expected owner to be included in visibility set")
	}

	retrieved, err := repos.Documents.GetDocument(ctx, added.Id)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if retrieved.Filename != "handbook.pdf" {
		t.Fatalf("Expected 'handbook.pdf', got '%s'", retrieved.Filename)
	}

	if _, err := repos.Documents.GetDocument(ctx, 99999); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestDocumentStatusTransitions(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	doc, err := repos.Documents.AddDocument(ctx, &core.Document{
		Filename:  "notes.txt",
		MediaType: "text/plain",
	})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	// Cannot skip chunks_created.
	err = repos.Documents.SetDocumentStatus(ctx, doc.Id, core.StatusCompleted, "")
	if !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("Expected ErrInvalidTransition, got %v", err)
	}

	if err := repos.Documents.SetDocumentStatus(ctx, doc.Id, core.StatusChunksCreated, ""); err != nil {
		t.Fatalf("Failed to set chunks_created: %v", err)
	}
	if err := repos.Documents.SetDocumentStatus(ctx, doc.Id, core.StatusCompleted, ""); err != nil {
		t.Fatalf("Failed to set completed: %v", err)
	}

	// Completed is terminal.
	err = repos.Documents.SetDocumentStatus(ctx, doc.Id, core.StatusFailed, "too late")
	if !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("Expected ErrInvalidTransition from completed, got %v", err)
	}
}

func TestDocumentFailureMessage(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	doc, err := repos.Documents.AddDocument(ctx, &core.Document{
		Filename:  "broken.txt",
		MediaType: "text/plain",
	})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	if err := repos.Documents.SetDocumentStatus(ctx, doc.Id, core.StatusFailed, "embedding provider unreachable"); err != nil {
		t.Fatalf("Failed to set failed: %v", err)
	}

	retrieved, err := repos.Documents.GetDocument(ctx, doc.Id)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if retrieved.ErrorMessage != "embedding provider unreachable" {
		t.Fatalf("Expected error message to be stored, got '%s'", retrieved.ErrorMessage)
	}

	// Retry clears the message.
	if err := repos.Documents.SetDocumentStatus(ctx, doc.Id, core.StatusProcessing, ""); err != nil {
		t.Fatalf("Failed to re-enter processing: %v", err)
	}
	retrieved, err = repos.Documents.GetDocument(ctx, doc.Id)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if retrieved.ErrorMessage != "" {
		t.Fatalf("Expected error message cleared, got '%s'", retrieved.ErrorMessage)
	}
}

func TestVisibleDocumentIDs(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	complete := func(id core.ID) {
		t.Helper()
		if err := repos.Documents.SetDocumentStatus(ctx, id, core.StatusChunksCreated, ""); err != nil {
			t.Fatalf("Failed to set chunks_created: %v", err)
		}
		if err := repos.Documents.SetDocumentStatus(ctx, id, core.StatusCompleted, ""); err != nil {
			t.Fatalf("Failed to set completed: %v", err)
		}
	}

	staffDoc, err := repos.Documents.AddDocument(ctx, &core.Document{
		Filename:  "internal.txt",
		MediaType: "text/plain",
		VisibleTo: core.NewRoleSet(core.RoleStaff),
	})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}
	complete(staffDoc.Id)

	publicDoc, err := repos.Documents.AddDocument(ctx, &core.Document{
		Filename:  "faq.txt",
		MediaType: "text/plain",
		VisibleTo: core.NewRoleSet(core.RoleStaff, core.RoleExternal),
	})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}
	complete(publicDoc.Id)

	// Still processing, never visible.
	if _, err := repos.Documents.AddDocument(ctx, &core.Document{
		Filename:  "pending.txt",
		MediaType: "text/plain",
		VisibleTo: core.NewRoleSet(core.RoleExternal),
	}); err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	ownerIDs, err := repos.Documents.VisibleDocumentIDs(ctx, core.RoleOwner)
	if err != nil {
		t.Fatalf("Failed to list owner-visible IDs: %v", err)
	}
	if len(ownerIDs) != 2 {
		t.Fatalf("Expected owner to see 2 documents, got %d", len(ownerIDs))
	}

	externalIDs, err := repos.Documents.VisibleDocumentIDs(ctx, core.RoleExternal)
	if err != nil {
		t.Fatalf("Failed to list external-visible IDs: %v", err)
	}
	if len(externalIDs) != 1 || externalIDs[0] != publicDoc.Id {
		t.Fatalf("Expected external to see only the public document, got %v", externalIDs)
	}
}

func TestDeleteDocumentCascades(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	doc, err := repos.Documents.AddDocument(ctx, &core.Document{
		Filename:  "guide.txt",
		MediaType: "text/plain",
	})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	chunks := []*core.Chunk{
		{Index: 0, Content: "refund policy allows returns within thirty days"},
		{Index: 1, Content: "shipping is free for orders above fifty dollars"},
	}
	ids, err := repos.Chunks.PutChunks(ctx, doc.Id, chunks)
	if err != nil {
		t.Fatalf("Failed to put chunks: %v", err)
	}
	if err := repos.Chunks.PutEmbedding(ctx, ids[0], []float32{0.1, 0.2}); err != nil {
		t.Fatalf("Failed to put embedding: %v", err)
	}

	if err := repos.Documents.DeleteDocument(ctx, doc.Id); err != nil {
		t.Fatalf("Failed to delete document: %v", err)
	}

	if _, err := repos.Documents.GetDocument(ctx, doc.Id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected document gone, got %v", err)
	}
	if _, err := repos.Chunks.GetChunk(ctx, ids[0]); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected chunk gone, got %v", err)
	}
	if _, err := repos.Chunks.GetEmbedding(ctx, ids[0]); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected embedding gone, got %v", err)
	}

	matches, err := repos.Keyword.Search(ctx, "refund", []core.ID{doc.Id}, 10)
	if err != nil {
		t.Fatalf("Keyword search failed: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("Expected keyword entries gone, got %d matches", len(matches))
	}
}
