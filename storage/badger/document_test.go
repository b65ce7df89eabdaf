package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

func TestDocumentBasics(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	doc := &core.Document{
		OwnerId:  42,
		Title:    "Quarterly Report",
		FileType: "pdf",
		Content:  "revenue went up",
	}

	added, err := repos.Documents.AddDocument(ctx, doc)
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}
	if added.Id == 0 {
		t.Fatal("Expected non-zero ID")
	}
	if added.InsertedAt.IsZero() {
		t.Fatal("Expected InsertedAt to be set")
	}

	retrieved, err := repos.Documents.GetDocument(ctx, added.Id)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if retrieved.Title != "Quarterly Report" {
		t.Fatalf("Expected 'Quarterly Report', got '%s'", retrieved.Title)
	}

	if _, err := repos.Documents.GetDocument(ctx, 9999); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestDocumentOwnerIndex(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	for _, title := range []string{"a", "b", "c"} {
		if _, err := repos.Documents.AddDocument(ctx, &core.Document{OwnerId: 1, Title: title, FileType: "txt"}); err != nil {
			t.Fatalf("Failed to add document: %v", err)
		}
	}
	if _, err := repos.Documents.AddDocument(ctx, &core.Document{OwnerId: 2, Title: "other", FileType: "txt"}); err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	docs, err := repos.Documents.GetDocumentsByOwner(ctx, 1)
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("Expected 3 documents for owner 1, got %d", len(docs))
	}
	for _, doc := range docs {
		if doc.OwnerId != 1 {
			t.Fatalf("Owner index leaked document owned by %d", doc.OwnerId)
		}
	}
}

func TestDocumentCollectionReassign(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	doc, err := repos.Documents.AddDocument(ctx, &core.Document{OwnerId: 1, Title: "doc", FileType: "txt", CollectionId: 10})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	ids, err := repos.Documents.GetDocumentIdsByCollection(ctx, 1, 10)
	if err != nil {
		t.Fatalf("Failed to query collection: %v", err)
	}
	if len(ids) != 1 || ids[0] != doc.Id {
		t.Fatalf("Expected [%d], got %v", doc.Id, ids)
	}

	if err := repos.Documents.ReassignCollection(ctx, doc.Id, 20); err != nil {
		t.Fatalf("Failed to reassign collection: %v", err)
	}

	ids, err = repos.Documents.GetDocumentIdsByCollection(ctx, 1, 10)
	if err != nil {
		t.Fatalf("Failed to query collection: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("Expected old collection to be empty, got %v", ids)
	}

	ids, err = repos.Documents.GetDocumentIdsByCollection(ctx, 1, 20)
	if err != nil {
		t.Fatalf("Failed to query collection: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("Expected 1 document in new collection, got %d", len(ids))
	}

	updated, err := repos.Documents.GetDocument(ctx, doc.Id)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if updated.CollectionId != 20 {
		t.Fatalf("Expected CollectionId 20, got %d", updated.CollectionId)
	}
}

func TestChunkOrderingAndDuplicates(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	doc, err := repos.Documents.AddDocument(ctx, &core.Document{OwnerId: 1, Title: "doc", FileType: "txt"})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	// Insert out of order; reads must come back in index order.
	for _, idx := range []int{2, 0, 1} {
		chunk := &core.DocumentChunk{DocumentId: doc.Id, ChunkIndex: idx, Content: "chunk", Vector: []float32{1, 0}}
		if _, err := repos.Documents.AddChunk(ctx, chunk); err != nil {
			t.Fatalf("Failed to add chunk %d: %v", idx, err)
		}
	}

	chunks, err := repos.Documents.GetChunksByDocument(ctx, doc.Id)
	if err != nil {
		t.Fatalf("Failed to get chunks: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.ChunkIndex != i {
			t.Fatalf("Expected chunk index %d at position %d, got %d", i, i, chunk.ChunkIndex)
		}
	}

	// Repeated index must be rejected.
	dup := &core.DocumentChunk{DocumentId: doc.Id, ChunkIndex: 1, Content: "dup"}
	if _, err := repos.Documents.AddChunk(ctx, dup); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestDeleteDocumentCascades(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	doc, err := repos.Documents.AddDocument(ctx, &core.Document{OwnerId: 1, Title: "doc", FileType: "txt"})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := repos.Documents.AddChunk(ctx, &core.DocumentChunk{DocumentId: doc.Id, ChunkIndex: i, Content: "c"}); err != nil {
			t.Fatalf("Failed to add chunk: %v", err)
		}
	}

	if err := repos.Documents.DeleteDocument(ctx, doc.Id); err != nil {
		t.Fatalf("Failed to delete document: %v", err)
	}

	if _, err := repos.Documents.GetDocument(ctx, doc.Id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after delete, got %v", err)
	}
	chunks, err := repos.Documents.GetChunksByDocument(ctx, doc.Id)
	if err != nil {
		t.Fatalf("Failed to get chunks: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("Expected chunks to be cascaded, got %d", len(chunks))
	}
}

func TestFindSimilarChunks(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	doc, err := repos.Documents.AddDocument(ctx, &core.Document{OwnerId: 1, Title: "doc", FileType: "txt"})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}
	other, err := repos.Documents.AddDocument(ctx, &core.Document{OwnerId: 2, Title: "foreign", FileType: "txt"})
	if err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	chunks := []*core.DocumentChunk{
		{DocumentId: doc.Id, ChunkIndex: 0, Content: "aligned", Vector: []float32{1, 0, 0}},
		{DocumentId: doc.Id, ChunkIndex: 1, Content: "close", Vector: []float32{0.9, 0.1, 0}},
		{DocumentId: doc.Id, ChunkIndex: 2, Content: "orthogonal", Vector: []float32{0, 1, 0}},
		{DocumentId: doc.Id, ChunkIndex: 3, Content: "wrong dims", Vector: []float32{1, 0}},
		{DocumentId: other.Id, ChunkIndex: 0, Content: "not yours", Vector: []float32{1, 0, 0}},
	}
	for _, chunk := range chunks {
		if _, err := repos.Documents.AddChunk(ctx, chunk); err != nil {
			t.Fatalf("Failed to add chunk: %v", err)
		}
	}

	results, scores, err := repos.Documents.FindSimilarChunks(ctx, storage.VectorQuery{
		OwnerId:       1,
		Vector:        []float32{1, 0, 0},
		MinSimilarity: 0.6,
		Limit:         10,
	})
	if err != nil {
		t.Fatalf("Failed to find similar chunks: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Content != "aligned" {
		t.Fatalf("Expected best match first, got '%s'", results[0].Content)
	}
	if scores[0] < scores[1] {
		t.Fatal("Expected scores in descending order")
	}
	for _, chunk := range results {
		if chunk.DocumentId == other.Id {
			t.Fatal("Scan returned a chunk from another owner's document")
		}
	}

	// Restricting to a foreign document yields nothing.
	results, _, err = repos.Documents.FindSimilarChunks(ctx, storage.VectorQuery{
		OwnerId:       1,
		Vector:        []float32{1, 0, 0},
		MinSimilarity: 0.6,
		Limit:         10,
		DocumentIds:   []core.ID{other.Id},
	})
	if err != nil {
		t.Fatalf("Failed to find similar chunks: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("Expected no results for foreign document, got %d", len(results))
	}
}
