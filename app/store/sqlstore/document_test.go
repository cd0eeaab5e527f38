package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/prodpilot/prodpilot/pkg/types"
	"github.com/prodpilot/prodpilot/pkg/utils"
)

func TestDocumentDeleteCascadesChunks(t *testing.T) {
	provider := setupTestProvider(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()

	kb := seedKnowledgeBase(t, provider)
	doc := seedDocument(t, provider, kb)

	err := provider.stores.ChunkStore.BatchCreate(ctx, []*types.Chunk{
		{ID: utils.GenRandomID(), KnowledgeBaseID: kb, DocumentID: doc, Position: 0, Content: "a", Embedding: testVector(0.1)},
		{ID: utils.GenRandomID(), KnowledgeBaseID: kb, DocumentID: doc, Position: 1, Content: "b", Embedding: testVector(0.2)},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err = provider.stores.DocumentStore.Delete(ctx, kb, doc); err != nil {
		t.Fatal(err)
	}

	total, err := provider.stores.ChunkStore.Total(ctx, types.GetChunksOptions{DocumentID: doc})
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Fatalf("expected chunks removed with their document, got %d", total)
	}

	res, err := provider.stores.ChunkStore.Search(ctx, kb, testVector(0.1), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 0 {
		t.Fatalf("expected no retrievable chunks after document delete, got %d", len(res))
	}
}

func TestDocumentMarkFailed(t *testing.T) {
	provider := setupTestProvider(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()

	kb := seedKnowledgeBase(t, provider)
	doc := seedDocument(t, provider, kb)

	err := provider.stores.ChunkStore.BatchCreate(ctx, []*types.Chunk{
		{ID: utils.GenRandomID(), KnowledgeBaseID: kb, DocumentID: doc, Position: 0, Content: "partial", Embedding: testVector(0.4)},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err = provider.stores.ChunkStore.DeleteByDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	if err = provider.stores.DocumentStore.MarkFailed(ctx, doc, "embedding provider unavailable"); err != nil {
		t.Fatal(err)
	}

	got, err := provider.stores.DocumentStore.Get(ctx, kb, doc)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != types.DOCUMENT_STATUS_ERROR {
		t.Fatalf("expected status error, got %s", got.Status)
	}
	if got.Error != "embedding provider unavailable" {
		t.Fatalf("unexpected error message: %s", got.Error)
	}
	if got.ChunkCount != 0 {
		t.Fatalf("expected chunk_count reset to 0, got %d", got.ChunkCount)
	}

	res, err := provider.stores.ChunkStore.Search(ctx, kb, testVector(0.4), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 0 {
		t.Fatalf("expected no retrievable chunks for failed document, got %d", len(res))
	}
}

func TestDocumentGetForUpdate(t *testing.T) {
	provider := setupTestProvider(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()

	kb := seedKnowledgeBase(t, provider)
	doc := seedDocument(t, provider, kb)

	err := provider.Transaction(ctx, func(txCtx context.Context) error {
		got, err := provider.stores.DocumentStore.GetForUpdate(txCtx, doc)
		if err != nil {
			return err
		}
		if got.ID != doc || got.KnowledgeBaseID != kb {
			t.Fatalf("locked read returned wrong row: %s/%s", got.KnowledgeBaseID, got.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	err = provider.Transaction(ctx, func(txCtx context.Context) error {
		_, err := provider.stores.DocumentStore.GetForUpdate(txCtx, utils.GenRandomID())
		return err
	})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows for missing document, got %v", err)
	}
}
