package sqlstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/prodpilot/prodpilot/pkg/ai"
	"github.com/prodpilot/prodpilot/pkg/types"
	"github.com/prodpilot/prodpilot/pkg/utils"
)

type PGConfig struct {
	DSN string `toml:"dsn"`
}

func (m *PGConfig) FromENV() {
	m.DSN = os.Getenv("PRODPILOT_POSTGRESQL_DSN")
}

func (m PGConfig) FormatDSN() string {
	return m.DSN
}

func setupTestProvider(t *testing.T) *Provider {
	cfg := PGConfig{}
	cfg.FromENV()
	if cfg.DSN == "" {
		t.Skip("PRODPILOT_POSTGRESQL_DSN not set")
	}
	utils.SetupIDWorker(1)
	p := MustSetup(cfg)()
	if err := p.Install(); err != nil {
		t.Fatal(err)
	}
	return p
}

// seedKnowledgeBase 创建知识库行，清理时级联删除其文档与切片
func seedKnowledgeBase(t *testing.T, provider *Provider) string {
	t.Helper()
	id := utils.GenRandomID()
	err := provider.stores.KnowledgeBaseStore.Create(context.Background(), types.KnowledgeBase{
		ID:     id,
		Name:   "test kb",
		Status: types.KNOWLEDGE_BASE_STATUS_PENDING,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		provider.stores.KnowledgeBaseStore.Delete(nil, id)
	})
	return id
}

func seedDocument(t *testing.T, provider *Provider, kbID string) string {
	t.Helper()
	id := utils.GenRandomID()
	err := provider.stores.DocumentStore.Create(context.Background(), types.Document{
		ID:              id,
		KnowledgeBaseID: kbID,
		Name:            "doc.md",
		Source:          types.DOCUMENT_SOURCE_FILE_UPLOAD,
		Status:          types.DOCUMENT_STATUS_PENDING,
	})
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func testVector(seed float32) pgvector.Vector {
	v := make([]float32, ai.VectorDimension)
	v[0] = seed
	v[1] = 1 - seed
	return pgvector.NewVector(v)
}

func TestChunkSearchScopedToKnowledgeBase(t *testing.T) {
	provider := setupTestProvider(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()

	kbA, kbB := seedKnowledgeBase(t, provider), seedKnowledgeBase(t, provider)
	docA, docB := seedDocument(t, provider, kbA), seedDocument(t, provider, kbB)

	err := provider.stores.ChunkStore.BatchCreate(ctx, []*types.Chunk{
		{ID: utils.GenRandomID(), KnowledgeBaseID: kbA, DocumentID: docA, Position: 0, Content: "alpha", Embedding: testVector(0.9)},
		{ID: utils.GenRandomID(), KnowledgeBaseID: kbA, DocumentID: docA, Position: 1, Content: "beta", Embedding: testVector(0.5)},
		{ID: utils.GenRandomID(), KnowledgeBaseID: kbB, DocumentID: docB, Position: 0, Content: "other tenant", Embedding: testVector(0.9)},
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := provider.stores.ChunkStore.Search(ctx, kbA, testVector(0.9), 10)
	if err != nil {
		t.Fatal(err)
	}

	if len(res) != 2 {
		t.Fatalf("expected 2 results, got %d", len(res))
	}
	for _, r := range res {
		if r.DocumentID == docB {
			t.Fatal("search leaked chunks from another knowledge base")
		}
	}
	if res[0].Similarity < res[1].Similarity {
		t.Fatal("results are not sorted by similarity desc")
	}
	if res[0].Content != "alpha" {
		t.Fatalf("expected closest chunk first, got %s", res[0].Content)
	}
}

func TestChunkSearchTieBreakOrder(t *testing.T) {
	provider := setupTestProvider(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()

	kb := seedKnowledgeBase(t, provider)
	docA, docB := seedDocument(t, provider, kb), seedDocument(t, provider, kb)
	docFirst, docSecond := docA, docB
	if docSecond < docFirst {
		docFirst, docSecond = docSecond, docFirst
	}

	// identical embeddings, so ordering falls to position asc then document_id asc
	err := provider.stores.ChunkStore.BatchCreate(ctx, []*types.Chunk{
		{ID: utils.GenRandomID(), KnowledgeBaseID: kb, DocumentID: docSecond, Position: 1, Content: "second doc pos 1", Embedding: testVector(0.7)},
		{ID: utils.GenRandomID(), KnowledgeBaseID: kb, DocumentID: docFirst, Position: 1, Content: "first doc pos 1", Embedding: testVector(0.7)},
		{ID: utils.GenRandomID(), KnowledgeBaseID: kb, DocumentID: docSecond, Position: 0, Content: "second doc pos 0", Embedding: testVector(0.7)},
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := provider.stores.ChunkStore.Search(ctx, kb, testVector(0.7), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 3 {
		t.Fatalf("expected 3 results, got %d", len(res))
	}

	want := []string{"second doc pos 0", "first doc pos 1", "second doc pos 1"}
	for i, content := range want {
		if res[i].Content != content {
			t.Fatalf("result %d: expected %q, got %q", i, content, res[i].Content)
		}
	}
}

func TestChunkDeleteByDocument(t *testing.T) {
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

	if err = provider.stores.ChunkStore.DeleteByDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}

	total, err := provider.stores.ChunkStore.Total(ctx, types.GetChunksOptions{DocumentID: doc})
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Fatalf("expected 0 chunks after delete, got %d", total)
	}
}

func TestChunkBatchCreateRequiresDocument(t *testing.T) {
	provider := setupTestProvider(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()

	kb := seedKnowledgeBase(t, provider)

	err := provider.stores.ChunkStore.BatchCreate(ctx, []*types.Chunk{
		{ID: utils.GenRandomID(), KnowledgeBaseID: kb, DocumentID: utils.GenRandomID(), Position: 0, Content: "orphan", Embedding: testVector(0.3)},
	})
	if err == nil {
		t.Fatal("expected foreign key violation for missing document")
	}
}
