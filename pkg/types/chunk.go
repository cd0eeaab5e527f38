package types

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/pgvector/pgvector-go"
)

type Chunk struct {
	ID              string          `json:"id" db:"id"`
	KnowledgeBaseID string          `json:"knowledge_base_id" db:"knowledge_base_id"`
	DocumentID      string          `json:"document_id" db:"document_id"`
	Position        int             `json:"position" db:"position"`
	Content         string          `json:"content" db:"content"`
	StartChar       int             `json:"start_char" db:"start_char"`
	EndChar         int             `json:"end_char" db:"end_char"`
	TokenCount      int             `json:"token_count" db:"token_count"`
	Embedding       pgvector.Vector `json:"-" db:"embedding"`
	CreatedAt       int64           `json:"created_at" db:"created_at"`
}

// SearchResult 检索命中的切片及其相似度
type SearchResult struct {
	ChunkID      string  `json:"chunk_id" db:"id"`
	DocumentID   string  `json:"document_id" db:"document_id"`
	DocumentName string  `json:"document_name" db:"-"`
	Position     int     `json:"position" db:"position"`
	Content      string  `json:"content" db:"content"`
	Similarity   float64 `json:"similarity" db:"similarity"`
}

type GetChunksOptions struct {
	KnowledgeBaseID string
	DocumentID      string
}

func (opts GetChunksOptions) Apply(query *sq.SelectBuilder) {
	if opts.KnowledgeBaseID != "" {
		*query = query.Where(sq.Eq{"knowledge_base_id": opts.KnowledgeBaseID})
	}
	if opts.DocumentID != "" {
		*query = query.Where(sq.Eq{"document_id": opts.DocumentID})
	}
}
