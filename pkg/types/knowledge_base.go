package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

type KnowledgeBaseStatus string

const (
	KNOWLEDGE_BASE_STATUS_PENDING    KnowledgeBaseStatus = "pending"
	KNOWLEDGE_BASE_STATUS_PROCESSING KnowledgeBaseStatus = "processing"
	KNOWLEDGE_BASE_STATUS_READY      KnowledgeBaseStatus = "ready"
	KNOWLEDGE_BASE_STATUS_ERROR      KnowledgeBaseStatus = "error"
)

func (s KnowledgeBaseStatus) String() string {
	return string(s)
}

// KnowledgeBaseSettings 知识库的切片与向量化配置，创建后不可修改
type KnowledgeBaseSettings struct {
	ChunkSize      int    `json:"chunk_size"`
	ChunkOverlap   int    `json:"chunk_overlap"`
	EmbeddingModel string `json:"embedding_model"`
}

// Value implements the driver.Valuer interface, settings 以 jsonb 存储
func (s KnowledgeBaseSettings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements the sql.Scanner interface.
func (s *KnowledgeBaseSettings) Scan(src interface{}) error {
	switch src := src.(type) {
	case []byte:
		return json.Unmarshal(src, s)
	case string:
		return json.Unmarshal([]byte(src), s)
	case nil:
		return nil
	}
	return fmt.Errorf("pp: cannot convert %T to KnowledgeBaseSettings", src)
}

type KnowledgeBase struct {
	ID            string                `json:"id" db:"id"`
	UserID        string                `json:"user_id" db:"user_id"` // 为空表示组织级知识库
	Name          string                `json:"name" db:"name"`
	Description   string                `json:"description" db:"description"`
	Settings      KnowledgeBaseSettings `json:"settings" db:"settings"`
	Status        KnowledgeBaseStatus   `json:"status" db:"status"`
	DocumentCount int                   `json:"document_count" db:"document_count"`
	TotalChunks   int                   `json:"total_chunks" db:"total_chunks"`
	CreatedAt     int64                 `json:"created_at" db:"created_at"`
	UpdatedAt     int64                 `json:"updated_at" db:"updated_at"`
}

// DeriveKnowledgeBaseStatus 知识库状态由其文档状态推导，不可直接设置
func DeriveKnowledgeBaseStatus(counts []DocumentStatusCount) KnowledgeBaseStatus {
	var total, indexed, active, failed int
	for _, v := range counts {
		total += v.Count
		switch v.Status {
		case DOCUMENT_STATUS_INDEXED:
			indexed += v.Count
		case DOCUMENT_STATUS_PENDING, DOCUMENT_STATUS_PROCESSING:
			active += v.Count
		case DOCUMENT_STATUS_ERROR:
			failed += v.Count
		}
	}

	switch {
	case total == 0:
		return KNOWLEDGE_BASE_STATUS_PENDING
	case active > 0:
		return KNOWLEDGE_BASE_STATUS_PROCESSING
	case indexed > 0:
		return KNOWLEDGE_BASE_STATUS_READY
	default:
		return KNOWLEDGE_BASE_STATUS_ERROR
	}
}

type GetKnowledgeBaseOptions struct {
	ID       string
	IDs      []string
	UserID   string
	Keywords string
}

func (opts GetKnowledgeBaseOptions) Apply(query *sq.SelectBuilder) {
	if opts.ID != "" {
		*query = query.Where(sq.Eq{"id": opts.ID})
	} else if len(opts.IDs) > 0 {
		*query = query.Where(sq.Eq{"id": opts.IDs})
	}
	if opts.UserID != "" {
		*query = query.Where(sq.Eq{"user_id": opts.UserID})
	}
	if opts.Keywords != "" {
		*query = query.Where(sq.Like{"name": fmt.Sprintf("%%%s%%", strings.TrimSpace(opts.Keywords))})
	}
}

type UpdateKnowledgeBaseArgs struct {
	Name        string
	Description string
}
