package store

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"github.com/prodpilot/prodpilot/pkg/sqlstore"
	"github.com/prodpilot/prodpilot/pkg/types"
)

// KnowledgeBaseStore 知识库表操作
type KnowledgeBaseStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.KnowledgeBase) error
	Get(ctx context.Context, id string) (*types.KnowledgeBase, error)
	List(ctx context.Context, opts types.GetKnowledgeBaseOptions, page, pageSize uint64) ([]types.KnowledgeBase, error)
	Total(ctx context.Context, opts types.GetKnowledgeBaseOptions) (int64, error)
	Update(ctx context.Context, id string, args types.UpdateKnowledgeBaseArgs) error
	// UpdateDerived 刷新聚合计数与推导状态
	UpdateDerived(ctx context.Context, id string, status types.KnowledgeBaseStatus, documentCount, totalChunks int) error
	Delete(ctx context.Context, id string) error
}

// DocumentStore 文档表操作
type DocumentStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Document) error
	BatchCreate(ctx context.Context, datas []*types.Document) error
	Get(ctx context.Context, knowledgeBaseID, id string) (*types.Document, error)
	// GetForUpdate 在事务内锁定文档行，阻塞并发删除
	GetForUpdate(ctx context.Context, id string) (*types.Document, error)
	List(ctx context.Context, opts types.GetDocumentOptions, page, pageSize uint64) ([]types.Document, error)
	Total(ctx context.Context, opts types.GetDocumentOptions) (int64, error)
	// UpdateStatus 迁移文档状态并记录错误信息，错误信息为空表示清除
	UpdateStatus(ctx context.Context, id string, status types.DocumentStatus, errMsg string) error
	// MarkFailed 标记文档处理失败并清零切片计数
	MarkFailed(ctx context.Context, id string, errMsg string) error
	// FinishIndexing 标记文档索引完成
	FinishIndexing(ctx context.Context, id string, chunkCount int) error
	SetRetryTimes(ctx context.Context, id string, retryTimes int) error
	Delete(ctx context.Context, knowledgeBaseID, id string) error
	DeleteAll(ctx context.Context, knowledgeBaseID string) error
	// CountByStatus 按状态统计知识库下的文档数
	CountByStatus(ctx context.Context, knowledgeBaseID string) ([]types.DocumentStatusCount, error)
	ListUnfinished(ctx context.Context, maxRetryTimes int, page, pageSize uint64) ([]types.Document, error)
}

// ChunkStore 切片与向量表操作
type ChunkStore interface {
	sqlstore.SqlCommons
	BatchCreate(ctx context.Context, datas []*types.Chunk) error
	List(ctx context.Context, opts types.GetChunksOptions, page, pageSize uint64) ([]types.Chunk, error)
	Total(ctx context.Context, opts types.GetChunksOptions) (int64, error)
	DeleteByDocument(ctx context.Context, documentID string) error
	DeleteAll(ctx context.Context, knowledgeBaseID string) error
	// Search 知识库内余弦相似度检索
	Search(ctx context.Context, knowledgeBaseID string, vector pgvector.Vector, limit uint64) ([]types.SearchResult, error)
}
