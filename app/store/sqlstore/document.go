package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/prodpilot/prodpilot/pkg/register"
	"github.com/prodpilot/prodpilot/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.DocumentStore = NewDocumentStore(provider)
	})
}

// DocumentStore 处理文档表的操作
type DocumentStore struct {
	CommonFields
}

func NewDocumentStore(provider SqlProviderAchieve) *DocumentStore {
	store := &DocumentStore{}
	store.SetProvider(provider)
	store.SetTable(types.TABLE_DOCUMENT)
	store.SetAllColumns("id", "knowledge_base_id", "name", "source", "metadata", "content", "status", "error", "chunk_count", "retry_times", "created_at", "updated_at")
	return store
}

// Create 创建新的文档记录
func (s *DocumentStore) Create(ctx context.Context, data types.Document) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	if data.UpdatedAt == 0 {
		data.UpdatedAt = time.Now().Unix()
	}

	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.KnowledgeBaseID, data.Name, data.Source, data.Metadata, data.Content, data.Status, data.Error, data.ChunkCount, data.RetryTimes, data.CreatedAt, data.UpdatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *DocumentStore) BatchCreate(ctx context.Context, datas []*types.Document) error {
	if len(datas) == 0 {
		return nil
	}

	query := sq.Insert(s.GetTable()).Columns(s.GetAllColumns()...)
	for _, data := range datas {
		if data.CreatedAt == 0 {
			data.CreatedAt = time.Now().Unix()
		}
		if data.UpdatedAt == 0 {
			data.UpdatedAt = time.Now().Unix()
		}
		query = query.Values(data.ID, data.KnowledgeBaseID, data.Name, data.Source, data.Metadata, data.Content, data.Status, data.Error, data.ChunkCount, data.RetryTimes, data.CreatedAt, data.UpdatedAt)
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// Get 根据ID获取文档记录
func (s *DocumentStore) Get(ctx context.Context, knowledgeBaseID, id string) (*types.Document, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"id": id})
	if knowledgeBaseID != "" {
		query = query.Where(sq.Eq{"knowledge_base_id": knowledgeBaseID})
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.Document
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetForUpdate 锁定文档行直到事务结束，与并发删除串行化
func (s *DocumentStore) GetForUpdate(ctx context.Context, id string) (*types.Document, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"id": id}).
		Suffix("FOR UPDATE")

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.Document
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

// List 分页获取文档记录列表
func (s *DocumentStore) List(ctx context.Context, opts types.GetDocumentOptions, page, pageSize uint64) ([]types.Document, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("created_at DESC", "id DESC")
	if page != types.NO_PAGINATION && pageSize != types.NO_PAGINATION {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}
	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.Document
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *DocumentStore) Total(ctx context.Context, opts types.GetDocumentOptions) (int64, error) {
	query := sq.Select("COUNT(*)").From(s.GetTable())
	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var total int64
	if err = s.GetReplica(ctx).Get(&total, queryString, args...); err != nil {
		return 0, err
	}
	return total, nil
}

// UpdateStatus 迁移文档状态，errMsg 为空表示清除之前的错误信息
func (s *DocumentStore) UpdateStatus(ctx context.Context, id string, status types.DocumentStatus, errMsg string) error {
	query := sq.Update(s.GetTable()).
		Set("status", status).
		Set("error", errMsg).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// FinishIndexing 标记文档索引完成
func (s *DocumentStore) FinishIndexing(ctx context.Context, id string, chunkCount int) error {
	query := sq.Update(s.GetTable()).
		Set("status", types.DOCUMENT_STATUS_INDEXED).
		Set("error", "").
		Set("chunk_count", chunkCount).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// MarkFailed 记录失败原因并清零切片计数，失败文档的局部切片会被一并清理
func (s *DocumentStore) MarkFailed(ctx context.Context, id string, errMsg string) error {
	query := sq.Update(s.GetTable()).
		Set("status", types.DOCUMENT_STATUS_ERROR).
		Set("error", errMsg).
		Set("chunk_count", 0).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *DocumentStore) SetRetryTimes(ctx context.Context, id string, retryTimes int) error {
	query := sq.Update(s.GetTable()).
		Set("retry_times", retryTimes).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// Delete 删除文档记录
func (s *DocumentStore) Delete(ctx context.Context, knowledgeBaseID, id string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"knowledge_base_id": knowledgeBaseID, "id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *DocumentStore) DeleteAll(ctx context.Context, knowledgeBaseID string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"knowledge_base_id": knowledgeBaseID})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// CountByStatus 按状态统计知识库下的文档数
func (s *DocumentStore) CountByStatus(ctx context.Context, knowledgeBaseID string) ([]types.DocumentStatusCount, error) {
	query := sq.Select("status", "COUNT(*) AS count").From(s.GetTable()).
		Where(sq.Eq{"knowledge_base_id": knowledgeBaseID}).
		GroupBy("status")

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.DocumentStatusCount
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

// ListUnfinished 获取待处理或处理中的文档，供后台任务补偿调度
func (s *DocumentStore) ListUnfinished(ctx context.Context, maxRetryTimes int, page, pageSize uint64) ([]types.Document, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"status": []types.DocumentStatus{types.DOCUMENT_STATUS_PENDING, types.DOCUMENT_STATUS_PROCESSING}}).
		Where(sq.Lt{"retry_times": maxRetryTimes}).
		OrderBy("created_at ASC").
		Limit(pageSize).Offset((page - 1) * pageSize)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.Document
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}
