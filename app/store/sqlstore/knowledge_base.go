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
		provider.stores.KnowledgeBaseStore = NewKnowledgeBaseStore(provider)
	})
}

// KnowledgeBaseStore 处理知识库表的操作
type KnowledgeBaseStore struct {
	CommonFields
}

func NewKnowledgeBaseStore(provider SqlProviderAchieve) *KnowledgeBaseStore {
	store := &KnowledgeBaseStore{}
	store.SetProvider(provider)
	store.SetTable(types.TABLE_KNOWLEDGE_BASE)
	store.SetAllColumns("id", "user_id", "name", "description", "settings", "status", "document_count", "total_chunks", "created_at", "updated_at")
	return store
}

// Create 创建新的知识库记录
func (s *KnowledgeBaseStore) Create(ctx context.Context, data types.KnowledgeBase) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	if data.UpdatedAt == 0 {
		data.UpdatedAt = time.Now().Unix()
	}

	query := sq.Insert(s.GetTable()).
		Columns("id", "user_id", "name", "description", "settings", "status", "document_count", "total_chunks", "created_at", "updated_at").
		Values(data.ID, data.UserID, data.Name, data.Description, data.Settings, data.Status, data.DocumentCount, data.TotalChunks, data.CreatedAt, data.UpdatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// Get 根据ID获取知识库记录
func (s *KnowledgeBaseStore) Get(ctx context.Context, id string) (*types.KnowledgeBase, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.KnowledgeBase
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

// List 分页获取知识库记录列表
func (s *KnowledgeBaseStore) List(ctx context.Context, opts types.GetKnowledgeBaseOptions, page, pageSize uint64) ([]types.KnowledgeBase, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("created_at DESC")
	if page != types.NO_PAGINATION && pageSize != types.NO_PAGINATION {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}
	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.KnowledgeBase
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *KnowledgeBaseStore) Total(ctx context.Context, opts types.GetKnowledgeBaseOptions) (int64, error) {
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

// Update 更新知识库的名称与描述，settings 创建后不可修改
func (s *KnowledgeBaseStore) Update(ctx context.Context, id string, args types.UpdateKnowledgeBaseArgs) error {
	query := sq.Update(s.GetTable()).
		Set("name", args.Name).
		Set("description", args.Description).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": id})

	queryString, sqlArgs, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, sqlArgs...)
	return err
}

// UpdateDerived 刷新聚合计数与推导状态
func (s *KnowledgeBaseStore) UpdateDerived(ctx context.Context, id string, status types.KnowledgeBaseStatus, documentCount, totalChunks int) error {
	query := sq.Update(s.GetTable()).
		Set("status", status).
		Set("document_count", documentCount).
		Set("total_chunks", totalChunks).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// Delete 删除知识库记录
func (s *KnowledgeBaseStore) Delete(ctx context.Context, id string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}
