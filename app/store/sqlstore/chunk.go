package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pgvector/pgvector-go"

	"github.com/prodpilot/prodpilot/pkg/register"
	"github.com/prodpilot/prodpilot/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.ChunkStore = NewChunkStore(provider)
	})
}

// ChunkStore 处理切片与向量表的操作
type ChunkStore struct {
	CommonFields
}

func NewChunkStore(provider SqlProviderAchieve) *ChunkStore {
	store := &ChunkStore{}
	store.SetProvider(provider)
	store.SetTable(types.TABLE_CHUNK)
	store.SetAllColumns("id", "knowledge_base_id", "document_id", "position", "content", "start_char", "end_char", "token_count", "embedding", "created_at")
	return store
}

func (s *ChunkStore) BatchCreate(ctx context.Context, datas []*types.Chunk) error {
	if len(datas) == 0 {
		return nil
	}

	query := sq.Insert(s.GetTable()).Columns(s.GetAllColumns()...)
	for _, data := range datas {
		if data.CreatedAt == 0 {
			data.CreatedAt = time.Now().Unix()
		}
		query = query.Values(data.ID, data.KnowledgeBaseID, data.DocumentID, data.Position, data.Content, data.StartChar, data.EndChar, data.TokenCount, data.Embedding, data.CreatedAt)
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// List 分页获取切片记录列表
func (s *ChunkStore) List(ctx context.Context, opts types.GetChunksOptions, page, pageSize uint64) ([]types.Chunk, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("document_id ASC", "position ASC")
	if page != types.NO_PAGINATION && pageSize != types.NO_PAGINATION {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}
	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.Chunk
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *ChunkStore) Total(ctx context.Context, opts types.GetChunksOptions) (int64, error) {
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

func (s *ChunkStore) DeleteByDocument(ctx context.Context, documentID string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"document_id": documentID})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *ChunkStore) DeleteAll(ctx context.Context, knowledgeBaseID string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"knowledge_base_id": knowledgeBaseID})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// Search 知识库内余弦相似度检索
// pgvector supported distance functions are:
// <-> - L2 distance
// <#> - (negative) inner product
// <=> - cosine distance
// <+> - L1 distance (added in 0.7.0)
func (s *ChunkStore) Search(ctx context.Context, knowledgeBaseID string, vector pgvector.Vector, limit uint64) ([]types.SearchResult, error) {
	simColumn, vectorArgs, _ := sq.Expr("1 - (embedding <=> ?) as similarity", vector).ToSql()
	query := sq.Select("id", "document_id", "position", "content", simColumn).
		From(s.GetTable()).
		Where(sq.Eq{"knowledge_base_id": knowledgeBaseID}).
		OrderBy("similarity DESC", "position ASC", "document_id ASC").
		Limit(limit)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	args = append(vectorArgs, args...)

	var res []types.SearchResult
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}
