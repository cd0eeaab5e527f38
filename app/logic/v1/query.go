package v1

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/samber/lo"

	"github.com/prodpilot/prodpilot/app/core"
	"github.com/prodpilot/prodpilot/pkg/errors"
	"github.com/prodpilot/prodpilot/pkg/i18n"
	"github.com/prodpilot/prodpilot/pkg/types"
)

type QueryLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewQueryLogic(ctx context.Context, core *core.Core) *QueryLogic {
	return &QueryLogic{
		ctx:  ctx,
		core: core,
	}
}

type QueryResult struct {
	Query   string               `json:"query"`
	Results []types.SearchResult `json:"results"`
	Count   int                  `json:"count"`
}

// Query 检索始终使用知识库创建时的向量模型，避免维度不一致
func (l *QueryLogic) Query(knowledgeBaseID, query string, limit uint64) (*QueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("QueryLogic.Query.empty", i18n.ERROR_INVALID_QUERY, nil).Code(http.StatusBadRequest)
	}
	if limit == 0 {
		limit = types.DEFAULT_QUERY_LIMIT
	}
	if limit > types.MAX_QUERY_LIMIT {
		limit = types.MAX_QUERY_LIMIT
	}

	kb, err := NewKnowledgeBaseLogic(l.ctx, l.core).Get(knowledgeBaseID)
	if err != nil {
		return nil, err
	}

	embedding, err := l.core.Srv().AI().EmbeddingForQuery(l.ctx, kb.Settings.EmbeddingModel, []string{query})
	if err != nil {
		l.core.Metrics().EmbeddingErrorInc(kb.Settings.EmbeddingModel)
		return nil, errors.New("QueryLogic.Query.EmbeddingForQuery", i18n.ERROR_INTERNAL, err).Code(http.StatusBadGateway)
	}
	if len(embedding.Data) == 0 {
		return nil, errors.New("QueryLogic.Query.EmbeddingForQuery.nil", i18n.ERROR_INTERNAL, nil)
	}

	results, err := l.core.Store().ChunkStore().Search(l.ctx, knowledgeBaseID, pgvector.NewVector(embedding.Data[0]), limit)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("QueryLogic.Query.ChunkStore.Search", i18n.ERROR_INTERNAL, err)
	}

	if err = l.attachDocumentNames(results); err != nil {
		return nil, err
	}

	return &QueryResult{
		Query:   query,
		Results: results,
		Count:   len(results),
	}, nil
}

func (l *QueryLogic) attachDocumentNames(results []types.SearchResult) error {
	if len(results) == 0 {
		return nil
	}

	ids := lo.Uniq(lo.Map(results, func(item types.SearchResult, _ int) string {
		return item.DocumentID
	}))

	docs, err := l.core.Store().DocumentStore().List(l.ctx, types.GetDocumentOptions{IDs: ids}, types.NO_PAGINATION, types.NO_PAGINATION)
	if err != nil && err != sql.ErrNoRows {
		return errors.New("QueryLogic.attachDocumentNames.DocumentStore.List", i18n.ERROR_INTERNAL, err)
	}

	names := lo.SliceToMap(docs, func(doc types.Document) (string, string) {
		return doc.ID, doc.Name
	})
	for i := range results {
		results[i].DocumentName = names[results[i].DocumentID]
	}
	return nil
}
