package v1

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/prodpilot/prodpilot/app/core"
	"github.com/prodpilot/prodpilot/app/logic/v1/process"
	"github.com/prodpilot/prodpilot/pkg/ai"
	"github.com/prodpilot/prodpilot/pkg/errors"
	"github.com/prodpilot/prodpilot/pkg/i18n"
	"github.com/prodpilot/prodpilot/pkg/source"
	"github.com/prodpilot/prodpilot/pkg/types"
	"github.com/prodpilot/prodpilot/pkg/utils"
)

const (
	DEFAULT_CHUNK_SIZE      = 500
	DEFAULT_CHUNK_OVERLAP   = 100
	DEFAULT_EMBEDDING_MODEL = "text-embedding-3-small"
)

type KnowledgeBaseLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewKnowledgeBaseLogic(ctx context.Context, core *core.Core) *KnowledgeBaseLogic {
	return &KnowledgeBaseLogic{
		ctx:  ctx,
		core: core,
	}
}

type CreateKnowledgeBaseArgs struct {
	Name        string                       `json:"name" binding:"required"`
	Description string                       `json:"description"`
	UserID      string                       `json:"user_id"`
	Settings    *types.KnowledgeBaseSettings `json:"settings"`
}

// validateSettings settings 创建后不可修改，所有校验都在这里完成
func validateSettings(settings *types.KnowledgeBaseSettings) error {
	if settings.ChunkSize == 0 {
		settings.ChunkSize = DEFAULT_CHUNK_SIZE
	}
	if settings.ChunkOverlap == 0 {
		settings.ChunkOverlap = DEFAULT_CHUNK_OVERLAP
	}
	if settings.EmbeddingModel == "" {
		settings.EmbeddingModel = DEFAULT_EMBEDDING_MODEL
	}

	if settings.ChunkSize <= 0 || settings.ChunkOverlap < 0 || settings.ChunkOverlap >= settings.ChunkSize {
		return errors.New("KnowledgeBaseLogic.validateSettings.chunk", i18n.ERROR_INVALID_CONFIG, nil).Code(http.StatusBadRequest)
	}
	if !ai.IsKnownEmbeddingModel(settings.EmbeddingModel) {
		return errors.New("KnowledgeBaseLogic.validateSettings.model", i18n.ERROR_AI_EMBEDDING_MODEL_NOT_FOUND, nil).Code(http.StatusBadRequest)
	}
	return nil
}

func (l *KnowledgeBaseLogic) Create(args CreateKnowledgeBaseArgs) (*types.KnowledgeBase, error) {
	if args.Settings == nil {
		args.Settings = &types.KnowledgeBaseSettings{}
	}
	if err := validateSettings(args.Settings); err != nil {
		return nil, err
	}

	kb := types.KnowledgeBase{
		ID:          utils.GenUniqIDStr(),
		UserID:      args.UserID,
		Name:        args.Name,
		Description: args.Description,
		Settings:    *args.Settings,
		Status:      types.KNOWLEDGE_BASE_STATUS_PENDING,
		CreatedAt:   time.Now().Unix(),
		UpdatedAt:   time.Now().Unix(),
	}

	if err := l.core.Store().KnowledgeBaseStore().Create(l.ctx, kb); err != nil {
		return nil, errors.New("KnowledgeBaseLogic.Create.KnowledgeBaseStore.Create", i18n.ERROR_INTERNAL, err)
	}
	return &kb, nil
}

func (l *KnowledgeBaseLogic) Get(id string) (*types.KnowledgeBase, error) {
	kb, err := l.core.Store().KnowledgeBaseStore().Get(l.ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New("KnowledgeBaseLogic.Get.KnowledgeBaseStore.Get.nil", i18n.ERROR_NOT_FOUND, err).Code(http.StatusNotFound)
		}
		return nil, errors.New("KnowledgeBaseLogic.Get.KnowledgeBaseStore.Get", i18n.ERROR_INTERNAL, err)
	}
	return kb, nil
}

func (l *KnowledgeBaseLogic) List(opts types.GetKnowledgeBaseOptions, page, pageSize uint64) ([]types.KnowledgeBase, int64, error) {
	list, err := l.core.Store().KnowledgeBaseStore().List(l.ctx, opts, page, pageSize)
	if err != nil && err != sql.ErrNoRows {
		return nil, 0, errors.New("KnowledgeBaseLogic.List.KnowledgeBaseStore.List", i18n.ERROR_INTERNAL, err)
	}

	total, err := l.core.Store().KnowledgeBaseStore().Total(l.ctx, opts)
	if err != nil {
		return nil, 0, errors.New("KnowledgeBaseLogic.List.KnowledgeBaseStore.Total", i18n.ERROR_INTERNAL, err)
	}
	return list, total, nil
}

func (l *KnowledgeBaseLogic) Update(id string, args types.UpdateKnowledgeBaseArgs) error {
	if _, err := l.Get(id); err != nil {
		return err
	}
	if err := l.core.Store().KnowledgeBaseStore().Update(l.ctx, id, args); err != nil {
		return errors.New("KnowledgeBaseLogic.Update.KnowledgeBaseStore.Update", i18n.ERROR_INTERNAL, err)
	}
	return nil
}

// Delete 级联删除知识库下的全部文档与切片
func (l *KnowledgeBaseLogic) Delete(id string) error {
	if _, err := l.Get(id); err != nil {
		return err
	}

	err := l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if err := l.core.Store().ChunkStore().DeleteAll(ctx, id); err != nil {
			return err
		}
		if err := l.core.Store().DocumentStore().DeleteAll(ctx, id); err != nil {
			return err
		}
		return l.core.Store().KnowledgeBaseStore().Delete(ctx, id)
	})
	if err != nil {
		return errors.New("KnowledgeBaseLogic.Delete.Transaction", i18n.ERROR_INTERNAL, err)
	}
	return nil
}

// IngestItemResult 单个来源条目的受理结果
type IngestItemResult struct {
	Name       string          `json:"name"`
	DocumentID string          `json:"document_id,omitempty"`
	Accepted   bool            `json:"accepted"`
	Reason     string          `json:"reason,omitempty"`
	Document   *types.Document `json:"document,omitempty"`
}

// UploadFiles 校验上传文件并为每个可入库条目创建文档，异步触发处理
func (l *KnowledgeBaseLogic) UploadFiles(kbID string, files []source.UploadedFile) ([]IngestItemResult, error) {
	if len(files) == 0 {
		return nil, errors.New("KnowledgeBaseLogic.UploadFiles.empty", i18n.ERROR_EMPTY_IMPORT, nil).Code(http.StatusBadRequest)
	}

	kb, err := l.Get(kbID)
	if err != nil {
		return nil, err
	}

	adapter := source.NewUploadAdapter(files, l.core.Cfg().Ingest.MaxUploadSize)
	return l.ingestFromAdapter(kb, adapter)
}

type ImportGithubArgs struct {
	RepoURL string `json:"repo_url" binding:"required"`
	Branch  string `json:"branch"`
	Token   string `json:"token"`
}

// ImportFromGithub 拉取仓库快照并为每个文本文件创建文档，异步触发处理
func (l *KnowledgeBaseLogic) ImportFromGithub(kbID string, args ImportGithubArgs) ([]IngestItemResult, error) {
	kb, err := l.Get(kbID)
	if err != nil {
		return nil, err
	}

	adapter, err := source.NewGithubAdapter(source.GithubConfig{
		APIBase: l.core.Cfg().Ingest.GithubAPIBase,
		RepoURL: args.RepoURL,
		Branch:  args.Branch,
		Token:   args.Token,
		Timeout: time.Duration(l.core.Cfg().Ingest.FetchTimeout) * time.Second,
	})
	if err != nil {
		return nil, errors.New("KnowledgeBaseLogic.ImportFromGithub.NewGithubAdapter", i18n.ERROR_INVALIDARGUMENT, err).Code(http.StatusBadRequest)
	}

	return l.ingestFromAdapter(kb, adapter)
}

func (l *KnowledgeBaseLogic) ingestFromAdapter(kb *types.KnowledgeBase, adapter source.Adapter) ([]IngestItemResult, error) {
	ctx, cancel := context.WithTimeout(l.ctx, time.Duration(l.core.Cfg().Ingest.FetchTimeout)*time.Second)
	defer cancel()

	fetched, err := adapter.Fetch(ctx)
	if err != nil {
		return nil, errors.New("KnowledgeBaseLogic.ingestFromAdapter.Fetch", i18n.ERROR_INTERNAL, err).Code(http.StatusBadGateway)
	}
	if len(fetched.Items) == 0 && len(fetched.Skipped) == 0 {
		return nil, errors.New("KnowledgeBaseLogic.ingestFromAdapter.empty", i18n.ERROR_EMPTY_IMPORT, nil).Code(http.StatusBadRequest)
	}

	var (
		results []IngestItemResult
		docs    []*types.Document
	)
	for _, item := range fetched.Items {
		doc := &types.Document{
			ID:              utils.GenUniqIDStr(),
			KnowledgeBaseID: kb.ID,
			Name:            item.Name,
			Source:          sourceOf(item.Metadata),
			Metadata:        item.Metadata,
			Content:         item.Content,
			Status:          types.DOCUMENT_STATUS_PENDING,
			CreatedAt:       time.Now().Unix(),
			UpdatedAt:       time.Now().Unix(),
		}
		docs = append(docs, doc)
		results = append(results, IngestItemResult{
			Name:       item.Name,
			DocumentID: doc.ID,
			Accepted:   true,
			Document:   doc,
		})
	}
	for _, skipped := range fetched.Skipped {
		results = append(results, IngestItemResult{
			Name:     skipped.Name,
			Accepted: false,
			Reason:   skipped.Reason,
		})
	}

	if len(docs) > 0 {
		if err := l.core.Store().DocumentStore().BatchCreate(l.ctx, docs); err != nil {
			return nil, errors.New("KnowledgeBaseLogic.ingestFromAdapter.DocumentStore.BatchCreate", i18n.ERROR_INTERNAL, err)
		}
		if err := process.RefreshKnowledgeBase(l.ctx, l.core, kb.ID); err != nil {
			return nil, errors.New("KnowledgeBaseLogic.ingestFromAdapter.RefreshKnowledgeBase", i18n.ERROR_INTERNAL, err)
		}
		for _, doc := range docs {
			process.NewIngestRequest(*doc)
		}
	}

	return results, nil
}

func sourceOf(meta types.SourceMetadata) types.DocumentSource {
	if meta.Github != nil {
		return types.DOCUMENT_SOURCE_GITHUB
	}
	return types.DOCUMENT_SOURCE_FILE_UPLOAD
}

// Status 返回轮询用的知识库状态快照
type KnowledgeBaseStatus struct {
	ID            string                      `json:"id"`
	Status        types.KnowledgeBaseStatus   `json:"status"`
	DocumentCount int                         `json:"document_count"`
	TotalChunks   int                         `json:"total_chunks"`
	Documents     []types.DocumentStatusCount `json:"documents"`
}

func (l *KnowledgeBaseLogic) Status(id string) (*KnowledgeBaseStatus, error) {
	kb, err := l.Get(id)
	if err != nil {
		return nil, err
	}

	counts, err := l.core.Store().DocumentStore().CountByStatus(l.ctx, id)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("KnowledgeBaseLogic.Status.DocumentStore.CountByStatus", i18n.ERROR_INTERNAL, err)
	}

	return &KnowledgeBaseStatus{
		ID:            kb.ID,
		Status:        kb.Status,
		DocumentCount: kb.DocumentCount,
		TotalChunks:   kb.TotalChunks,
		Documents:     counts,
	}, nil
}
