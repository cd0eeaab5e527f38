package v1

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/prodpilot/prodpilot/app/core"
	"github.com/prodpilot/prodpilot/app/logic/v1/process"
	"github.com/prodpilot/prodpilot/pkg/errors"
	"github.com/prodpilot/prodpilot/pkg/i18n"
	"github.com/prodpilot/prodpilot/pkg/types"
)

type DocumentLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewDocumentLogic(ctx context.Context, core *core.Core) *DocumentLogic {
	return &DocumentLogic{
		ctx:  ctx,
		core: core,
	}
}

func (l *DocumentLogic) Get(knowledgeBaseID, id string) (*types.Document, error) {
	doc, err := l.core.Store().DocumentStore().Get(l.ctx, knowledgeBaseID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New("DocumentLogic.Get.DocumentStore.Get.nil", i18n.ERROR_NOT_FOUND, err).Code(http.StatusNotFound)
		}
		return nil, errors.New("DocumentLogic.Get.DocumentStore.Get", i18n.ERROR_INTERNAL, err)
	}
	return doc, nil
}

func (l *DocumentLogic) List(knowledgeBaseID string, status types.DocumentStatus, page, pageSize uint64) ([]types.Document, int64, error) {
	if _, err := NewKnowledgeBaseLogic(l.ctx, l.core).Get(knowledgeBaseID); err != nil {
		return nil, 0, err
	}

	opts := types.GetDocumentOptions{
		KnowledgeBaseID: knowledgeBaseID,
		Status:          status,
	}

	list, err := l.core.Store().DocumentStore().List(l.ctx, opts, page, pageSize)
	if err != nil && err != sql.ErrNoRows {
		return nil, 0, errors.New("DocumentLogic.List.DocumentStore.List", i18n.ERROR_INTERNAL, err)
	}

	total, err := l.core.Store().DocumentStore().Total(l.ctx, opts)
	if err != nil {
		return nil, 0, errors.New("DocumentLogic.List.DocumentStore.Total", i18n.ERROR_INTERNAL, err)
	}
	return list, total, nil
}

// Delete 删除文档及其切片，处理中的文档由流水线在提交前再次校验兜底
func (l *DocumentLogic) Delete(knowledgeBaseID, id string) error {
	if _, err := l.Get(knowledgeBaseID, id); err != nil {
		return err
	}

	err := l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if err := l.core.Store().ChunkStore().DeleteByDocument(ctx, id); err != nil {
			return err
		}
		if err := l.core.Store().DocumentStore().Delete(ctx, knowledgeBaseID, id); err != nil {
			return err
		}
		return process.RefreshKnowledgeBase(ctx, l.core, knowledgeBaseID)
	})
	if err != nil {
		return errors.New("DocumentLogic.Delete.Transaction", i18n.ERROR_INTERNAL, err)
	}
	return nil
}

// ensureReprocessable rejects documents the pipeline is still working on,
// either by status or by the in-flight worker registry.
func ensureReprocessable(doc *types.Document) error {
	if process.IsProcessing(doc.ID) || doc.Status == types.DOCUMENT_STATUS_PROCESSING {
		return errors.New("DocumentLogic.Reprocess.processing", i18n.ERROR_ALREADY_PROCESSING, nil).Code(http.StatusConflict)
	}
	return nil
}

// Reprocess 使用保留的原文重新切片与向量化
func (l *DocumentLogic) Reprocess(knowledgeBaseID, id string) (*types.Document, error) {
	doc, err := l.Get(knowledgeBaseID, id)
	if err != nil {
		return nil, err
	}

	if err = ensureReprocessable(doc); err != nil {
		return nil, err
	}

	if err = l.core.Store().DocumentStore().UpdateStatus(l.ctx, doc.ID, types.DOCUMENT_STATUS_PENDING, ""); err != nil {
		return nil, errors.New("DocumentLogic.Reprocess.DocumentStore.UpdateStatus", i18n.ERROR_INTERNAL, err)
	}
	if err = l.core.Store().DocumentStore().SetRetryTimes(l.ctx, doc.ID, 0); err != nil {
		return nil, errors.New("DocumentLogic.Reprocess.DocumentStore.SetRetryTimes", i18n.ERROR_INTERNAL, err)
	}
	if err = process.RefreshKnowledgeBase(l.ctx, l.core, knowledgeBaseID); err != nil {
		return nil, errors.New("DocumentLogic.Reprocess.RefreshKnowledgeBase", i18n.ERROR_INTERNAL, err)
	}

	doc.Status = types.DOCUMENT_STATUS_PENDING
	doc.Error = ""
	process.NewIngestRequest(*doc)
	return doc, nil
}
