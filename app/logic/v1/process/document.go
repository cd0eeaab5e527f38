package process

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/prodpilot/prodpilot/app/core"
	"github.com/prodpilot/prodpilot/pkg/chunker"
	"github.com/prodpilot/prodpilot/pkg/types"
	"github.com/prodpilot/prodpilot/pkg/utils"
)

func (p *DocumentProcess) processDocument(req *IngestRequest) {
	logAttrs := []any{
		slog.String("knowledge_base_id", req.kbID),
		slog.String("document_id", req.documentID),
		slog.String("component", "DocumentProcess.processDocument"),
	}

	ctx, cancel := context.WithTimeout(req.ctx, time.Duration(p.core.Cfg().Ingest.EmbedTimeout)*time.Second)
	defer cancel()

	doc, err := p.core.Store().DocumentStore().Get(ctx, req.kbID, req.documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// document deleted before we got to it
			return
		}
		slog.Error("Failed to load document for ingest", append(logAttrs, slog.String("error", err.Error()))...)
		return
	}

	kb, err := p.core.Store().KnowledgeBaseStore().Get(ctx, doc.KnowledgeBaseID)
	if err != nil {
		slog.Error("Failed to load knowledge base for ingest", append(logAttrs, slog.String("error", err.Error()))...)
		return
	}

	slog.Info("Receive new ingest request", logAttrs...)

	defer func() {
		if req.response != nil {
			req.response <- IngestResponse{Err: err}
			close(req.response)
		}
	}()

	if err = p.core.Store().DocumentStore().UpdateStatus(ctx, doc.ID, types.DOCUMENT_STATUS_PROCESSING, ""); err != nil {
		slog.Error("Failed to mark document processing", append(logAttrs, slog.String("error", err.Error()))...)
		return
	}
	p.refreshKnowledgeBase(kb.ID, logAttrs)

	if err = p.ingest(ctx, kb, doc); err != nil {
		slog.Error("Document ingest failed", append(logAttrs, slog.String("error", err.Error()))...)
		p.failDocument(doc, err, logAttrs)
		p.core.Metrics().DocumentIngestedInc("error")
	} else {
		slog.Info("Document ingest finished", logAttrs...)
		p.core.Metrics().DocumentIngestedInc("indexed")
	}
	p.refreshKnowledgeBase(kb.ID, logAttrs)
}

// ingest runs chunk -> embed -> store for one document. Chunks become
// searchable atomically in the final transaction.
func (p *DocumentProcess) ingest(ctx context.Context, kb *types.KnowledgeBase, doc *types.Document) error {
	pieces, err := chunker.Split(doc.Content, kb.Settings.ChunkSize, kb.Settings.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("failed to split document, check the knowledge base chunk settings: %w", err)
	}
	if len(pieces) == 0 {
		return fmt.Errorf("no extractable content, upload a document with readable text")
	}

	texts := make([]string, 0, len(pieces))
	for _, v := range pieces {
		texts = append(texts, v.Content)
	}

	timer := p.core.Metrics().EmbeddingTimer(kb.Settings.EmbeddingModel)
	result, err := p.core.Srv().AI().EmbeddingForDocument(ctx, kb.Settings.EmbeddingModel, texts)
	timer.ObserveDuration()
	if err != nil {
		p.core.Metrics().EmbeddingErrorInc(kb.Settings.EmbeddingModel)
		return fmt.Errorf("embedding provider failed, retry later or reprocess the document: %w", err)
	}
	if len(result.Data) != len(pieces) {
		return fmt.Errorf("embedding provider returned %d vectors for %d chunks, reprocess the document", len(result.Data), len(pieces))
	}

	chunks := buildChunkRows(kb, doc, pieces, result.Data)

	return p.core.Store().Transaction(ctx, func(txCtx context.Context) error {
		// lock the row so a racing delete waits for us or we see it gone
		if _, err := p.core.Store().DocumentStore().GetForUpdate(txCtx, doc.ID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("document was deleted during processing")
			}
			return err
		}

		if err := p.core.Store().ChunkStore().DeleteByDocument(txCtx, doc.ID); err != nil {
			return err
		}
		if err := p.core.Store().ChunkStore().BatchCreate(txCtx, chunks); err != nil {
			return err
		}
		if err := p.core.Store().DocumentStore().FinishIndexing(txCtx, doc.ID, len(chunks)); err != nil {
			return err
		}
		return RefreshKnowledgeBase(txCtx, p.core, kb.ID)
	})
}

// buildChunkRows assembles persistable rows sorted by position.
func buildChunkRows(kb *types.KnowledgeBase, doc *types.Document, pieces []chunker.Piece, vectors [][]float32) []*types.Chunk {
	now := time.Now().Unix()
	chunks := make([]*types.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, &types.Chunk{
			ID:              utils.GenUniqIDStr(),
			KnowledgeBaseID: kb.ID,
			DocumentID:      doc.ID,
			Position:        piece.Position,
			Content:         piece.Content,
			StartChar:       piece.StartChar,
			EndChar:         piece.EndChar,
			TokenCount:      piece.TokenCount,
			Embedding:       pgvector.NewVector(vectors[i]),
			CreatedAt:       now,
		})
	}
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Position < chunks[j].Position
	})
	return chunks
}

// failDocument records the failure verbatim and cleans up any partial chunks
// so an errored document is never half-searchable.
func (p *DocumentProcess) failDocument(doc *types.Document, cause error, logAttrs []any) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	if err := p.core.Store().ChunkStore().DeleteByDocument(ctx, doc.ID); err != nil {
		slog.Error("Failed to clean up partial chunks", append(logAttrs, slog.String("error", err.Error()))...)
	}
	if err := p.core.Store().DocumentStore().MarkFailed(ctx, doc.ID, cause.Error()); err != nil {
		slog.Error("Failed to mark document errored", append(logAttrs, slog.String("error", err.Error()))...)
	}
	if err := p.core.Store().DocumentStore().SetRetryTimes(ctx, doc.ID, doc.RetryTimes+1); err != nil {
		slog.Error("Failed to set document retry times", append(logAttrs, slog.String("error", err.Error()))...)
	}
}

func (p *DocumentProcess) refreshKnowledgeBase(kbID string, logAttrs []any) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	if err := RefreshKnowledgeBase(ctx, p.core, kbID); err != nil {
		slog.Error("Failed to refresh knowledge base aggregates", append(logAttrs, slog.String("error", err.Error()))...)
	}
}

// RefreshKnowledgeBase recomputes documentCount/totalChunks and the derived
// status from current rows. Derived, never accumulated, so repeated calls
// cannot drift.
func RefreshKnowledgeBase(ctx context.Context, core *core.Core, kbID string) error {
	counts, err := core.Store().DocumentStore().CountByStatus(ctx, kbID)
	if err != nil {
		return err
	}

	totalChunks, err := core.Store().ChunkStore().Total(ctx, types.GetChunksOptions{KnowledgeBaseID: kbID})
	if err != nil {
		return err
	}

	var documentCount int
	for _, v := range counts {
		documentCount += v.Count
	}

	status := types.DeriveKnowledgeBaseStatus(counts)
	return core.Store().KnowledgeBaseStore().UpdateDerived(ctx, kbID, status, documentCount, int(totalChunks))
}
