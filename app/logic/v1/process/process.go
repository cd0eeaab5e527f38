package process

import (
	"context"
	"log/slog"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/robfig/cron/v3"

	"github.com/prodpilot/prodpilot/app/core"
	"github.com/prodpilot/prodpilot/pkg/register"
	"github.com/prodpilot/prodpilot/pkg/safe"
	"github.com/prodpilot/prodpilot/pkg/types"
)

type Process struct {
	cron   *cron.Cron
	core   *core.Core
	cancel context.CancelFunc
}

var p *Process

type ProcessKey struct{}

func NewProcess(core *core.Core) *Process {
	p = &Process{
		cron: cron.New(),
		core: core,
	}

	for _, h := range register.ResolveFuncHandlers[*Process](ProcessKey{}) {
		h(p)
	}

	return p
}

func (p *Process) Cron() *cron.Cron {
	return p.cron
}

func (p *Process) Core() *core.Core {
	return p.core
}

func (p *Process) Start() {
	p.cancel = StartDocumentProcess(p.core, p.core.Cfg().Ingest.MaxConcurrency)
	p.cron.Start()
}

func (p *Process) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	if p.cron != nil {
		ctx := p.cron.Stop()
		<-ctx.Done()
	}
}

var documentProcess *DocumentProcess

// DocumentProcess 文档入库的后台工作池
type DocumentProcess struct {
	concurrency int
	ctx         context.Context
	core        *core.Core
	IngestChan  chan *IngestRequest
	processing  cmap.ConcurrentMap[string, struct{}]
}

func StartDocumentProcess(core *core.Core, concurrency int) context.CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())
	documentProcess = &DocumentProcess{
		concurrency: concurrency,
		ctx:         ctx,
		core:        core,
		IngestChan:  make(chan *IngestRequest, 1000),
		processing:  cmap.New[struct{}](),
	}

	go safe.Run(documentProcess.Start)
	go safe.Run(func() {
		documentProcess.Flush()
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				documentProcess.Flush()
			}
		}
	})
	return cancel
}

func (p *DocumentProcess) Start() {
	for i := 0; i < p.concurrency; i++ {
		go safe.Run(func() {
			p.ProcessIngest()
		})
	}
}

// Flush 重新调度未完成的文档，补偿进程重启或队列溢出丢失的任务
func (p *DocumentProcess) Flush() {
	ctx, cancel := context.WithTimeout(p.ctx, time.Second*10)
	defer cancel()

	maxRetry := p.core.Cfg().Ingest.MaxRetryTimes
	list, err := p.core.Store().DocumentStore().ListUnfinished(ctx, maxRetry, 1, 20)
	if err != nil {
		slog.Error("Failed to list unfinished documents", slog.String("error", err.Error()))
		return
	}

	if len(list) > 0 {
		slog.Info("DocumentProcess flush", slog.Int("length", len(list)))
	}

	p.core.Metrics().SetIngestQueueDepth(len(p.IngestChan))

	for _, v := range list {
		if IsProcessing(v.ID) {
			continue
		}
		NewIngestRequest(v)
	}
}

type IngestRequest struct {
	ctx        context.Context
	documentID string
	kbID       string
	response   chan IngestResponse
}

type IngestResponse struct {
	Err error
}

// NewIngestRequest 将文档排入处理队列，返回可选的完成通知
func NewIngestRequest(data types.Document) chan IngestResponse {
	if documentProcess == nil || documentProcess.ctx.Err() != nil {
		slog.Error("Document Process not working",
			slog.String("document_id", data.ID),
			slog.String("knowledge_base_id", data.KnowledgeBaseID))
		return nil
	}

	resp := make(chan IngestResponse, 1)
	documentProcess.IngestChan <- &IngestRequest{
		ctx:        context.Background(),
		documentID: data.ID,
		kbID:       data.KnowledgeBaseID,
		response:   resp,
	}
	return resp
}

func (p *DocumentProcess) ProcessIngest() {
	for {
		select {
		case <-p.ctx.Done():
			return
		case req := <-p.IngestChan:
			if req == nil {
				continue
			}

			p.CheckProcess(req.documentID, func() {
				p.processDocument(req)
			})
		}
	}
}

// CheckProcess 同一文档同时只允许一个处理流程
func (p *DocumentProcess) CheckProcess(id string, handler func()) {
	if !p.processing.SetIfAbsent(id, struct{}{}) {
		return
	}
	defer p.processing.Remove(id)

	handler()
}

// IsProcessing reports whether an ingest run currently holds the document.
func IsProcessing(id string) bool {
	if documentProcess == nil {
		return false
	}
	return documentProcess.processing.Has(id)
}
