package process

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/prodpilot/prodpilot/app/core"
	"github.com/prodpilot/prodpilot/pkg/register"
	"github.com/prodpilot/prodpilot/pkg/types"
)

type ReconcileProcess struct {
	core *core.Core
}

func NewReconcileProcess(core *core.Core) *ReconcileProcess {
	return &ReconcileProcess{
		core: core,
	}
}

// ReconcileAggregates 重算全部知识库的聚合计数，兜底进程崩溃造成的计数漂移
func (p *ReconcileProcess) ReconcileAggregates(ctx context.Context) error {
	var page uint64 = 1
	for {
		list, err := p.core.Store().KnowledgeBaseStore().List(ctx, types.GetKnowledgeBaseOptions{}, page, 50)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		if len(list) == 0 {
			return nil
		}

		for _, kb := range list {
			if err := RefreshKnowledgeBase(ctx, p.core, kb.ID); err != nil {
				slog.Error("Failed to refresh knowledge base aggregates",
					slog.String("knowledge_base_id", kb.ID),
					slog.String("error", err.Error()))
			}
		}
		page++
	}
}

func init() {
	register.RegisterFunc(ProcessKey{}, func(provider *Process) {
		provider.Cron().AddFunc("*/10 * * * *", func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := NewReconcileProcess(provider.Core()).ReconcileAggregates(ctx); err != nil {
				slog.Error("Failed to reconcile knowledge base aggregates", slog.String("error", err.Error()))
			}
		})
	})
}
