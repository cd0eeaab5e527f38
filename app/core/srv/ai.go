package srv

import (
	"context"

	"github.com/prodpilot/prodpilot/pkg/ai"
	"github.com/prodpilot/prodpilot/pkg/ai/openai"
)

type AIConfig struct {
	Token        string `toml:"token"`
	Endpoint     string `toml:"endpoint"`
	DefaultModel string `toml:"default_model"`
}

// AI 向量化服务门面，模型名由调用方按知识库配置传入
type AI struct {
	embedDriver ai.Embedder
}

func ApplyAI(cfg AIConfig) ApplyFunc {
	return func(s *Srv) {
		s.ai = &AI{
			embedDriver: openai.New(cfg.Token, cfg.Endpoint, ai.ModelName{EmbeddingModel: cfg.DefaultModel}),
		}
	}
}

// ApplyAIDriver 注入自定义驱动，测试用
func ApplyAIDriver(driver ai.Embedder) ApplyFunc {
	return func(s *Srv) {
		s.ai = &AI{embedDriver: driver}
	}
}

func (s *AI) EmbeddingForQuery(ctx context.Context, model string, content []string) (ai.EmbeddingResult, error) {
	return s.embedDriver.EmbeddingForQuery(ctx, model, content)
}

func (s *AI) EmbeddingForDocument(ctx context.Context, model string, content []string) (ai.EmbeddingResult, error) {
	return s.embedDriver.EmbeddingForDocument(ctx, model, content)
}
