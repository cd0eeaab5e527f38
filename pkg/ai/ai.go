package ai

import (
	"context"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	openai "github.com/sashabaranov/go-openai"
)

type ModelName struct {
	EmbeddingModel string `toml:"embedding_model"`
}

// Embedder 向量化驱动
type Embedder interface {
	EmbeddingForQuery(ctx context.Context, model string, content []string) (EmbeddingResult, error)
	EmbeddingForDocument(ctx context.Context, model string, content []string) (EmbeddingResult, error)
}

type EmbeddingResult struct {
	Model string
	Usage *openai.Usage
	Data  [][]float32
}

// VectorDimension 向量列的固定维度。v3 系列模型通过请求参数降维到该宽度，
// ada-002 的原生输出即为该宽度。
const VectorDimension = 1536

// supportsDimensionParam 支持请求时指定输出维度的模型
var supportsDimensionParam = map[string]bool{
	"text-embedding-3-small": true,
	"text-embedding-3-large": true,
}

// knownEmbeddingModels 允许配置的向量化模型
var knownEmbeddingModels = map[string]bool{
	"text-embedding-3-small": true,
	"text-embedding-3-large": true,
	"text-embedding-ada-002": true,
}

// IsKnownEmbeddingModel reports whether this service can index with the model.
func IsKnownEmbeddingModel(model string) bool {
	return knownEmbeddingModels[model]
}

// RequestDimensions returns the dimensions parameter to send for the model,
// zero when the model does not accept one.
func RequestDimensions(model string) int {
	if supportsDimensionParam[model] {
		return VectorDimension
	}
	return 0
}

// MaxEmbeddingInputTokens OpenAI 向量化接口单条输入的 token 上限
const MaxEmbeddingInputTokens = 8191

var (
	embeddingEncOnce sync.Once
	embeddingEnc     *tiktoken.Tiktoken
)

// TruncateForEmbedding clips text to the provider input limit. Same input
// always yields the same output, so re-embedding stays reproducible.
func TruncateForEmbedding(text string) string {
	embeddingEncOnce.Do(func() {
		embeddingEnc, _ = tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
	})

	if embeddingEnc == nil {
		runes := []rune(text)
		if len(runes) > MaxEmbeddingInputTokens*4 {
			return string(runes[:MaxEmbeddingInputTokens*4])
		}
		return text
	}

	tokens := embeddingEnc.Encode(text, nil, nil)
	if len(tokens) <= MaxEmbeddingInputTokens {
		return text
	}
	return embeddingEnc.Decode(tokens[:MaxEmbeddingInputTokens])
}
