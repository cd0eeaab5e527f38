package openai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/lo"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/prodpilot/prodpilot/pkg/ai"
)

const (
	NAME = "openai"

	batchMax   = 16
	maxRetries = 3
)

type Driver struct {
	client  *openai.Client
	model   ai.ModelName
	limiter *rate.Limiter
}

func New(token, proxy string, model ai.ModelName) *Driver {
	cfg := openai.DefaultConfig(token)
	if proxy != "" {
		cfg.BaseURL = proxy
	}

	if model.EmbeddingModel == "" {
		model.EmbeddingModel = string(openai.SmallEmbedding3)
	}

	return &Driver{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(5), 5),
	}
}

func (s *Driver) embedding(ctx context.Context, model string, content []string) (ai.EmbeddingResult, error) {
	slog.Debug("Embedding", slog.String("driver", NAME), slog.String("model", model))
	if model == "" {
		model = s.model.EmbeddingModel
	}

	queryReq := openai.EmbeddingRequest{
		Model:      openai.EmbeddingModel(model),
		Dimensions: ai.RequestDimensions(model),
	}

	r := ai.EmbeddingResult{
		Usage: &openai.Usage{},
	}

	content = lo.Map(content, func(text string, _ int) string {
		return ai.TruncateForEmbedding(text)
	})

	var result [][]float32
	for _, group := range lo.Chunk(content, batchMax) {
		if err := s.limiter.Wait(ctx); err != nil {
			return r, err
		}

		queryReq.Input = group
		resp, err := s.createEmbeddingsWithRetry(ctx, queryReq)
		if err != nil {
			return r, fmt.Errorf("Error creating embedding: %w", err)
		}
		for _, v := range resp.Data {
			result = append(result, v.Embedding)
		}

		r.Usage.CompletionTokens += resp.Usage.CompletionTokens
		r.Usage.PromptTokens += resp.Usage.PromptTokens
		r.Usage.TotalTokens += resp.Usage.TotalTokens
		r.Model = string(resp.Model)
	}

	r.Data = result

	return r, nil
}

// createEmbeddingsWithRetry retries rate-limit and upstream errors with
// exponential backoff. Request errors (4xx other than 429) fail immediately.
func (s *Driver) createEmbeddingsWithRetry(ctx context.Context, req openai.EmbeddingRequest) (openai.EmbeddingResponse, error) {
	var (
		resp openai.EmbeddingResponse
		err  error
	)
	backoff := time.Second
	for i := 0; i < maxRetries; i++ {
		resp, err = s.client.CreateEmbeddings(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !isRetryable(err) {
			return resp, err
		}

		slog.Warn("embedding request failed, will retry",
			slog.String("driver", NAME),
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return resp, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return resp, err
}

func isRetryable(err error) bool {
	if apiErr, ok := err.(*openai.APIError); ok {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	if reqErr, ok := err.(*openai.RequestError); ok {
		return reqErr.HTTPStatusCode == 0 || reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	// transport-level failures (timeouts, resets)
	return true
}

func (s *Driver) EmbeddingForQuery(ctx context.Context, model string, content []string) (ai.EmbeddingResult, error) {
	return s.embedding(ctx, model, content)
}

func (s *Driver) EmbeddingForDocument(ctx context.Context, model string, content []string) (ai.EmbeddingResult, error) {
	return s.embedding(ctx, model, content)
}
