package openai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/vieagent/vieagent/pkg/ai"
)

const (
	NAME = "openai"

	// batchMax keeps embedding requests small enough for the API's input limits.
	batchMax = 6

	embeddingDimensions = 1024
)

type Driver struct {
	client  *openai.Client
	model   ai.ModelName
	limiter *rate.Limiter
}

// New builds the OpenAI driver. The rate limiter bounds embedding fan-out so
// batch indexing cannot overwhelm the API.
func New(token, proxy string, model ai.ModelName, rps float64) *Driver {
	cfg := openai.DefaultConfig(token)
	if proxy != "" {
		cfg.BaseURL = proxy
	}

	if model.ChatModel == "" {
		model.ChatModel = openai.GPT4oMini
	}
	if model.EmbeddingModel == "" {
		model.EmbeddingModel = string(openai.LargeEmbedding3)
	}
	if rps <= 0 {
		rps = 5
	}

	return &Driver{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (s *Driver) ModelName() string {
	return s.model.EmbeddingModel
}

func (s *Driver) embedding(ctx context.Context, title string, content []string) (ai.EmbeddingResult, error) {
	slog.Debug("Embedding", slog.String("driver", NAME), slog.Int("inputs", len(content)))

	queryReq := openai.EmbeddingRequest{
		Model:      openai.EmbeddingModel(s.model.EmbeddingModel),
		Dimensions: embeddingDimensions,
	}

	r := ai.EmbeddingResult{
		Model:  s.model.EmbeddingModel,
		Usage:  &openai.Usage{},
		Data:   make([][]float32, len(content)),
		Errors: make([]error, len(content)),
	}

	for start := 0; start < len(content); start += batchMax {
		end := start + batchMax
		if end > len(content) {
			end = len(content)
		}
		group := content[start:end]

		if err := s.limiter.Wait(ctx); err != nil {
			return r, err
		}

		queryReq.Input = group
		resp, err := retry.DoWithData(func() (openai.EmbeddingResponse, error) {
			return s.client.CreateEmbeddings(ctx, queryReq)
		},
			retry.Context(ctx),
			retry.Attempts(3),
			retry.Delay(time.Millisecond*200),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
		)
		if err != nil {
			// one bad group must not abort the rest of the batch
			groupErr := fmt.Errorf("error creating embedding: %w", err)
			for i := start; i < end; i++ {
				r.Errors[i] = groupErr
			}
			slog.Error("embedding group failed after retries",
				slog.String("driver", NAME), slog.Int("group_start", start), slog.String("error", err.Error()))
			continue
		}

		for i, v := range resp.Data {
			r.Data[start+i] = v.Embedding
		}

		r.Usage.CompletionTokens += resp.Usage.CompletionTokens
		r.Usage.PromptTokens += resp.Usage.PromptTokens
		r.Usage.TotalTokens += resp.Usage.TotalTokens
		if resp.Model != "" {
			r.Model = string(resp.Model)
		}
	}

	if r.Succeeded() == 0 && len(content) > 0 {
		return r, fmt.Errorf("all %d embedding inputs failed", len(content))
	}

	return r, nil
}

func (s *Driver) EmbeddingForQuery(ctx context.Context, content []string) (ai.EmbeddingResult, error) {
	return s.embedding(ctx, "", content)
}

func (s *Driver) EmbeddingForDocument(ctx context.Context, title string, content []string) (ai.EmbeddingResult, error) {
	return s.embedding(ctx, title, content)
}

func (s *Driver) Query(ctx context.Context, model string, messages []openai.ChatCompletionMessage) (ai.GenerateResponse, error) {
	if model == "" {
		model = s.model.ChatModel
	}

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}

	var result ai.GenerateResponse
	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return result, fmt.Errorf("completion error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return result, fmt.Errorf("completion returned no choices")
	}

	slog.Debug("Query", slog.String("driver", NAME), slog.String("model", model))

	result.Message = resp.Choices[0].Message.Content
	result.Model = resp.Model
	result.Usage = &resp.Usage
	return result, nil
}
