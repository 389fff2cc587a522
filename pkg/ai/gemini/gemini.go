package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/vieagent/vieagent/pkg/ai"
)

const (
	NAME = "gemini"

	defaultEmbeddingModel = "embedding-001"
)

type Driver struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, token, model string) (*Driver, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(token))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client, %w", err)
	}

	if model == "" {
		model = defaultEmbeddingModel
	}

	return &Driver{
		client: client,
		model:  model,
	}, nil
}

func (s *Driver) ModelName() string {
	return s.model
}

// embedding loops items one by one; the gemini embedding API has no batch
// endpoint, so order preservation is structural.
func (s *Driver) embedding(ctx context.Context, title string, content []string) (ai.EmbeddingResult, error) {
	slog.Debug("Embedding", slog.String("driver", NAME), slog.Int("inputs", len(content)))

	em := s.client.EmbeddingModel(s.model)
	if title != "" {
		em.TaskType = genai.TaskTypeRetrievalDocument
	} else {
		em.TaskType = genai.TaskTypeRetrievalQuery
	}

	r := ai.EmbeddingResult{
		Model:  s.model,
		Data:   make([][]float32, len(content)),
		Errors: make([]error, len(content)),
	}

	for i, text := range content {
		res, err := em.EmbedContentWithTitle(ctx, title, genai.Text(text))
		if err != nil {
			r.Errors[i] = err
			continue
		}
		r.Data[i] = res.Embedding.Values
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
