package ai

import (
	"context"
	"fmt"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sashabaranov/go-openai"
)

type ModelName struct {
	ChatModel      string `toml:"chat_model"`
	EmbeddingModel string `toml:"embedding_model"`
}

// EmbeddingResult carries vectors in the same order as the request inputs.
// Errors is index-aligned; a nil entry means the input embedded successfully,
// and its Data slot is the vector. Failed inputs keep a nil Data slot so order
// is never lost on partial failure.
type EmbeddingResult struct {
	Model  string
	Usage  *openai.Usage
	Data   [][]float32
	Errors []error
}

func (r EmbeddingResult) Succeeded() int {
	n := 0
	for i, v := range r.Data {
		if v != nil && (len(r.Errors) <= i || r.Errors[i] == nil) {
			n++
		}
	}
	return n
}

func (r EmbeddingResult) Failed() int {
	n := 0
	for _, err := range r.Errors {
		if err != nil {
			n++
		}
	}
	return n
}

// Embedder converts text into fixed-length vectors. Both single-item (a
// one-element slice) and batch paths go through the same methods; the batch
// path must preserve input order.
type Embedder interface {
	EmbeddingForQuery(ctx context.Context, content []string) (EmbeddingResult, error)
	EmbeddingForDocument(ctx context.Context, title string, content []string) (EmbeddingResult, error)
	ModelName() string
}

type GenerateResponse struct {
	Message string
	Model   string
	Usage   *openai.Usage
}

// ChatDriver is the minimal completion contract the response path consumes.
// Model selection happens above this layer.
type ChatDriver interface {
	Query(ctx context.Context, model string, messages []openai.ChatCompletionMessage) (GenerateResponse, error)
}

const defaultTokenEncoding = "cl100k_base"

// NumTokens counts text tokens for budget accounting during context assembly.
func NumTokens(text string) (int, error) {
	enc, err := tiktoken.GetEncoding(defaultTokenEncoding)
	if err != nil {
		return 0, fmt.Errorf("failed to load token encoding, %w", err)
	}
	return len(enc.Encode(text, nil, nil)), nil
}
