package srv

import (
	"context"
	"fmt"

	"github.com/vieagent/vieagent/pkg/ai"
	"github.com/vieagent/vieagent/pkg/ai/gemini"
	"github.com/vieagent/vieagent/pkg/ai/openai"
)

type AIConfig struct {
	// Driver names the default embedding backend, "openai" or "gemini".
	Driver         string       `toml:"driver"`
	EmbedCacheSize int          `toml:"embed_cache_size"`
	OpenAI         OpenAIConfig `toml:"openai"`
	Gemini         GeminiConfig `toml:"gemini"`
}

type OpenAIConfig struct {
	Token          string  `toml:"token"`
	Endpoint       string  `toml:"endpoint"`
	ChatModel      string  `toml:"chat_model"`
	EmbeddingModel string  `toml:"embedding_model"`
	RPS            float64 `toml:"rps"`
}

type GeminiConfig struct {
	Token          string `toml:"token"`
	EmbeddingModel string `toml:"embedding_model"`
}

// AI holds the configured model drivers. Every embedder is wrapped in the
// shared embedding cache before anything downstream sees it.
type AI struct {
	embedDrivers map[string]ai.Embedder
	chatDrivers  map[string]ai.ChatDriver

	embedDefault ai.Embedder
	chatDefault  ai.ChatDriver
}

func SetupAI(cfg AIConfig) (*AI, error) {
	a := &AI{
		embedDrivers: make(map[string]ai.Embedder),
		chatDrivers:  make(map[string]ai.ChatDriver),
	}

	if cfg.OpenAI.Token != "" {
		driver := openai.New(cfg.OpenAI.Token, cfg.OpenAI.Endpoint, ai.ModelName{
			ChatModel:      cfg.OpenAI.ChatModel,
			EmbeddingModel: cfg.OpenAI.EmbeddingModel,
		}, cfg.OpenAI.RPS)
		a.embedDrivers[openai.NAME] = driver
		a.chatDrivers[openai.NAME] = driver
	}

	if cfg.Gemini.Token != "" {
		driver, err := gemini.New(context.Background(), cfg.Gemini.Token, cfg.Gemini.EmbeddingModel)
		if err != nil {
			return nil, fmt.Errorf("failed to setup gemini driver, %w", err)
		}
		a.embedDrivers[gemini.NAME] = driver
	}

	if len(a.embedDrivers) == 0 {
		return nil, fmt.Errorf("no ai driver configured")
	}

	name := cfg.Driver
	if name == "" {
		name = openai.NAME
	}

	embedDefault, ok := a.embedDrivers[name]
	if !ok {
		return nil, fmt.Errorf("unknown ai driver %q", name)
	}
	a.embedDefault = ai.NewCachedEmbedder(embedDefault, cfg.EmbedCacheSize)

	if chat, ok := a.chatDrivers[name]; ok {
		a.chatDefault = chat
	} else {
		for _, d := range a.chatDrivers {
			a.chatDefault = d
			break
		}
	}

	return a, nil
}

func (s *AI) Embedder() ai.Embedder {
	return s.embedDefault
}

func (s *AI) Chat() ai.ChatDriver {
	return s.chatDefault
}

func (s *AI) EmbedDriver(name string) (ai.Embedder, bool) {
	d, ok := s.embedDrivers[name]
	return d, ok
}
