package srv

import (
	"github.com/vieagent/vieagent/pkg/ai"
	"github.com/vieagent/vieagent/pkg/selector"
	"github.com/vieagent/vieagent/pkg/types"
)

type Srv struct {
	ai       *AI
	selector *selector.Selector
}

type ApplyFunc func(*Srv)

func SetupSrvs(opts ...ApplyFunc) *Srv {
	a := &Srv{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func ApplyAI(cfg AIConfig) ApplyFunc {
	return func(s *Srv) {
		ai, err := SetupAI(cfg)
		if err != nil {
			panic(err)
		}
		s.ai = ai
	}
}

// ApplyEmbedder wires a prebuilt embedding driver directly, bypassing the
// config-driven provider setup.
func ApplyEmbedder(driver ai.Embedder) ApplyFunc {
	return func(s *Srv) {
		s.ai = &AI{
			embedDrivers: map[string]ai.Embedder{driver.ModelName(): driver},
			chatDrivers:  make(map[string]ai.ChatDriver),
			embedDefault: driver,
		}
	}
}

func ApplySelector(models []types.ModelConfig, weights selector.ScoreWeights, store selector.PerformanceStore) ApplyFunc {
	return func(s *Srv) {
		if len(models) == 0 {
			return
		}
		sel, err := selector.New(models, weights, nil, store, nil)
		if err != nil {
			panic(err)
		}
		s.selector = sel
	}
}

func (s *Srv) AI() *AI {
	return s.ai
}

func (s *Srv) Selector() *selector.Selector {
	return s.selector
}

// ReloadAI rebuilds the driver set from a fresh config.
func (s *Srv) ReloadAI(cfg AIConfig) error {
	news, err := SetupAI(cfg)
	if err != nil {
		return err
	}
	s.ai = news
	return nil
}

func (s *Srv) GetAIStatus() map[string]interface{} {
	if s.ai == nil {
		return map[string]interface{}{
			"status": "not_initialized",
		}
	}

	return map[string]interface{}{
		"status":          "running",
		"chat_available":  s.ai.chatDefault != nil,
		"embed_available": s.ai.embedDefault != nil,
	}
}
