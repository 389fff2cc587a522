package selector

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/vieagent/vieagent/pkg/types"
	"github.com/vieagent/vieagent/pkg/utils"
)

// ScoreWeights blends the independent sub-scores into one ranking value.
type ScoreWeights struct {
	Quality      float64 `toml:"quality"`
	Cost         float64 `toml:"cost"`
	Speed        float64 `toml:"speed"`
	Availability float64 `toml:"availability"`
	ContextFit   float64 `toml:"context_fit"`
}

func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Quality:      0.3,
		Cost:         0.2,
		Speed:        0.15,
		Availability: 0.25,
		ContextFit:   0.1,
	}
}

// PerformanceStore persists observations beyond the in-memory window.
type PerformanceStore interface {
	Create(ctx context.Context, data types.ModelPerformance) error
}

// Outcome is one observed model call, fed back into future selections.
type Outcome struct {
	LatencyMs    int64
	Cost         decimal.Decimal
	QualityScore float64
	Failed       bool
}

// Selector scores candidate models per request. It is an explicitly
// constructed, injected service: the rolling performance state lives on the
// instance so tests can build isolated selectors.
type Selector struct {
	models   []types.ModelConfig
	weights  ScoreWeights
	log      *PerformanceLog
	store    PerformanceStore
	estimate ComplexityEstimator

	mu         sync.Mutex
	selections []types.ModelSelection // append-only audit trail
}

func New(models []types.ModelConfig, weights ScoreWeights, log *PerformanceLog, store PerformanceStore, estimate ComplexityEstimator) (*Selector, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("selector requires at least one model")
	}
	if log == nil {
		log = NewPerformanceLog(DefaultWindowSize)
	}
	if estimate == nil {
		estimate = DefaultComplexityEstimator
	}
	return &Selector{
		models:   models,
		weights:  weights,
		log:      log,
		store:    store,
		estimate: estimate,
	}, nil
}

// Select is deterministic given identical performance history and context:
// candidates are scored, sorted, and ties broken by the fixed priority order.
func (s *Selector) Select(ctx context.Context, sc types.SelectionContext) (*types.ModelSelection, error) {
	complexity := s.estimate(sc)

	candidates := s.models
	if sc.MaxLatencyMs > 0 {
		filtered := lo.Filter(candidates, func(m types.ModelConfig, _ int) bool {
			stats := s.log.Stats(m.ID)
			return stats.Samples == 0 || stats.AvgLatencyMs <= float64(sc.MaxLatencyMs)
		})
		// the latency constraint is advisory; never end up with zero candidates
		if len(filtered) > 0 {
			candidates = filtered
		}
	}

	scores := lo.Map(candidates, func(m types.ModelConfig, _ int) types.ModelScore {
		return s.score(m, complexity)
	})

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		sa, sb := scores[order[a]], scores[order[b]]
		if sa.Total != sb.Total {
			return sa.Total > sb.Total
		}
		ca, cb := candidates[order[a]], candidates[order[b]]
		if ca.Priority != cb.Priority {
			return ca.Priority < cb.Priority
		}
		return ca.ID < cb.ID
	})

	ranked := lo.Map(order, func(idx int, _ int) types.ModelScore {
		return scores[idx]
	})

	selection := types.ModelSelection{
		ModelID:    ranked[0].ModelID,
		Scores:     ranked,
		Complexity: complexity,
		SelectedAt: time.Now().Unix(),
	}
	for _, sc := range ranked[1:] {
		selection.Fallbacks = append(selection.Fallbacks, sc.ModelID)
	}
	selection.Reasoning = fmt.Sprintf("picked %s (total %.4f) among %d candidates at complexity %.2f",
		selection.ModelID, ranked[0].Total, len(ranked), complexity)

	s.mu.Lock()
	s.selections = append(s.selections, selection)
	s.mu.Unlock()

	slog.Debug("model selected",
		slog.String("model", selection.ModelID),
		slog.Float64("complexity", complexity),
		slog.Int("candidates", len(ranked)))

	return &selection, nil
}

func (s *Selector) score(m types.ModelConfig, complexity float64) types.ModelScore {
	stats := s.log.Stats(m.ID)

	score := types.ModelScore{ModelID: m.ID}

	// quality from historical feedback; neutral when nothing is known yet
	score.Quality = 0.5
	if stats.Samples > 0 && stats.AvgQuality > 0 {
		score.Quality = stats.AvgQuality
	}

	// cost: inverse of the per-token price
	price, _ := m.PricePerKToken.Float64()
	score.Cost = 1 / (1 + price)

	// speed: inverse of historical latency
	score.Speed = 0.5
	if stats.AvgLatencyMs > 0 {
		score.Speed = 1 / (1 + stats.AvgLatencyMs/1000)
	}

	// availability collapses after repeated failures so fallbacks get promoted
	score.Availability = 1 - stats.ErrorRate
	if stats.ConsecutiveFailures >= failureCollapseCount {
		score.Availability = 0
	}

	score.ContextFit = contextFit(m, complexity)

	score.Total = s.weights.Quality*score.Quality +
		s.weights.Cost*score.Cost +
		s.weights.Speed*score.Speed +
		s.weights.Availability*score.Availability +
		s.weights.ContextFit*score.ContextFit

	return score
}

// contextFit checks whether the model's window and capabilities match the
// request's estimated complexity.
func contextFit(m types.ModelConfig, complexity float64) float64 {
	// rough token need grows with complexity
	needed := 2000 + complexity*14000
	fit := 1.0
	if float64(m.ContextWindow) < needed {
		fit = float64(m.ContextWindow) / needed
	}
	if complexity > 0.5 && !m.SupportsCode {
		fit *= 0.7
	}
	return fit
}

// RecordPerformance appends to the rolling window and, when a store is wired,
// persists the observation. Appends never overwrite prior records.
func (s *Selector) RecordPerformance(ctx context.Context, modelID string, outcome Outcome) error {
	rec := types.ModelPerformance{
		ID:           utils.GenUniqIDStr(),
		ModelID:      modelID,
		LatencyMs:    outcome.LatencyMs,
		Cost:         outcome.Cost,
		QualityScore: outcome.QualityScore,
		Failed:       outcome.Failed,
		CreatedAt:    time.Now().Unix(),
	}

	s.log.Append(rec)

	if s.store != nil {
		if err := s.store.Create(ctx, rec); err != nil {
			return fmt.Errorf("failed to persist model performance record, %w", err)
		}
	}
	return nil
}

// Selections returns a copy of the audit trail.
func (s *Selector) Selections() []types.ModelSelection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.ModelSelection, len(s.selections))
	copy(out, s.selections)
	return out
}
