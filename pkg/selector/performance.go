package selector

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/vieagent/vieagent/pkg/types"
)

const (
	// DefaultWindowSize bounds the rolling window kept per model.
	DefaultWindowSize = 200

	// failureCollapseCount is how many consecutive failures zero out a
	// model's availability score.
	failureCollapseCount = 5

	// recencyDecay weights newer observations more when computing error rates.
	recencyDecay = 0.9
)

// PerformanceLog is the rolling, append-only record of model outcomes.
// Concurrent writers append under a mutex; records are never overwritten, so
// no observation can be lost to a racing writer.
type PerformanceLog struct {
	mu         sync.RWMutex
	windowSize int
	records    map[string][]types.ModelPerformance
}

func NewPerformanceLog(windowSize int) *PerformanceLog {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &PerformanceLog{
		windowSize: windowSize,
		records:    make(map[string][]types.ModelPerformance),
	}
}

func (l *PerformanceLog) Append(rec types.ModelPerformance) {
	l.mu.Lock()
	defer l.mu.Unlock()

	window := append(l.records[rec.ModelID], rec)
	if len(window) > l.windowSize {
		window = window[len(window)-l.windowSize:]
	}
	l.records[rec.ModelID] = window
}

func (l *PerformanceLog) Snapshot(modelID string) []types.ModelPerformance {
	l.mu.RLock()
	defer l.mu.RUnlock()

	window := l.records[modelID]
	out := make([]types.ModelPerformance, len(window))
	copy(out, window)
	return out
}

// ModelStats summarizes a model's rolling window for scoring.
type ModelStats struct {
	Samples             int
	AvgLatencyMs        float64
	AvgQuality          float64
	TotalCost           decimal.Decimal
	ErrorRate           float64 // recency weighted
	ConsecutiveFailures int
}

func (l *PerformanceLog) Stats(modelID string) ModelStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	window := l.records[modelID]
	stats := ModelStats{Samples: len(window), TotalCost: decimal.Zero}
	if len(window) == 0 {
		return stats
	}

	var (
		latencySum float64
		qualitySum float64
		qualityN   int
		weight     = 1.0
		weightSum  float64
		failureSum float64
	)

	// iterate newest to oldest so decay favors recent observations
	for i := len(window) - 1; i >= 0; i-- {
		rec := window[i]
		weightSum += weight
		if rec.Failed {
			failureSum += weight
		}
		weight *= recencyDecay

		stats.TotalCost = stats.TotalCost.Add(rec.Cost)
		if !rec.Failed {
			latencySum += float64(rec.LatencyMs)
			qualitySum += rec.QualityScore
			qualityN++
		}
	}

	for i := len(window) - 1; i >= 0; i-- {
		if !window[i].Failed {
			break
		}
		stats.ConsecutiveFailures++
	}

	if qualityN > 0 {
		stats.AvgLatencyMs = latencySum / float64(qualityN)
		stats.AvgQuality = qualitySum / float64(qualityN)
	}
	if weightSum > 0 {
		stats.ErrorRate = failureSum / weightSum
	}

	return stats
}
