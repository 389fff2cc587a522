package selector

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vieagent/vieagent/pkg/types"
)

func testModels() []types.ModelConfig {
	return []types.ModelConfig{
		{
			ID:             "gpt-4o",
			Provider:       "openai",
			ContextWindow:  128000,
			PricePerKToken: decimal.NewFromFloat(0.01),
			Priority:       1,
			SupportsCode:   true,
		},
		{
			ID:             "gpt-4o-mini",
			Provider:       "openai",
			ContextWindow:  128000,
			PricePerKToken: decimal.NewFromFloat(0.0006),
			Priority:       2,
			SupportsCode:   true,
		},
		{
			ID:             "gemini-flash",
			Provider:       "gemini",
			ContextWindow:  1000000,
			PricePerKToken: decimal.NewFromFloat(0.0005),
			Priority:       3,
			SupportsCode:   false,
		},
	}
}

func newTestSelector(t *testing.T) *Selector {
	t.Helper()
	s, err := New(testModels(), DefaultScoreWeights(), nil, nil, nil)
	require.NoError(t, err)
	return s
}

func TestNewRequiresModels(t *testing.T) {
	_, err := New(nil, DefaultScoreWeights(), nil, nil, nil)
	assert.Error(t, err)
}

func TestSelectIsDeterministic(t *testing.T) {
	s := newTestSelector(t)
	sc := types.SelectionContext{Message: "what are your opening hours?"}

	first, err := s.Select(context.Background(), sc)
	require.NoError(t, err)
	second, err := s.Select(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, first.ModelID, second.ModelID)
	assert.Equal(t, first.Fallbacks, second.Fallbacks)
	assert.Len(t, first.Scores, 3)
	assert.NotEmpty(t, first.Reasoning)
}

func TestSelectFallbacksCoverAllOtherModels(t *testing.T) {
	s := newTestSelector(t)

	selection, err := s.Select(context.Background(), types.SelectionContext{Message: "hello"})
	require.NoError(t, err)

	assert.Len(t, selection.Fallbacks, 2)
	assert.NotContains(t, selection.Fallbacks, selection.ModelID)
}

func TestConsecutiveFailuresCollapseAvailability(t *testing.T) {
	s := newTestSelector(t)
	ctx := context.Background()
	sc := types.SelectionContext{Message: "hello"}

	before, err := s.Select(ctx, sc)
	require.NoError(t, err)
	victim := before.ModelID

	for i := 0; i < failureCollapseCount; i++ {
		require.NoError(t, s.RecordPerformance(ctx, victim, Outcome{LatencyMs: 100, Failed: true}))
	}

	after, err := s.Select(ctx, sc)
	require.NoError(t, err)
	assert.NotEqual(t, victim, after.ModelID)

	for _, score := range after.Scores {
		if score.ModelID == victim {
			assert.Zero(t, score.Availability)
		}
	}
}

func TestOneSuccessResetsCollapse(t *testing.T) {
	s := newTestSelector(t)
	ctx := context.Background()

	for i := 0; i < failureCollapseCount; i++ {
		require.NoError(t, s.RecordPerformance(ctx, "gpt-4o", Outcome{LatencyMs: 100, Failed: true}))
	}
	require.NoError(t, s.RecordPerformance(ctx, "gpt-4o", Outcome{LatencyMs: 100, QualityScore: 0.9}))

	stats := s.log.Stats("gpt-4o")
	assert.Zero(t, stats.ConsecutiveFailures)
	assert.Positive(t, stats.ErrorRate)
}

func TestPerformanceLogWindowIsBounded(t *testing.T) {
	log := NewPerformanceLog(10)

	for i := 0; i < 25; i++ {
		log.Append(types.ModelPerformance{ModelID: "m", LatencyMs: int64(i)})
	}

	window := log.Snapshot("m")
	require.Len(t, window, 10)
	// oldest records were evicted, newest kept
	assert.Equal(t, int64(15), window[0].LatencyMs)
	assert.Equal(t, int64(24), window[9].LatencyMs)
}

func TestStatsWeightsRecentFailuresHigher(t *testing.T) {
	recentFail := NewPerformanceLog(10)
	oldFail := NewPerformanceLog(10)

	recentFail.Append(types.ModelPerformance{ModelID: "m", QualityScore: 0.8})
	recentFail.Append(types.ModelPerformance{ModelID: "m", Failed: true})

	oldFail.Append(types.ModelPerformance{ModelID: "m", Failed: true})
	oldFail.Append(types.ModelPerformance{ModelID: "m", QualityScore: 0.8})

	assert.Greater(t, recentFail.Stats("m").ErrorRate, oldFail.Stats("m").ErrorRate)
}

func TestLatencyConstraintIsAdvisory(t *testing.T) {
	s := newTestSelector(t)
	ctx := context.Background()

	// every model is slower than the constraint
	for _, m := range testModels() {
		require.NoError(t, s.RecordPerformance(ctx, m.ID, Outcome{LatencyMs: 5000, QualityScore: 0.8}))
	}

	selection, err := s.Select(ctx, types.SelectionContext{Message: "hi", MaxLatencyMs: 100})
	require.NoError(t, err)
	assert.NotEmpty(t, selection.ModelID)
	assert.Len(t, selection.Scores, 3)
}

func TestComplexityEstimator(t *testing.T) {
	simple := DefaultComplexityEstimator(types.SelectionContext{Message: "hi"})
	code := DefaultComplexityEstimator(types.SelectionContext{Message: "```\nfunc main() {}\n```"})
	long := DefaultComplexityEstimator(types.SelectionContext{
		Message: strings.Repeat("explain this in detail ", 200),
		History: make([]string, 20),
	})

	assert.Less(t, simple, code)
	assert.Less(t, code, long)
	assert.LessOrEqual(t, long, 1.0)
}

func TestCodeRequestsPenalizeNonCodeModels(t *testing.T) {
	s := newTestSelector(t)

	selection, err := s.Select(context.Background(), types.SelectionContext{
		Message: "```sql\nSELECT * FROM orders WHERE total > 100\n```" + strings.Repeat(" please optimize this query", 60),
	})
	require.NoError(t, err)
	require.Greater(t, selection.Complexity, 0.5)

	var withCode, withoutCode float64
	for _, score := range selection.Scores {
		switch score.ModelID {
		case "gpt-4o-mini":
			withCode = score.ContextFit
		case "gemini-flash":
			withoutCode = score.ContextFit
		}
	}
	assert.Greater(t, withCode, withoutCode)
}

func TestSelectionsAuditTrailGrows(t *testing.T) {
	s := newTestSelector(t)
	ctx := context.Background()

	_, err := s.Select(ctx, types.SelectionContext{Message: "a"})
	require.NoError(t, err)
	_, err = s.Select(ctx, types.SelectionContext{Message: "b"})
	require.NoError(t, err)

	assert.Len(t, s.Selections(), 2)
}
