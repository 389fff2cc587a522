package v1

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vieagent/vieagent/pkg/types"
)

func budgetConfig() types.SearchConfig {
	return types.SearchConfig{
		Collection:     "test",
		Threshold:      0.7,
		MaxResults:     10,
		SemanticWeight: 0.7,
		KeywordWeight:  0.3,
		MaxTokens:      4000,
		MaxSources:     5,
		TimeoutMs:      10000,
	}
}

func TestTokenizeLatin(t *testing.T) {
	tokens := tokenize("Hello, World! hello again")
	assert.ElementsMatch(t, []string{"hello", "world", "again"}, tokens)
}

func TestTokenizeCJKSplitsRunes(t *testing.T) {
	tokens := tokenize("你好世界")
	assert.ElementsMatch(t, []string{"你", "好", "世", "界"}, tokens)
}

func TestTokenizeVietnameseKeepsDiacritics(t *testing.T) {
	tokens := tokenize("xin chào thế giới")
	assert.Contains(t, tokens, "chào")
	assert.Contains(t, tokens, "thế")
}

func TestKeywordScore(t *testing.T) {
	tokens := tokenize("shipping cost vietnam")

	assert.Equal(t, 1.0, keywordScore(tokens, "Shipping cost to Vietnam is 5 USD"))
	assert.InDelta(t, 1.0/3, keywordScore(tokens, "we only talk about shipping here"), 1e-9)
	assert.Equal(t, 0.0, keywordScore(tokens, "unrelated content"))
	assert.Equal(t, 0.0, keywordScore(nil, "anything"))
}

func rankedChunks() []*types.SearchChunk {
	return []*types.SearchChunk{
		{Content: "chunk one", SourceID: "doc-a", ChunkIndex: 0, Score: 0.95},
		{Content: "chunk two", SourceID: "doc-a", ChunkIndex: 1, Score: 0.90},
		{Content: "chunk three", SourceID: "doc-b", ChunkIndex: 0, Score: 0.85},
		{Content: "chunk four", SourceID: "doc-c", ChunkIndex: 0, Score: 0.80},
	}
}

func TestApplyBudgetMaxResults(t *testing.T) {
	cfg := budgetConfig()
	cfg.MaxResults = 2

	out, tokens := applyBudget(rankedChunks(), cfg)
	require.Len(t, out, 2)
	assert.Positive(t, tokens)
	assert.Equal(t, "chunk one", out[0].Content)
	assert.Equal(t, "chunk two", out[1].Content)
}

func TestApplyBudgetMaxSourcesSkipsNewSourcesOnly(t *testing.T) {
	cfg := budgetConfig()
	cfg.MaxSources = 2

	out, _ := applyBudget(rankedChunks(), cfg)
	require.Len(t, out, 3)

	// doc-c is skipped once two sources are admitted; doc-a's second chunk
	// still passes because its source is already counted
	for _, chunk := range out {
		assert.NotEqual(t, "doc-c", chunk.SourceID)
	}
}

func TestApplyBudgetTokenLimitAdmitsAtLeastOneChunk(t *testing.T) {
	cfg := budgetConfig()
	cfg.MaxTokens = 100

	big := []*types.SearchChunk{
		{Content: strings.Repeat("exceeds the whole budget alone ", 100), SourceID: "doc-a", ChunkIndex: 0, Score: 0.9},
		{Content: "never admitted", SourceID: "doc-b", ChunkIndex: 0, Score: 0.8},
	}
	out, tokens := applyBudget(big, cfg)
	require.Len(t, out, 1)
	assert.Greater(t, tokens, cfg.MaxTokens)
	assert.Equal(t, "doc-a", out[0].SourceID)
}

func TestSearchConfigValidate(t *testing.T) {
	valid := budgetConfig()
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.Threshold = 1.5
	assert.Error(t, bad.Validate())

	bad = valid
	bad.SemanticWeight = 0.5
	bad.KeywordWeight = 0.6
	assert.Error(t, bad.Validate())

	// float noise inside epsilon still passes
	ok := valid
	ok.SemanticWeight = 0.1 + 0.2
	ok.KeywordWeight = 0.7
	assert.NoError(t, ok.Validate())

	bad = valid
	bad.MaxResults = 0
	assert.Error(t, bad.Validate())

	bad = valid
	bad.TimeoutMs = 100
	assert.Error(t, bad.Validate())
}

func TestSearchConfigCacheKeyDistinguishesParameters(t *testing.T) {
	a := budgetConfig()
	b := budgetConfig()
	b.Threshold = 0.8

	assert.NotEqual(t, a.CacheKey("q"), b.CacheKey("q"))
	assert.NotEqual(t, a.CacheKey("q1"), a.CacheKey("q2"))
	assert.Equal(t, a.CacheKey("q"), budgetConfig().CacheKey("q"))
}

func TestSearchFallbackWhenNothingClearsThreshold(t *testing.T) {
	ms := newMemStore()
	embedder := &stubEmbedder{}
	logic := NewSearchLogic(context.Background(), newTestCore(ms, embedder))

	ctx := context.Background()
	require.NoError(t, ms.DocumentChunkStore().Create(ctx, types.DocumentChunk{
		ID:         "chunk-1",
		DocumentID: "doc-1",
		Collection: "kb",
		Content:    "warranty terms for electronics",
	}))
	ms.queryResults = []types.VectorQueryResult{
		{ID: "chunk-1", DocumentID: "doc-1", Cos: 0.05},
	}

	cfg := budgetConfig()
	cfg.Collection = "kb"
	cfg.Threshold = 0.9

	result, err := logic.Search("completely different topic", cfg)
	require.NoError(t, err)

	// nothing cleared the threshold: empty result flagged for the caller's
	// non-augmented path, not an error
	assert.True(t, result.UsedFallback)
	assert.Empty(t, result.Chunks)
	assert.Equal(t, 1, embedder.queryCalls)
}

func TestSearchReturnsRankedChunksAndCaches(t *testing.T) {
	ms := newMemStore()
	embedder := &stubEmbedder{}
	logic := NewSearchLogic(context.Background(), newTestCore(ms, embedder))

	ctx := context.Background()
	require.NoError(t, ms.DocumentChunkStore().Create(ctx, types.DocumentChunk{
		ID:         "chunk-1",
		DocumentID: "doc-1",
		Collection: "kb",
		Content:    "warranty terms for electronics purchases",
	}))
	ms.queryResults = []types.VectorQueryResult{
		{ID: "chunk-1", DocumentID: "doc-1", Cos: 0.9},
	}

	cfg := budgetConfig()
	cfg.Collection = "kb"

	result, err := logic.Search("warranty electronics", cfg)
	require.NoError(t, err)
	assert.False(t, result.UsedFallback)
	assert.False(t, result.FromCache)
	require.Len(t, result.Chunks, 1)
	assert.Equal(t, "doc-1", result.Chunks[0].SourceID)
	assert.InDelta(t, 0.7*0.9+0.3*1.0, result.Chunks[0].Score, 1e-9)

	// identical query is served from the cache without a second embedding
	again, err := logic.Search("warranty electronics", cfg)
	require.NoError(t, err)
	assert.True(t, again.FromCache)
	require.Len(t, again.Chunks, 1)
	assert.Equal(t, 1, embedder.queryCalls)
}
