package types

import (
	"fmt"
	"math"
)

// SearchConfig is validated at the call boundary. Out-of-range values are
// rejected, never clamped, so callers always get the behavior they asked for.
type SearchConfig struct {
	Collection     string  `json:"collection" toml:"collection"`
	Threshold      float64 `json:"threshold" toml:"threshold"`
	MaxResults     int     `json:"max_results" toml:"max_results"`
	SemanticWeight float64 `json:"semantic_weight" toml:"semantic_weight"`
	KeywordWeight  float64 `json:"keyword_weight" toml:"keyword_weight"`
	MaxTokens      int     `json:"max_tokens" toml:"max_tokens"`
	MaxSources     int     `json:"max_sources" toml:"max_sources"`
	TimeoutMs      int     `json:"timeout_ms" toml:"timeout_ms"`
}

const weightSumEpsilon = 1e-6

func (c SearchConfig) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("search threshold must be within [0,1], got %v", c.Threshold)
	}
	if c.MaxResults < 1 || c.MaxResults > 100 {
		return fmt.Errorf("max results must be within [1,100], got %d", c.MaxResults)
	}
	if math.Abs(c.SemanticWeight+c.KeywordWeight-1) > weightSumEpsilon {
		return fmt.Errorf("semantic weight (%v) and keyword weight (%v) must sum to 1", c.SemanticWeight, c.KeywordWeight)
	}
	if c.MaxTokens < 100 || c.MaxTokens > 50000 {
		return fmt.Errorf("max tokens must be within [100,50000], got %d", c.MaxTokens)
	}
	if c.TimeoutMs < 1000 || c.TimeoutMs > 60000 {
		return fmt.Errorf("timeout must be within [1000,60000]ms, got %d", c.TimeoutMs)
	}
	if c.MaxSources < 1 {
		return fmt.Errorf("max sources must be positive, got %d", c.MaxSources)
	}
	return nil
}

// CacheKey identifies a search result for the TTL cache. Cache hits are an
// optimization only, a miss reproduces identical ranking.
func (c SearchConfig) CacheKey(query string) string {
	return fmt.Sprintf("search:%s:%s:%.4f:%d:%.4f:%.4f:%d:%d", c.Collection, query,
		c.Threshold, c.MaxResults, c.SemanticWeight, c.KeywordWeight, c.MaxTokens, c.MaxSources)
}

// SearchChunk is one ranked piece of retrieved context.
type SearchChunk struct {
	Content    string  `json:"content"`
	SourceID   string  `json:"source_id"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
	Semantic   float64 `json:"semantic"`
	Keyword    float64 `json:"keyword"`
}

type SearchResult struct {
	Chunks []*SearchChunk `json:"chunks"`
	// UsedFallback is set when nothing cleared the threshold; callers must take
	// the general, non-knowledge-augmented response path.
	UsedFallback bool `json:"used_fallback"`
	TokenCount   int  `json:"token_count"`
	FromCache    bool `json:"from_cache"`
}

// IndexSummary reports the outcome of indexing one document.
type IndexSummary struct {
	DocumentID   string        `json:"document_id"`
	Stage        DocumentStage `json:"stage"`
	TotalChunks  int           `json:"total_chunks"`
	StoredChunks int           `json:"stored_chunks"`
	FailedChunks int           `json:"failed_chunks"`
	Skipped      bool          `json:"skipped"` // same content hash already indexed
	Errors       []string      `json:"errors,omitempty"`
}
