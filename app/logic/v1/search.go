package v1

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/abadojack/whatlanggo"
	"github.com/avast/retry-go/v4"
	"github.com/pgvector/pgvector-go"
	"github.com/samber/lo"

	"github.com/vieagent/vieagent/app/core"
	"github.com/vieagent/vieagent/pkg/ai"
	"github.com/vieagent/vieagent/pkg/errors"
	"github.com/vieagent/vieagent/pkg/types"
)

const (
	// candidateFactor over-fetches vector candidates so keyword blending has
	// something to reorder before the final cut.
	candidateFactor = 4

	defaultCacheTTL = time.Minute * 5
)

type SearchLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewSearchLogic(ctx context.Context, core *core.Core) *SearchLogic {
	return &SearchLogic{
		ctx:  ctx,
		core: core,
	}
}

// Search runs hybrid retrieval: vector similarity blended with keyword
// matching. Config validation happens before any external call so a bad
// request never costs an embedding.
func (l *SearchLogic) Search(query string, cfg types.SearchConfig) (*types.SearchResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.New("SearchLogic.Search.Validate", err.Error(), err).Code(http.StatusBadRequest)
	}
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("SearchLogic.Search.EmptyQuery", "query must not be empty", nil).Code(http.StatusBadRequest)
	}

	timer := l.core.Metrics().SearchTimer(cfg.Collection)
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(l.ctx, time.Duration(cfg.TimeoutMs)*time.Millisecond)
	defer cancel()

	cacheKey := cfg.CacheKey(query)
	if cached, err := l.core.Cache().Get(ctx, cacheKey); err == nil && cached != "" {
		var result types.SearchResult
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			result.FromCache = true
			l.core.Metrics().SearchCacheHitInc(cfg.Collection)
			return &result, nil
		}
	}

	embedding, err := l.core.Srv().AI().Embedder().EmbeddingForQuery(ctx, []string{query})
	if err != nil {
		return nil, errors.New("SearchLogic.Search.EmbeddingForQuery", "embedding failed", err)
	}
	if embedding.Succeeded() == 0 {
		return nil, errors.New("SearchLogic.Search.EmbeddingForQuery.empty", "embedding failed", nil)
	}

	candidates, err := retry.DoWithData(func() ([]types.VectorQueryResult, error) {
		return l.core.Store().VectorStore().Query(ctx, types.GetVectorsOptions{
			Collection: cfg.Collection,
		}, pgvector.NewVector(embedding.Data[0]), uint64(cfg.MaxResults*candidateFactor))
	},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(time.Millisecond*100),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, errors.New("SearchLogic.Search.VectorStore.Query", "internal error", err)
	}

	queryTokens := tokenize(query)

	var chunks []*types.SearchChunk
	for _, candidate := range candidates {
		chunk, err := l.core.Store().DocumentChunkStore().Get(ctx, cfg.Collection, candidate.DocumentID, candidate.ID)
		if err != nil {
			slog.Warn("search candidate has no chunk record",
				slog.String("collection", cfg.Collection),
				slog.String("chunk_id", candidate.ID),
				slog.Any("error", err))
			continue
		}

		semantic := float64(candidate.Cos)
		keyword := keywordScore(queryTokens, chunk.Content)
		score := cfg.SemanticWeight*semantic + cfg.KeywordWeight*keyword

		if score < cfg.Threshold {
			continue
		}

		chunks = append(chunks, &types.SearchChunk{
			Content:    chunk.Content,
			SourceID:   chunk.DocumentID,
			ChunkIndex: chunk.ChunkIndex,
			Score:      score,
			Semantic:   semantic,
			Keyword:    keyword,
		})
	}

	result := &types.SearchResult{}

	if len(chunks) == 0 {
		// nothing cleared the threshold; the caller falls back to the
		// non-augmented response path
		result.UsedFallback = true
		l.core.Metrics().SearchFallbackInc(cfg.Collection)
	} else {
		sort.SliceStable(chunks, func(a, b int) bool {
			if chunks[a].Score != chunks[b].Score {
				return chunks[a].Score > chunks[b].Score
			}
			return chunks[a].ChunkIndex < chunks[b].ChunkIndex
		})

		result.Chunks, result.TokenCount = applyBudget(chunks, cfg)
	}

	if raw, err := json.Marshal(result); err == nil {
		ttl := defaultCacheTTL
		if sec := l.core.Cfg().Retrieval.CacheTTLSec; sec > 0 {
			ttl = time.Duration(sec) * time.Second
		}
		if err = l.core.Cache().SetEx(ctx, cacheKey, string(raw), ttl); err != nil {
			slog.Warn("failed to cache search result", slog.String("key", cacheKey), slog.Any("error", err))
		}
	}

	return result, nil
}

// applyBudget enforces the result, source and token limits in ranked order.
func applyBudget(chunks []*types.SearchChunk, cfg types.SearchConfig) ([]*types.SearchChunk, int) {
	var (
		out     []*types.SearchChunk
		sources = map[string]struct{}{}
		tokens  int
	)

	for _, chunk := range chunks {
		if len(out) >= cfg.MaxResults {
			break
		}

		if _, seen := sources[chunk.SourceID]; !seen {
			if len(sources) >= cfg.MaxSources {
				continue
			}
		}

		n, err := ai.NumTokens(chunk.Content)
		if err != nil {
			n = len([]rune(chunk.Content)) / 4
		}
		if tokens+n > cfg.MaxTokens && len(out) > 0 {
			break
		}

		sources[chunk.SourceID] = struct{}{}
		tokens += n
		out = append(out, chunk)
	}

	return out, tokens
}

// tokenize lowercases and splits on non-letter/digit boundaries; CJK text is
// split into single runes since it has no word delimiters.
func tokenize(text string) []string {
	info := whatlanggo.Detect(text)
	cjk := info.Script == unicode.Han || info.Script == unicode.Hiragana ||
		info.Script == unicode.Katakana || info.Script == unicode.Hangul

	var tokens []string
	if cjk {
		for _, r := range text {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				tokens = append(tokens, string(r))
			}
		}
		return lo.Uniq(tokens)
	}

	tokens = strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return lo.Uniq(tokens)
}

// keywordScore is the fraction of query tokens present in the content.
func keywordScore(queryTokens []string, content string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}

	haystack := strings.ToLower(content)
	matched := 0
	for _, token := range queryTokens {
		if strings.Contains(haystack, token) {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTokens))
}
