package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"
)

const DefaultEmbeddingCacheSize = 4096

// CachedEmbedder wraps an Embedder with a content-hash keyed cache so identical
// text is never re-embedded within a process lifetime. The cache is in-memory
// only; a cold start pays full embedding cost again. Entries are independent,
// so a concurrent map is enough for safe concurrent read/insert.
type CachedEmbedder struct {
	inner      Embedder
	entries    cmap.ConcurrentMap[string, []float32]
	maxEntries int

	mu    sync.Mutex
	order []string // insertion order, oldest evicted first
}

func NewCachedEmbedder(inner Embedder, maxEntries int) *CachedEmbedder {
	if maxEntries <= 0 {
		maxEntries = DefaultEmbeddingCacheSize
	}
	return &CachedEmbedder{
		inner:      inner,
		entries:    cmap.New[[]float32](),
		maxEntries: maxEntries,
	}
}

func (c *CachedEmbedder) ModelName() string {
	return c.inner.ModelName()
}

func (c *CachedEmbedder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(c.inner.ModelName() + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

func (c *CachedEmbedder) EmbeddingForQuery(ctx context.Context, content []string) (EmbeddingResult, error) {
	return c.embed(ctx, "", content, func(ctx context.Context, missing []string) (EmbeddingResult, error) {
		return c.inner.EmbeddingForQuery(ctx, missing)
	})
}

func (c *CachedEmbedder) EmbeddingForDocument(ctx context.Context, title string, content []string) (EmbeddingResult, error) {
	return c.embed(ctx, title, content, func(ctx context.Context, missing []string) (EmbeddingResult, error) {
		return c.inner.EmbeddingForDocument(ctx, title, missing)
	})
}

func (c *CachedEmbedder) embed(ctx context.Context, title string, content []string, fetch func(context.Context, []string) (EmbeddingResult, error)) (EmbeddingResult, error) {
	result := EmbeddingResult{
		Model:  c.inner.ModelName(),
		Data:   make([][]float32, len(content)),
		Errors: make([]error, len(content)),
	}

	var (
		missing    []string
		missingIdx []int
	)
	for i, text := range content {
		if vec, ok := c.entries.Get(c.cacheKey(text)); ok {
			result.Data[i] = vec
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return result, nil
	}

	fetched, err := fetch(ctx, missing)
	if err != nil {
		return result, err
	}

	result.Model = fetched.Model
	result.Usage = fetched.Usage

	for j, idx := range missingIdx {
		if j < len(fetched.Errors) && fetched.Errors[j] != nil {
			result.Errors[idx] = fetched.Errors[j]
			continue
		}
		if j >= len(fetched.Data) || fetched.Data[j] == nil {
			continue
		}
		result.Data[idx] = fetched.Data[j]
		c.store(c.cacheKey(missing[j]), fetched.Data[j])
	}

	return result, nil
}

func (c *CachedEmbedder) store(key string, vec []float32) {
	if c.entries.SetIfAbsent(key, vec) {
		c.mu.Lock()
		c.order = append(c.order, key)
		for len(c.order) > c.maxEntries {
			oldest := c.order[0]
			c.order = c.order[1:]
			c.entries.Remove(oldest)
		}
		c.mu.Unlock()
	}
}

// CacheLen is exposed for tests and metrics.
func (c *CachedEmbedder) CacheLen() int {
	return c.entries.Count()
}
