package cache

import (
	"context"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/vieagent/vieagent/pkg/types"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is a process-local TTL cache. Entries are independent, so a
// concurrent map without cross-entry locking is enough.
type MemoryCache struct {
	entries cmap.ConcurrentMap[string, memoryEntry]
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: cmap.New[memoryEntry](),
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return "", nil
	}
	if time.Now().After(entry.expiresAt) {
		c.entries.Remove(key)
		return "", nil
	}
	return entry.value, nil
}

func (c *MemoryCache) SetEx(ctx context.Context, key, value string, expiresAt time.Duration) error {
	c.entries.Set(key, memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(expiresAt),
	})
	return nil
}

func (c *MemoryCache) Expire(ctx context.Context, key string, expiration time.Duration) error {
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil
	}
	entry.expiresAt = time.Now().Add(expiration)
	c.entries.Set(key, entry)
	return nil
}

var _ types.Cache = (*MemoryCache)(nil)
