package types

import (
	"context"
	"time"
)

// Cache is the minimal contract the retrieval layer needs for TTL-bounded
// result caching. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key, value string, expiresAt time.Duration) error
	Expire(ctx context.Context, key string, expiration time.Duration) error
}
