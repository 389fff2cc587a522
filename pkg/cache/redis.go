package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v9"

	"github.com/vieagent/vieagent/pkg/types"
)

// RedisCache shares search results between instances. Optional; the retrieval
// layer treats any cache purely as an optimization.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisCache(client redis.UniversalClient, prefix string) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: prefix,
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (c *RedisCache) SetEx(ctx context.Context, key, value string, expiresAt time.Duration) error {
	return c.client.SetEx(ctx, c.prefix+key, value, expiresAt).Err()
}

func (c *RedisCache) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return c.client.Expire(ctx, c.prefix+key, expiration).Err()
}

var _ types.Cache = (*RedisCache)(nil)
