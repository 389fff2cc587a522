package core

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v9"
)

// DistributedSemaphore bounds concurrency across processes via Redis.
type DistributedSemaphore struct {
	redis      redis.UniversalClient
	key        string
	maxPermits int
	timeout    time.Duration
}

func NewDistributedSemaphore(redis redis.UniversalClient, key string, maxPermits int, timeout time.Duration) *DistributedSemaphore {
	return &DistributedSemaphore{
		redis:      redis,
		key:        key,
		maxPermits: maxPermits,
		timeout:    timeout,
	}
}

func (s *DistributedSemaphore) TryAcquire() bool {
	ctx := context.Background()

	script := `
		local key = KEYS[1]
		local max_permits = tonumber(ARGV[1])
		local timeout = tonumber(ARGV[2])

		local current = tonumber(redis.call('GET', key) or '0')

		if current < max_permits then
			redis.call('INCR', key)
			redis.call('EXPIRE', key, timeout)
			return 1
		else
			return 0
		end
	`

	result, err := s.redis.Eval(ctx, script, []string{s.key}, s.maxPermits, int(s.timeout.Seconds())).Int()
	if err != nil {
		return false
	}

	return result == 1
}

func (s *DistributedSemaphore) Release() {
	ctx := context.Background()

	// guard against decrementing below zero
	script := `
		local key = KEYS[1]
		local current = tonumber(redis.call('GET', key) or '0')

		if current > 0 then
			redis.call('DECR', key)
			return 1
		else
			return 0
		end
	`

	s.redis.Eval(ctx, script, []string{s.key})
}

func (s *DistributedSemaphore) GetCurrent() int {
	ctx := context.Background()
	result, err := s.redis.Get(ctx, s.key).Int()
	if err != nil {
		return 0
	}
	return result
}

// SemaphoreManager hands out the shared semaphores lazily.
type SemaphoreManager struct {
	core       *Core
	ingest     *DistributedSemaphore
	ingestOnce sync.Once
}

func NewSemaphoreManager(core *Core) *SemaphoreManager {
	return &SemaphoreManager{
		core: core,
	}
}

// Ingest limits how many folder ingestion runs may embed concurrently, so a
// burst of uploads cannot exhaust the embedding API quota.
func (m *SemaphoreManager) Ingest() *DistributedSemaphore {
	m.ingestOnce.Do(func() {
		maxConcurrency := 10
		if m.core.cfg.Semaphore.Ingest.MaxConcurrency > 0 {
			maxConcurrency = m.core.cfg.Semaphore.Ingest.MaxConcurrency
		}

		m.ingest = NewDistributedSemaphore(
			m.core.Redis(),
			"vieagent:semaphore:ingest",
			maxConcurrency,
			time.Minute*5,
		)
	})
	return m.ingest
}
