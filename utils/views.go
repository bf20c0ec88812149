package utils

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
)

const ViewsKeyPrefix = "views:"

// ViewCounter counts content views.
type ViewCounter interface {
	Increment(ctx context.Context, kind, id string) (int64, error)
}

// RedisViewCounter keeps counters in Redis.
type RedisViewCounter struct {
	client *redis.Client
}

func NewRedisViewCounter(client *redis.Client) *RedisViewCounter {
	return &RedisViewCounter{client: client}
}

func (r *RedisViewCounter) Increment(ctx context.Context, kind, id string) (int64, error) {
	n, err := r.client.Incr(ctx, ViewsKeyPrefix+kind+":"+id).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count view: %w", err)
	}
	return n, nil
}

// MemoryViewCounter keeps counters in process memory.
type MemoryViewCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewMemoryViewCounter() *MemoryViewCounter {
	return &MemoryViewCounter{counts: make(map[string]int64)}
}

func (m *MemoryViewCounter) Increment(_ context.Context, kind, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := kind + ":" + id
	m.counts[key]++
	return m.counts[key], nil
}
