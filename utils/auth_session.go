package utils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// RevocationList remembers logged-out tokens until they would have expired
// anyway. Tokens are stored by hash.
type RevocationList interface {
	Revoke(ctx context.Context, token string, until time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// RedisRevocationList keeps revoked token hashes in Redis.
type RedisRevocationList struct {
	client *redis.Client
}

func NewRedisRevocationList(client *redis.Client) *RedisRevocationList {
	return &RedisRevocationList{client: client}
}

func (r *RedisRevocationList) Revoke(ctx context.Context, token string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, RevokedKeyPrefix+HashToken(token), 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (r *RedisRevocationList) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, RevokedKeyPrefix+HashToken(token)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}
	return n > 0, nil
}

// MemoryRevocationList keeps revoked token hashes in process memory.
type MemoryRevocationList struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewMemoryRevocationList() *MemoryRevocationList {
	return &MemoryRevocationList{revoked: make(map[string]time.Time)}
}

func (m *MemoryRevocationList) Revoke(_ context.Context, token string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for hash, exp := range m.revoked {
		if now.After(exp) {
			delete(m.revoked, hash)
		}
	}
	m.revoked[HashToken(token)] = until
	return nil
}

func (m *MemoryRevocationList) IsRevoked(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.revoked[HashToken(token)]
	return ok && time.Now().Before(until), nil
}
