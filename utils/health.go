package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthStatus represents current status of the backing services. Services
// that are not configured are omitted.
type HealthStatus struct {
	Status    string    `json:"status"`
	Mongo     *bool     `json:"mongo,omitempty"`
	Redis     []bool    `json:"redis,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// HealthMonitor probes Redis and Mongo and keeps the latest snapshot.
type HealthMonitor struct {
	redisClients []*redis.Client
	mongoClient  *mongo.Client

	mu      sync.RWMutex
	current HealthStatus
}

// NewHealthMonitor returns a monitor. mongoClient may be nil.
func NewHealthMonitor(redisClients []*redis.Client, mongoClient *mongo.Client) *HealthMonitor {
	return &HealthMonitor{
		redisClients: redisClients,
		mongoClient:  mongoClient,
		current:      HealthStatus{Status: "ok"},
	}
}

// Status returns the latest stored health snapshot.
func (h *HealthMonitor) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Check probes every configured service now and stores the result.
func (h *HealthMonitor) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{Status: "ok", CheckedAt: time.Now()}

	for _, client := range h.redisClients {
		healthy := client.Ping(ctx).Err() == nil
		status.Redis = append(status.Redis, healthy)
		if !healthy {
			status.Status = "degraded"
		}
	}
	if h.mongoClient != nil {
		healthy := h.mongoClient.Ping(ctx, nil) == nil
		status.Mongo = &healthy
		if !healthy {
			status.Status = "degraded"
		}
	}

	h.mu.Lock()
	h.current = status
	h.mu.Unlock()
	return status
}

// Start performs periodic health checks until ctx is done.
func (h *HealthMonitor) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		h.Check(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.Check(ctx)
			}
		}
	}()
}
