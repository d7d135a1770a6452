package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const healthPingTimeout = 2 * time.Second

// HealthCheck reports Redis connectivity for the health endpoint.
type HealthCheck struct {
	client *goredis.Client
}

// NewHealthCheck creates a Redis health checker.
func NewHealthCheck(client *goredis.Client) *HealthCheck {
	return &HealthCheck{client: client}
}

// Ping pings Redis with a bounded timeout.
func (h *HealthCheck) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	return h.client.Ping(ctx).Err()
}

// Name identifies the dependency in the health payload.
func (h *HealthCheck) Name() string {
	return "redis"
}
