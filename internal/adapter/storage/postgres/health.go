package postgres

import (
	"context"
	"time"
)

const healthPingTimeout = 2 * time.Second

// HealthCheck reports PostgreSQL connectivity for the health endpoint.
type HealthCheck struct {
	pool Pool
}

// NewHealthCheck creates a PostgreSQL health checker.
func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

// Ping pings the pool with a bounded timeout so a wedged database
// cannot stall the health endpoint.
func (h *HealthCheck) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	return h.pool.Ping(ctx)
}

// Name identifies the dependency in the health payload.
func (h *HealthCheck) Name() string {
	return "postgresql"
}
