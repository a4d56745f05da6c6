// Package core provides shared infrastructure for background workers.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

const (
	// HeartbeatInterval is how often workers report their status.
	HeartbeatInterval = 30 * time.Second

	// StatusTTL is how long a reported status stays visible after the last
	// heartbeat. Expired keys mean the worker is gone.
	StatusTTL = 2 * time.Minute

	statusKeyPrefix = "worker:status:"
)

// Status is one worker's reported state.
type Status struct {
	WorkerID    string    `json:"workerId"`
	WorkerType  string    `json:"workerType"`
	CurrentTask string    `json:"currentTask"`
	IsHealthy   bool      `json:"isHealthy"`
	ReportedAt  time.Time `json:"reportedAt"`
}

// Monitor writes worker status records to Redis.
type Monitor struct {
	client rueidis.Client
	logger *zap.Logger
}

// NewMonitor creates a status monitor.
func NewMonitor(client rueidis.Client, logger *zap.Logger) *Monitor {
	return &Monitor{
		client: client,
		logger: logger.Named("worker_monitor"),
	}
}

// ReportStatus stores a worker's current status with a TTL.
func (m *Monitor) ReportStatus(ctx context.Context, status Status) error {
	status.ReportedAt = time.Now()

	encoded, err := sonic.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to encode worker status: %w", err)
	}

	key := statusKeyPrefix + status.WorkerID

	err = m.client.Do(ctx, m.client.B().Set().Key(key).Value(string(encoded)).
		Ex(StatusTTL).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to report worker status: %w", err)
	}

	return nil
}
