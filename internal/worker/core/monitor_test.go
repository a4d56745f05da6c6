package core_test

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/bytedance/sonic"
	"github.com/mofucat/chatrank/internal/worker/core"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReportStatus(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	monitor := core.NewMonitor(client, zap.NewNop())

	err = monitor.ReportStatus(t.Context(), core.Status{
		WorkerID:    "worker-1",
		WorkerType:  "retention",
		CurrentTask: "Pruning old messages",
		IsHealthy:   true,
	})
	require.NoError(t, err)

	stored, err := mr.Get("worker:status:worker-1")
	require.NoError(t, err)

	var status core.Status
	require.NoError(t, sonic.Unmarshal([]byte(stored), &status))

	assert.Equal(t, "worker-1", status.WorkerID)
	assert.Equal(t, "retention", status.WorkerType)
	assert.True(t, status.IsHealthy)
	assert.False(t, status.ReportedAt.IsZero())

	// The status record expires when heartbeats stop.
	ttl := mr.TTL("worker:status:worker-1")
	assert.Equal(t, core.StatusTTL, ttl)
}
