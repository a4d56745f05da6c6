// Package retention implements the message log pruning worker.
package retention

import (
	"context"
	"time"

	"github.com/mofucat/chatrank/internal/database"
	"github.com/mofucat/chatrank/internal/setup"
	"github.com/mofucat/chatrank/internal/worker/core"
	"go.uber.org/zap"
)

const (
	defaultMaxAgeDays    = 30
	defaultIntervalHours = 24
)

// Worker prunes message log rows past the retention horizon. Pruning is
// storage hygiene only; it never touches the live counters.
type Worker struct {
	db       database.Client
	reporter *core.StatusReporter
	logger   *zap.Logger
	maxAge   time.Duration
	interval time.Duration
}

// New creates a retention worker from the app bundle.
func New(app *setup.App, logger *zap.Logger) *Worker {
	maxAgeDays := app.Config.Worker.Retention.MaxAgeDays
	if maxAgeDays <= 0 {
		maxAgeDays = defaultMaxAgeDays
	}

	intervalHours := app.Config.Worker.Retention.IntervalHours
	if intervalHours <= 0 {
		intervalHours = defaultIntervalHours
	}

	return &Worker{
		db:       app.DB,
		reporter: core.NewStatusReporter(app.StatusClient, "retention", logger),
		logger:   logger.Named("retention"),
		maxAge:   time.Duration(maxAgeDays) * 24 * time.Hour,
		interval: time.Duration(intervalHours) * time.Hour,
	}
}

// Start runs the pruning loop until the context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Retention worker started",
		zap.String("workerID", w.reporter.GetWorkerID()),
		zap.Duration("maxAge", w.maxAge),
		zap.Duration("interval", w.interval))

	w.reporter.Start(ctx)
	defer w.reporter.Stop()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.prune(ctx)

	for {
		select {
		case <-ticker.C:
			w.prune(ctx)
		case <-ctx.Done():
			w.logger.Info("Retention worker stopped")
			return
		}
	}
}

func (w *Worker) prune(ctx context.Context) {
	w.reporter.UpdateStatus("Pruning old messages")
	defer w.reporter.UpdateStatus("Idle")

	cutoff := time.Now().Add(-w.maxAge)

	pruned, err := w.db.Model().Activity().PruneMessagesBefore(ctx, cutoff)
	if err != nil {
		w.reporter.SetHealthy(false)
		w.logger.Error("Failed to prune old messages", zap.Error(err))

		return
	}

	w.reporter.SetHealthy(true)
	w.logger.Info("Pruned old messages",
		zap.Time("cutoff", cutoff),
		zap.Int64("pruned", pruned))
}
