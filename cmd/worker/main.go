package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mofucat/chatrank/internal/setup"
	"github.com/mofucat/chatrank/internal/setup/telemetry"
	"github.com/mofucat/chatrank/internal/worker/retention"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const (
	// WorkerLogDir specifies where worker log files are stored.
	WorkerLogDir = "logs/worker_logs"

	// RetentionWorker prunes message log rows past the retention horizon.
	RetentionWorker = "retention"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "worker",
		Usage: "Start a chatrank worker",
		Commands: []*cli.Command{
			{
				Name:  RetentionWorker,
				Usage: "Start the message retention worker",
				Action: func(ctx context.Context, _ *cli.Command) error {
					runWorker(ctx, RetentionWorker)
					return nil
				},
			},
		},
	}

	return app.Run(context.Background(), os.Args)
}

// runWorker starts a worker and blocks until an interrupt signal arrives.
func runWorker(ctx context.Context, workerType string) {
	app, err := setup.InitializeApp(ctx, telemetry.ServiceWorker, WorkerLogDir, workerType)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.Cleanup(ctx)

	runCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer cancel()

	app.Logger.Info("Starting worker",
		zap.String("workerType", workerType),
		zap.String("instanceID", app.LogManager.GetInstanceID()))

	// Each worker writes to its own log file in the session directory.
	workerLogger := app.LogManager.GetWorkerLogger(workerType)

	switch workerType {
	case RetentionWorker:
		worker := retention.New(app, workerLogger)
		worker.Start(runCtx)
	default:
		log.Fatalf("Unknown worker type: %s", workerType)
	}
}
