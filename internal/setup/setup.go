// Package setup bootstraps application dependencies in the correct order.
package setup

import (
	"context"

	"github.com/mofucat/chatrank/internal/database"
	"github.com/mofucat/chatrank/internal/redis"
	"github.com/mofucat/chatrank/internal/setup/config"
	"github.com/mofucat/chatrank/internal/setup/telemetry"
	"github.com/mofucat/chatrank/internal/tenor"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// App bundles all core dependencies and services needed by the application.
// Each field represents a major subsystem that needs initialization and cleanup.
type App struct {
	Config       *config.Config     // Application configuration
	Logger       *zap.Logger        // Main application logger
	DBLogger     *zap.Logger        // Database-specific logger
	DB           database.Client    // Database connection pool
	RedisManager *redis.Manager     // Redis connection manager
	StatusClient rueidis.Client     // Redis client for worker status reporting
	Tenor        *tenor.Client      // Tenor GIF API client
	LogManager   *telemetry.Manager // Log management system
}

// InitializeApp bootstraps all application dependencies in the correct order,
// ensuring each component has its required dependencies available.
func InitializeApp(ctx context.Context, serviceType telemetry.ServiceType, logDir, workerType string) (*App, error) {
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logManager := telemetry.NewManager(serviceType, logDir, &cfg.Common.Debug, workerType)

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	// Redis manager provides connection pools for various subsystems
	redisManager := redis.NewManager(&cfg.Common.Redis, logger)

	cacheClient, err := redisManager.GetClient(redis.CacheDBIndex)
	if err != nil {
		return nil, err
	}

	db, err := database.NewConnection(ctx, &cfg.Common.PostgreSQL, cacheClient, dbLogger.Named("database"), true)
	if err != nil {
		return nil, err
	}

	statusClient, err := redisManager.GetClient(redis.WorkerStatusDBIndex)
	if err != nil {
		return nil, err
	}

	tenorClient := tenor.NewClient(&cfg.Common.Tenor, logger)

	return &App{
		Config:       cfg,
		Logger:       logger,
		DBLogger:     dbLogger,
		DB:           db,
		RedisManager: redisManager,
		StatusClient: statusClient,
		Tenor:        tenorClient,
		LogManager:   logManager,
	}, nil
}

// Cleanup ensures graceful shutdown of all components in reverse
// initialization order. Logs but does not fail on cleanup errors so every
// component gets a cleanup attempt.
func (s *App) Cleanup(ctx context.Context) {
	_ = s.Logger.Sync()
	_ = s.DBLogger.Sync()

	if err := s.DB.Close(); err != nil {
		s.Logger.Error("Failed to close database connection", zap.Error(err))
	}

	s.RedisManager.Close()
}
