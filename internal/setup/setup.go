package setup

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/robalyx/zoonas/internal/database"
	"github.com/robalyx/zoonas/internal/database/migrations"
	"github.com/robalyx/zoonas/internal/database/service"
	"github.com/robalyx/zoonas/internal/ranking"
	"github.com/robalyx/zoonas/internal/redis"
	"github.com/robalyx/zoonas/internal/setup/config"
	"github.com/robalyx/zoonas/internal/setup/telemetry"
	"github.com/robalyx/zoonas/internal/worker/core"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

// ErrPendingMigrations is returned when the schema is behind and auto-migration is off.
var ErrPendingMigrations = errors.New("database migrations are pending; run `db migrate` first")

// Options tunes application startup.
type Options struct {
	// Component names this process in logs.
	Component string
	// LogDir is the base directory for session logs.
	LogDir string
	// AutoMigrate applies pending migrations instead of refusing to start.
	AutoMigrate bool
}

// App bundles all core dependencies and services needed by the application.
type App struct {
	Config        *config.Config     // Application configuration
	Logger        *zap.Logger        // Main application logger
	DBLogger      *zap.Logger        // Database-specific logger
	DB            database.Client    // Database connection pool
	RedisManager  *redis.Manager     // Redis connection manager
	Ranking       *ranking.Publisher // Leaderboard publisher, nil when disabled
	StatusMonitor *core.Monitor      // Worker status store
	LogManager    *telemetry.Manager // Log management system
	shutdownTrace telemetry.ShutdownFunc
	pprofServer   *pprofServer // Debug HTTP server for pprof
}

// InitializeApp bootstraps all application dependencies in order.
func InitializeApp(ctx context.Context, opts Options) (*App, error) {
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Logging comes first to capture setup issues
	logManager := telemetry.NewManager(opts.Component, opts.LogDir, &cfg.Common.Debug)

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	shutdownTrace := telemetry.ConfigureTracing(&cfg.Common.Telemetry, logger)

	// Redis manager provides a client per logical database
	redisManager := redis.NewManager(&cfg.Common.Redis, logger)

	statusClient, err := redisManager.GetClient(redis.WorkerStatusDBIndex)
	if err != nil {
		redisManager.Close()
		return nil, err
	}

	var (
		publisher   *ranking.Publisher
		dbPublisher service.Publisher
	)
	if cfg.Engine.Ranking.Enabled {
		rankingClient, err := redisManager.GetClient(redis.RankingDBIndex)
		if err != nil {
			redisManager.Close()
			return nil, err
		}

		publisher = ranking.NewPublisher(rankingClient, logger)
		dbPublisher = publisher
	}

	db, err := checkAndRunMigrations(ctx, cfg, dbPublisher, dbLogger, opts.AutoMigrate)
	if err != nil {
		redisManager.Close()
		return nil, err
	}

	var pprofSrv *pprofServer
	if cfg.Common.Debug.EnablePprof {
		srv, err := startPprofServer(cfg.Common.Debug.PprofPort, logger)
		if err != nil {
			logger.Error("Failed to start pprof server", zap.Error(err))
		} else {
			pprofSrv = srv
			logger.Warn("pprof debugging endpoint enabled - this should not be used in production!")
		}
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		DBLogger:      dbLogger.Named("database"),
		DB:            db,
		RedisManager:  redisManager,
		Ranking:       publisher,
		StatusMonitor: core.NewMonitor(statusClient, logger),
		LogManager:    logManager,
		shutdownTrace: shutdownTrace,
		pprofServer:   pprofSrv,
	}, nil
}

// Cleanup shuts components down in reverse initialization order. Errors are logged
// so every component gets its cleanup attempt.
func (s *App) Cleanup(ctx context.Context) {
	if s.pprofServer != nil {
		if err := s.pprofServer.shutdown(ctx); err != nil {
			s.Logger.Error("Failed to shutdown pprof server", zap.Error(err))
		}
	}

	if err := s.DB.Close(); err != nil {
		s.Logger.Error("Failed to close database connection", zap.Error(err))
	}

	// Redis goes last among stores since publishers may still flush during shutdown
	s.RedisManager.Close()

	if err := s.shutdownTrace(ctx); err != nil {
		s.Logger.Error("Failed to flush traces", zap.Error(err))
	}

	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}
}

// checkAndRunMigrations connects to the database and makes sure the schema is current.
func checkAndRunMigrations(
	ctx context.Context, cfg *config.Config, publisher service.Publisher, dbLogger *zap.Logger, autoMigrate bool,
) (database.Client, error) {
	settings := cfg.Engine.Settings()

	db, err := database.NewConnection(ctx, &cfg.Common.PostgreSQL, settings, publisher, dbLogger, false)
	if err != nil {
		return nil, err
	}

	migrator := migrate.NewMigrator(db.DB(), migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize migrations: %w", err)
	}

	ms, err := migrator.MigrationsWithStatus(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}

	unapplied := ms.Unapplied()
	if len(unapplied) == 0 {
		return db, nil
	}

	if !autoMigrate {
		_ = db.Close()
		return nil, fmt.Errorf("%w (%d unapplied)", ErrPendingMigrations, len(unapplied))
	}

	if err := database.Migrate(ctx, db.DB(), dbLogger); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
