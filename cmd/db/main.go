package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"

	"github.com/robalyx/zoonas/cmd/db/commands"
	"github.com/robalyx/zoonas/internal/database"
	"github.com/robalyx/zoonas/internal/database/migrations"
	"github.com/robalyx/zoonas/internal/setup/config"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	deps, err := setupDependencies(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup dependencies: %w", err)
	}
	defer deps.DB.Close()

	app := &cli.Command{
		Name:  "db",
		Usage: "Database management tool",
		Commands: slices.Concat(
			commands.MigrationCommands(deps),
			commands.MaintenanceCommands(deps),
		),
	}

	return app.Run(ctx, os.Args)
}

// setupDependencies loads the config and connects to the database without migrating it.
func setupDependencies(ctx context.Context) (*commands.CLIDependencies, error) {
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	// Scores are repaired without ranking publication; the next vote republishes
	db, err := database.NewConnection(ctx, &cfg.Common.PostgreSQL, cfg.Engine.Settings(), nil, logger, false)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &commands.CLIDependencies{
		Config:   cfg,
		DB:       db,
		Migrator: migrate.NewMigrator(db.DB(), migrations.Migrations),
		Logger:   logger,
	}, nil
}
