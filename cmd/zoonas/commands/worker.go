package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/robalyx/zoonas/internal/setup"
	"github.com/robalyx/zoonas/internal/worker/rescore"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// WorkerCommands returns the background worker commands.
func WorkerCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "worker",
			Usage: "Run and inspect maintenance workers",
			Commands: []*cli.Command{
				{
					Name:   "rescore",
					Usage:  "Repair zone sizes and item scores on an interval until interrupted",
					Action: run(handleRescoreWorker),
				},
				{
					Name:   "status",
					Usage:  "Show the last reported status of every worker",
					Action: run(handleWorkerStatus),
				},
			},
		},
	}
}

func handleRescoreWorker(ctx context.Context, _ *cli.Command, app *setup.App) (any, error) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := app.Config.Engine.Rescore
	logger := app.LogManager.GetWorkerLogger("rescore_worker")

	worker := rescore.New(app.DB, app.StatusMonitor, rescore.Options{
		BatchSize:   cfg.BatchSize,
		Concurrency: cfg.Concurrency,
		Interval:    cfg.IntervalDuration(),
	}, logger)

	app.Logger.Info("Starting rescore worker", zap.String("sessionDir", app.LogManager.GetCurrentSessionDir()))
	worker.Start(ctx)
	app.Logger.Info("Rescore worker stopped")

	return nil, nil
}

func handleWorkerStatus(ctx context.Context, _ *cli.Command, app *setup.App) (any, error) {
	return app.StatusMonitor.GetAllStatuses(ctx)
}
