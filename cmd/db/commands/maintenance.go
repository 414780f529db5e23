package commands

import (
	"context"
	"time"

	"github.com/robalyx/zoonas/internal/worker/rescore"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// MaintenanceCommands returns commands that repair stored aggregates.
func MaintenanceCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "rescore",
			Usage: "Recount zone sizes and recompute every item's scores from its vote ledger",
			Description: `Run a single rescore pass over the whole store.

Examples:
  db rescore                        # Use batch size and concurrency from engine.toml
  db rescore --batch-size 100 -c 8  # Smaller batches, more parallel transactions`,
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "batch-size",
					Usage:   "Number of rows to page through at a time",
					Aliases: []string{"b"},
				},
				&cli.IntFlag{
					Name:    "concurrency",
					Usage:   "Number of items recomputed in parallel",
					Aliases: []string{"c"},
				},
			},
			Action: handleRescore(deps),
		},
	}
}

// handleRescore handles the 'rescore' command.
func handleRescore(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		opts := rescore.Options{
			BatchSize:   deps.Config.Engine.Rescore.BatchSize,
			Concurrency: deps.Config.Engine.Rescore.Concurrency,
		}
		if c.IsSet("batch-size") {
			opts.BatchSize = int(c.Int("batch-size"))
		}
		if c.IsSet("concurrency") {
			opts.Concurrency = int(c.Int("concurrency"))
		}

		worker := rescore.New(deps.DB, nil, opts, deps.Logger)

		report, err := worker.RunOnce(ctx)
		if err != nil {
			return err
		}

		deps.Logger.Info("Rescore completed",
			zap.Int("zones", report.Zones),
			zap.Any("items", report.Items),
			zap.Int("skipped", report.Skipped),
			zap.String("duration", report.Duration.Round(time.Millisecond).String()))

		return nil
	}
}
