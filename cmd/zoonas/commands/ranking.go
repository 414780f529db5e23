package commands

import (
	"context"
	"errors"

	"github.com/robalyx/zoonas/internal/ranking"
	"github.com/robalyx/zoonas/internal/setup"
	"github.com/urfave/cli/v3"
)

var ErrRankingDisabled = errors.New("ranking is disabled in engine.toml")

// RankingCommands returns the leaderboard commands.
func RankingCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "ranking",
			Usage: "Read the published leaderboards",
			Commands: []*cli.Command{
				{
					Name:   "global",
					Usage:  "Top submissions across every zone",
					Flags:  []cli.Flag{limitFlag()},
					Action: run(handleBoard(func(*cli.Command) (string, error) { return ranking.GlobalBoard, nil })),
				},
				{
					Name:      "zone",
					Usage:     "Top submissions of one zone",
					ArgsUsage: "ZONE_ID",
					Flags:     []cli.Flag{limitFlag()},
					Action: run(handleBoard(func(c *cli.Command) (string, error) {
						zoneID, err := argInt64(c, 0, "ZONE_ID")
						if err != nil {
							return "", err
						}
						return ranking.ZoneBoard(zoneID), nil
					})),
				},
				{
					Name:   "zones",
					Usage:  "Top zones",
					Flags:  []cli.Flag{limitFlag()},
					Action: run(handleBoard(func(*cli.Command) (string, error) { return ranking.ZonesBoard, nil })),
				},
				{
					Name:   "proposals",
					Usage:  "Top open proposals",
					Flags:  []cli.Flag{limitFlag()},
					Action: run(handleBoard(func(*cli.Command) (string, error) { return ranking.ProposalsBoard, nil })),
				},
			},
		},
	}
}

// handleBoard prints the top entries of the board chosen by pick.
func handleBoard(pick func(c *cli.Command) (string, error)) handler {
	return func(ctx context.Context, c *cli.Command, app *setup.App) (any, error) {
		if app.Ranking == nil {
			return nil, ErrRankingDisabled
		}

		board, err := pick(c)
		if err != nil {
			return nil, err
		}

		return app.Ranking.Top(ctx, board, int(c.Int("limit")))
	}
}
