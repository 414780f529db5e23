package commands

import (
	"context"
	"fmt"

	"github.com/robalyx/zoonas/internal/database/types/enum"
	"github.com/robalyx/zoonas/internal/setup"
	"github.com/urfave/cli/v3"
)

// VoteCommands returns the voting commands.
func VoteCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "vote",
			Usage:     "Cast, flip, or retract a vote on an item",
			ArgsUsage: "KIND ITEM_ID up|down",
			Description: `Cast a vote as the actor. Casting the same direction twice retracts the vote.

KIND is one of submission, comment, zone, or proposal.

Examples:
  zoonas vote submission 12 up -a 4     # Upvote submission 12 as user 4
  zoonas vote proposal 3 up -a 4        # Support proposal 3; may promote it into a zone`,
			Flags:  []cli.Flag{actorFlag()},
			Action: run(handleVote),
		},
	}
}

func handleVote(ctx context.Context, c *cli.Command, app *setup.App) (any, error) {
	kind, err := argKind(c, 0)
	if err != nil {
		return nil, err
	}

	itemID, err := argInt64(c, 1, "ITEM_ID")
	if err != nil {
		return nil, err
	}

	raw, err := argString(c, 2, "DIRECTION")
	if err != nil {
		return nil, err
	}

	direction, ok := enum.ParseDirection(raw)
	if !ok {
		return nil, fmt.Errorf("%w: direction must be up or down, got %q", ErrInvalidArgument, raw)
	}

	return app.DB.Service().Vote().CastVote(ctx, kind, itemID, c.Int("actor"), direction)
}

// argKind parses an item kind positional argument.
func argKind(c *cli.Command, i int) (enum.ItemKind, error) {
	raw, err := argString(c, i, "KIND")
	if err != nil {
		return "", err
	}

	kind, ok := enum.ParseItemKind(raw)
	if !ok {
		return "", fmt.Errorf("%w: unknown item kind %q", ErrInvalidArgument, raw)
	}

	return kind, nil
}
