package commands

import (
	"context"

	"github.com/robalyx/zoonas/internal/setup"
	"github.com/urfave/cli/v3"
)

// UserCommands returns the user account commands.
func UserCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "user",
			Usage: "Manage user accounts",
			Commands: []*cli.Command{
				{
					Name:      "create",
					Usage:     "Register a new user",
					ArgsUsage: "USERNAME",
					Flags: []cli.Flag{
						&cli.BoolFlag{Name: "superuser", Usage: "Grant global administrator rights"},
					},
					Action: run(handleUserCreate),
				},
				{
					Name:      "get",
					Usage:     "Show a user",
					ArgsUsage: "USER_ID",
					Action:    run(handleUserGet),
				},
				{
					Name:      "ban",
					Usage:     "Reject a user and strip their moderator seats",
					ArgsUsage: "USER_ID",
					Flags:     []cli.Flag{actorFlag()},
					Action:    run(handleUserStanding("ban")),
				},
				{
					Name:      "allow",
					Usage:     "Lift a user's rejection",
					ArgsUsage: "USER_ID",
					Flags:     []cli.Flag{actorFlag()},
					Action:    run(handleUserStanding("allow")),
				},
				{
					Name:      "erase",
					Usage:     "Erase a user's identity, subscriptions, and seats",
					ArgsUsage: "USER_ID",
					Flags:     []cli.Flag{actorFlag()},
					Action:    run(handleUserStanding("erase")),
				},
			},
		},
	}
}

func handleUserCreate(ctx context.Context, c *cli.Command, app *setup.App) (any, error) {
	username, err := argString(c, 0, "USERNAME")
	if err != nil {
		return nil, err
	}

	return app.DB.Service().User().CreateUser(ctx, username, c.Bool("superuser"))
}

func handleUserGet(ctx context.Context, c *cli.Command, app *setup.App) (any, error) {
	userID, err := argInt64(c, 0, "USER_ID")
	if err != nil {
		return nil, err
	}

	return app.DB.Service().User().GetUser(ctx, userID)
}

// handleUserStanding applies a ban, allow, or erase and prints the resulting user.
func handleUserStanding(action string) handler {
	return func(ctx context.Context, c *cli.Command, app *setup.App) (any, error) {
		userID, err := argInt64(c, 0, "USER_ID")
		if err != nil {
			return nil, err
		}

		users := app.DB.Service().User()
		actorID := c.Int("actor")

		switch action {
		case "ban":
			err = users.Ban(ctx, userID, actorID)
		case "allow":
			err = users.Allow(ctx, userID, actorID)
		default:
			err = users.Erase(ctx, userID, actorID)
		}
		if err != nil {
			return nil, err
		}

		return users.GetUser(ctx, userID)
	}
}
