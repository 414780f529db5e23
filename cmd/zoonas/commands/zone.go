package commands

import (
	"context"
	"strconv"

	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/robalyx/zoonas/internal/setup"
	"github.com/urfave/cli/v3"
)

// ZoneCommands returns the zone governance commands.
func ZoneCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "zone",
			Usage: "Manage zones, subscriptions, and moderators",
			Commands: []*cli.Command{
				{
					Name:      "create",
					Usage:     "Create a zone directly (global administrators only)",
					ArgsUsage: "NAME",
					Flags: []cli.Flag{
						actorFlag(),
						&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Short zone description"},
					},
					Action: run(handleZoneCreate),
				},
				{
					Name:      "update",
					Usage:     "Edit a zone's description and information",
					ArgsUsage: "ZONE_ID",
					Flags: []cli.Flag{
						actorFlag(),
						&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Short zone description"},
						&cli.StringFlag{Name: "information", Aliases: []string{"i"}, Usage: "Long zone information"},
					},
					Action: run(handleZoneUpdate),
				},
				{
					Name:      "get",
					Usage:     "Show a zone by ID or slug",
					ArgsUsage: "ZONE",
					Action:    run(handleZoneGet),
				},
				{
					Name:   "list",
					Usage:  "List zones, largest first",
					Flags:  []cli.Flag{limitFlag()},
					Action: run(handleZoneList),
				},
				{
					Name:      "subscribe",
					Usage:     "Subscribe the actor to a zone",
					ArgsUsage: "ZONE_ID",
					Flags:     []cli.Flag{actorFlag()},
					Action:    run(handleSubscription(true)),
				},
				{
					Name:      "unsubscribe",
					Usage:     "Unsubscribe the actor from a zone",
					ArgsUsage: "ZONE_ID",
					Flags:     []cli.Flag{actorFlag()},
					Action:    run(handleSubscription(false)),
				},
				{
					Name:      "grant",
					Usage:     "Make a user a moderator of a zone",
					ArgsUsage: "ZONE_ID USER_ID",
					Flags:     []cli.Flag{actorFlag()},
					Action:    run(handlePermission(true)),
				},
				{
					Name:      "revoke",
					Usage:     "Remove a moderator from a zone",
					ArgsUsage: "ZONE_ID USER_ID",
					Flags:     []cli.Flag{actorFlag()},
					Action:    run(handlePermission(false)),
				},
				{
					Name:      "permissions",
					Usage:     "List a zone's moderators, most senior first",
					ArgsUsage: "ZONE_ID",
					Action:    run(handlePermissions),
				},
				{
					Name:      "activity",
					Usage:     "Show the governance activity log of a zone",
					ArgsUsage: "ZONE_ID",
					Flags:     []cli.Flag{limitFlag()},
					Action:    run(handleZoneActivity),
				},
			},
		},
	}
}

func handleZoneCreate(ctx context.Context, c *cli.Command, app *setup.App) (any, error) {
	name, err := argString(c, 0, "NAME")
	if err != nil {
		return nil, err
	}

	return app.DB.Service().Zone().CreateZone(ctx, c.Int("actor"), name, c.String("description"))
}

func handleZoneUpdate(ctx context.Context, c *cli.Command, app *setup.App) (any, error) {
	zoneID, err := argInt64(c, 0, "ZONE_ID")
	if err != nil {
		return nil, err
	}

	zones := app.DB.Service().Zone()

	// Unset flags keep their current value
	zone, err := zones.GetZone(ctx, zoneID)
	if err != nil {
		return nil, err
	}

	description, information := zone.Description, zone.Information
	if c.IsSet("description") {
		description = c.String("description")
	}
	if c.IsSet("information") {
		information = c.String("information")
	}

	return zones.UpdateZone(ctx, zoneID, c.Int("actor"), description, information)
}

func handleZoneGet(ctx context.Context, c *cli.Command, app *setup.App) (any, error) {
	ref, err := argString(c, 0, "ZONE")
	if err != nil {
		return nil, err
	}

	zones := app.DB.Service().Zone()
	if zoneID, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return zones.GetZone(ctx, zoneID)
	}

	return zones.GetZoneBySlug(ctx, ref)
}

func handleZoneList(ctx context.Context, c *cli.Command, app *setup.App) (any, error) {
	return app.DB.Service().Zone().ListZones(ctx, int(c.Int("limit")))
}

// subscriptionResult reports a zone's size after a subscription change.
type subscriptionResult struct {
	ZoneID     int64 `json:"zoneId"`
	UserID     int64 `json:"userId"`
	Subscribed bool  `json:"subscribed"`
	Size       int   `json:"size"`
}

func handleSubscription(subscribe bool) handler {
	return func(ctx context.Context, c *cli.Command, app *setup.App) (any, error) {
		zoneID, err := argInt64(c, 0, "ZONE_ID")
		if err != nil {
			return nil, err
		}

		userID := c.Int("actor")
		zones := app.DB.Service().Zone()

		var size int
		if subscribe {
			size, err = zones.Subscribe(ctx, zoneID, userID)
		} else {
			size, err = zones.Unsubscribe(ctx, zoneID, userID)
		}
		if err != nil {
			return nil, err
		}

		return &subscriptionResult{ZoneID: zoneID, UserID: userID, Subscribed: subscribe, Size: size}, nil
	}
}

func handlePermission(grant bool) handler {
	return func(ctx context.Context, c *cli.Command, app *setup.App) (any, error) {
		zoneID, err := argInt64(c, 0, "ZONE_ID")
		if err != nil {
			return nil, err
		}

		targetID, err := argInt64(c, 1, "USER_ID")
		if err != nil {
			return nil, err
		}

		zones := app.DB.Service().Zone()
		if grant {
			err = zones.GrantPermission(ctx, zoneID, targetID, c.Int("actor"))
		} else {
			err = zones.RevokePermission(ctx, zoneID, targetID, c.Int("actor"))
		}
		if err != nil {
			return nil, err
		}

		return zones.Permissions(ctx, zoneID)
	}
}

func handlePermissions(ctx context.Context, c *cli.Command, app *setup.App) (any, error) {
	zoneID, err := argInt64(c, 0, "ZONE_ID")
	if err != nil {
		return nil, err
	}

	return app.DB.Service().Zone().Permissions(ctx, zoneID)
}

func handleZoneActivity(ctx context.Context, c *cli.Command, app *setup.App) (any, error) {
	zoneID, err := argInt64(c, 0, "ZONE_ID")
	if err != nil {
		return nil, err
	}

	return app.DB.Model().Activity().GetLogs(ctx, types.ActivityFilter{ZoneID: zoneID}, int(c.Int("limit")))
}
