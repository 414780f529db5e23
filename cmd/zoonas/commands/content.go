package commands

import (
	"context"
	"fmt"

	"github.com/robalyx/zoonas/internal/database/types/enum"
	"github.com/robalyx/zoonas/internal/setup"
	"github.com/urfave/cli/v3"
)

// ContentCommands returns the submission, comment, and moderation commands.
func ContentCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "submission",
			Usage: "Post and manage submissions",
			Commands: []*cli.Command{
				{
					Name:      "create",
					Usage:     "Post a submission to a zone",
					ArgsUsage: "ZONE_ID TITLE",
					Flags: []cli.Flag{
						actorFlag(),
						&cli.StringFlag{Name: "link", Aliases: []string{"l"}, Usage: "Link the submission points at"},
					},
					Action: run(handleSubmissionCreate),
				},
				{
					Name:      "get",
					Usage:     "Show a submission",
					ArgsUsage: "SUBMISSION_ID",
					Action:    run(handleSubmissionGet),
				},
				{
					Name:      "list",
					Usage:     "List a zone's submissions, best first",
					ArgsUsage: "ZONE_ID",
					Flags:     []cli.Flag{limitFlag()},
					Action:    run(handleSubmissionList),
				},
				{
					Name:      "erase",
					Usage:     "Erase a submission's content and detach it from its author",
					ArgsUsage: "SUBMISSION_ID",
					Flags:     []cli.Flag{actorFlag()},
					Action:    run(handleSubmissionErase),
				},
			},
		},
		{
			Name:      "comment",
			Usage:     "Comment on a submission",
			ArgsUsage: "SUBMISSION_ID BODY",
			Flags: []cli.Flag{
				actorFlag(),
				&cli.IntFlag{Name: "parent", Aliases: []string{"p"}, Usage: "ID of the comment being replied to"},
			},
			Action: run(handleComment),
		},
		{
			Name:      "moderate",
			Usage:     "Reject, allow, hide, or show a submission or comment",
			ArgsUsage: "KIND ITEM_ID reject|allow|hide|show",
			Flags:     []cli.Flag{actorFlag()},
			Action:    run(handleModerate),
		},
	}
}

func handleSubmissionCreate(ctx context.Context, c *cli.Command, app *setup.App) (any, error) {
	zoneID, err := argInt64(c, 0, "ZONE_ID")
	if err != nil {
		return nil, err
	}

	title, err := argString(c, 1, "TITLE")
	if err != nil {
		return nil, err
	}

	return app.DB.Service().Content().CreateSubmission(ctx, c.Int("actor"), zoneID, title, c.String("link"))
}

func handleSubmissionGet(ctx context.Context, c *cli.Command, app *setup.App) (any, error) {
	submissionID, err := argInt64(c, 0, "SUBMISSION_ID")
	if err != nil {
		return nil, err
	}

	return app.DB.Service().Content().GetSubmission(ctx, submissionID)
}

func handleSubmissionList(ctx context.Context, c *cli.Command, app *setup.App) (any, error) {
	zoneID, err := argInt64(c, 0, "ZONE_ID")
	if err != nil {
		return nil, err
	}

	return app.DB.Service().Content().ListSubmissions(ctx, zoneID, int(c.Int("limit")))
}

func handleSubmissionErase(ctx context.Context, c *cli.Command, app *setup.App) (any, error) {
	submissionID, err := argInt64(c, 0, "SUBMISSION_ID")
	if err != nil {
		return nil, err
	}

	if err := app.DB.Service().Content().EraseSubmission(ctx, submissionID, c.Int("actor")); err != nil {
		return nil, err
	}

	return app.DB.Service().Content().GetSubmission(ctx, submissionID)
}

func handleComment(ctx context.Context, c *cli.Command, app *setup.App) (any, error) {
	submissionID, err := argInt64(c, 0, "SUBMISSION_ID")
	if err != nil {
		return nil, err
	}

	body, err := argString(c, 1, "BODY")
	if err != nil {
		return nil, err
	}

	var parentID *int64
	if c.IsSet("parent") {
		parent := c.Int("parent")
		parentID = &parent
	}

	return app.DB.Service().Content().CreateComment(ctx, c.Int("actor"), submissionID, parentID, body)
}

func handleModerate(ctx context.Context, c *cli.Command, app *setup.App) (any, error) {
	kind, err := argKind(c, 0)
	if err != nil {
		return nil, err
	}

	itemID, err := argInt64(c, 1, "ITEM_ID")
	if err != nil {
		return nil, err
	}

	raw, err := argString(c, 2, "ACTION")
	if err != nil {
		return nil, err
	}

	action, ok := enum.ParseModerationAction(raw)
	if !ok {
		return nil, fmt.Errorf("%w: unknown moderation action %q", ErrInvalidArgument, raw)
	}

	if err := app.DB.Service().Content().Moderate(ctx, kind, itemID, c.Int("actor"), action); err != nil {
		return nil, err
	}

	return &done{OK: true}, nil
}
