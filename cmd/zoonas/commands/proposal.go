package commands

import (
	"context"

	"github.com/robalyx/zoonas/internal/database/types"
	"github.com/robalyx/zoonas/internal/setup"
	"github.com/urfave/cli/v3"
)

// ProposalCommands returns the zone proposal commands.
func ProposalCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "proposal",
			Usage: "Propose new zones and track their support",
			Commands: []*cli.Command{
				{
					Name:      "create",
					Usage:     "Propose a zone; the author's support is cast automatically",
					ArgsUsage: "NAME",
					Flags: []cli.Flag{
						actorFlag(),
						&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Short zone description"},
					},
					Action: run(handleProposalCreate),
				},
				{
					Name:      "get",
					Usage:     "Show a proposal",
					ArgsUsage: "PROPOSAL_ID",
					Action:    run(handleProposalGet),
				},
				{
					Name:      "progress",
					Usage:     "Show a proposal's score against its promotion threshold",
					ArgsUsage: "PROPOSAL_ID",
					Action:    run(handleProposalProgress),
				},
				{
					Name:   "list",
					Usage:  "List open proposals, highest value first",
					Flags:  []cli.Flag{limitFlag()},
					Action: run(handleProposalList),
				},
			},
		},
	}
}

// proposalCreated pairs a new proposal with the outcome of its author's vote.
type proposalCreated struct {
	Proposal *types.Proposal   `json:"proposal"`
	Vote     *types.CastResult `json:"vote"`
}

func handleProposalCreate(ctx context.Context, c *cli.Command, app *setup.App) (any, error) {
	name, err := argString(c, 0, "NAME")
	if err != nil {
		return nil, err
	}

	proposal, result, err := app.DB.Service().Proposal().CreateProposal(ctx, c.Int("actor"), name, c.String("description"))
	if err != nil {
		return nil, err
	}

	return &proposalCreated{Proposal: proposal, Vote: result}, nil
}

func handleProposalGet(ctx context.Context, c *cli.Command, app *setup.App) (any, error) {
	proposalID, err := argInt64(c, 0, "PROPOSAL_ID")
	if err != nil {
		return nil, err
	}

	return app.DB.Service().Proposal().GetProposal(ctx, proposalID)
}

func handleProposalProgress(ctx context.Context, c *cli.Command, app *setup.App) (any, error) {
	proposalID, err := argInt64(c, 0, "PROPOSAL_ID")
	if err != nil {
		return nil, err
	}

	return app.DB.Service().Proposal().Progress(ctx, proposalID)
}

func handleProposalList(ctx context.Context, c *cli.Command, app *setup.App) (any, error) {
	return app.DB.Service().Proposal().ListProposals(ctx, int(c.Int("limit")))
}
