// Package commands implements the zoonas engine command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/robalyx/zoonas/internal/setup"
	"github.com/urfave/cli/v3"
)

// LogDir specifies where engine log sessions are stored.
const LogDir = "logs/engine_logs"

var (
	ErrArgumentRequired = errors.New("missing argument")
	ErrInvalidArgument  = errors.New("invalid argument")
)

// handler runs one engine operation against an initialized app and returns the value to print.
type handler func(ctx context.Context, c *cli.Command, app *setup.App) (any, error)

// output is where results are written.
var output io.Writer = os.Stdout //nolint:gochecknoglobals // -

// Commands returns every engine command.
func Commands() []*cli.Command {
	commands := []*cli.Command{}
	commands = append(commands, UserCommands()...)
	commands = append(commands, ZoneCommands()...)
	commands = append(commands, VoteCommands()...)
	commands = append(commands, ProposalCommands()...)
	commands = append(commands, ContentCommands()...)
	commands = append(commands, RankingCommands()...)
	commands = append(commands, WorkerCommands()...)
	return commands
}

// Flags returns the flags shared by every command.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "auto-migrate",
			Usage: "Apply pending database migrations on startup",
		},
	}
}

// actorFlag identifies the user performing the operation.
func actorFlag() cli.Flag {
	return &cli.IntFlag{
		Name:     "actor",
		Aliases:  []string{"a"},
		Usage:    "ID of the user performing the operation",
		Required: true,
	}
}

// limitFlag bounds listing commands.
func limitFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    "limit",
		Aliases: []string{"n"},
		Usage:   "Maximum number of rows to return",
		Value:   25,
	}
}

// run wraps a handler with app setup, cleanup, and JSON output.
func run(h handler) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		app, err := setup.InitializeApp(ctx, setup.Options{
			Component:   "engine",
			LogDir:      LogDir,
			AutoMigrate: c.Bool("auto-migrate"),
		})
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer app.Cleanup(context.WithoutCancel(ctx))

		result, err := h(ctx, c, app)
		if err != nil {
			return err
		}

		return printJSON(result)
	}
}

// printJSON writes v as indented JSON.
func printJSON(v any) error {
	if v == nil {
		return nil
	}

	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	_, err = fmt.Fprintln(output, string(data))
	return err
}

// argInt64 parses the positional argument at index i.
func argInt64(c *cli.Command, i int, name string) (int64, error) {
	raw, err := argString(c, i, name)
	if err != nil {
		return 0, err
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", ErrInvalidArgument, name, raw)
	}

	return value, nil
}

// argString returns the positional argument at index i.
func argString(c *cli.Command, i int, name string) (string, error) {
	if c.Args().Len() <= i {
		return "", fmt.Errorf("%w: %s", ErrArgumentRequired, name)
	}

	return c.Args().Get(i), nil
}

// done is printed by commands that have no other result.
type done struct {
	OK bool `json:"ok"`
}
