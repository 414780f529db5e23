package main

import (
	"context"
	"log"
	"os"

	"github.com/robalyx/zoonas/cmd/zoonas/commands"
	"github.com/urfave/cli/v3"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:     "zoonas",
		Usage:    "Reputation, scoring, and zone governance engine",
		Flags:    commands.Flags(),
		Commands: commands.Commands(),
	}

	return app.Run(context.Background(), os.Args)
}
