package main

import (
	"context"
	"fmt"

	cli "github.com/urfave/cli/v3"

	"github.com/dukex/weatherflow/pkg/cmd"
	"github.com/dukex/weatherflow/pkg/log"
)

func NewNodesCommand() *cli.Command {
	return &cli.Command{
		Name:    "nodes",
		Aliases: []string{"n"},
		Usage:   "List the available node types",
		Action: func(_ context.Context, command *cli.Command) error {
			logger := log.New(command.Root().ErrWriter, command.String("log-level"), command.String("log-format"))
			registry := cmd.NewRegistry(logger)

			out := command.Root().Writer

			for _, factory := range registry.GetAvailableNodes() {
				_, _ = fmt.Fprintf(out, "%-20s %s\n", factory.ID(), factory.Description())
			}

			return nil
		},
	}
}
