package main

import (
	"context"
	"fmt"

	cli "github.com/urfave/cli/v3"

	"github.com/dukex/weatherflow/pkg/cmd"
	"github.com/dukex/weatherflow/pkg/flow"
	"github.com/dukex/weatherflow/pkg/log"
)

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate a flow definition without running it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "flow",
				Aliases:  []string{"f"},
				Usage:    "Path to the flow definition (yaml or json)",
				Required: true,
				Sources:  cli.EnvVars("FLOW_FILE"),
			},
		},
		Action: func(_ context.Context, command *cli.Command) error {
			logger := log.New(command.Root().ErrWriter, command.String("log-level"), command.String("log-format"))

			definition, err := flow.NewValidator(cmd.NewRegistry(logger)).LoadAndValidate(command.String("flow"))
			if err != nil {
				return fmt.Errorf("invalid flow: %w", err)
			}

			_, _ = fmt.Fprintf(command.Root().Writer, "Flow %q is valid: %d nodes, %d connections\n",
				definition.Name, len(definition.Nodes), len(definition.Connections))

			return nil
		},
	}
}
