package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"
)

func main() {
	err := newRootCommand().Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:                  "weatherflow",
		Usage:                 "Run Tokyo weather flows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Commands: []*cli.Command{
			NewRunCommand(),
			NewNodesCommand(),
			NewValidateCommand(),
		},
	}
}
