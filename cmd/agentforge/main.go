package main

import (
	"context"
	"os"

	"github.com/opsmith/agentforge/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func main() {
	root := &cli.Command{
		Name:                  "agentforge",
		Usage:                 "Build, validate and run agent workflows",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			NewValidateCommand(),
			NewDeployCommand(),
			NewListCommand(),
			NewRunCommand(),
			NewSchedulerCommand(),
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the engine configuration file (YAML)",
				Value:   "",
				Sources: cli.EnvVars("AGENTFORGE_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "persistence-url",
				Usage:   "Persistence URL (file://<dir> or memory://)",
				Value:   "",
				Sources: cli.EnvVars("AGENTFORGE_PERSISTENCE_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("AGENTFORGE_LOG_LEVEL"),
			},
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		log.WithModule("agentforge").Error("Command failed", "error", err)
		os.Exit(1)
	}
}
