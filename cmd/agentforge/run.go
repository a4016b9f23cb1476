package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/opsmith/agentforge/pkg/models"
)

func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Aliases:   []string{"r"},
		Usage:     "Execute a stored workflow and print the run record",
		ArgsUsage: "<workflow-id>",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Initial variable as name=value (repeatable)",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			rt, err := newRuntime(command, "run")
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			workflowID := command.Args().First()
			if workflowID == "" {
				return errors.New("a workflow ID is required")
			}

			inputs, err := parseInputs(command.StringSlice("input"))
			if err != nil {
				return err
			}

			run, err := rt.builder.Run(ctx, workflowID, inputs)
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(run, "", "  ")
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(os.Stdout, string(encoded))

			if run.Status != models.RunStatusSucceeded {
				return fmt.Errorf("run %s finished with status %s", run.ID, run.Status)
			}

			return nil
		},
	}
}
