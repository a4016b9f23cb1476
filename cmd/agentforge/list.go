package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
)

func NewListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List workflows, or the run history of one workflow",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "runs",
				Usage: "Show run history for the given workflow ID instead",
				Value: "",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			rt, err := newRuntime(command, "list")
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			if workflowID := command.String("runs"); workflowID != "" {
				runs, err := rt.builder.ListRunsForWorkflow(ctx, workflowID)
				if err != nil {
					return err
				}

				for _, run := range runs {
					line := fmt.Sprintf("%s  %s  steps=%d", run.ID, run.Status, len(run.StepResults))
					if run.Error != nil {
						line += fmt.Sprintf("  error=%s", run.Error.Kind)
					}

					_, _ = fmt.Fprintln(os.Stdout, line)
				}

				return nil
			}

			workflows, err := rt.builder.List(ctx)
			if err != nil {
				return err
			}

			for _, def := range workflows {
				_, _ = fmt.Fprintf(os.Stdout, "%s  v%d  %s (%d steps)\n", def.ID, def.Version, def.Name, len(def.Steps))
			}

			return nil
		},
	}
}
