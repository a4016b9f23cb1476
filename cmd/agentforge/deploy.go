package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/opsmith/agentforge/pkg/models"
	"github.com/opsmith/agentforge/pkg/persistence"
	"github.com/opsmith/agentforge/pkg/validation"
)

func NewDeployCommand() *cli.Command {
	return &cli.Command{
		Name:      "deploy",
		Aliases:   []string{"d"},
		Usage:     "Create or update a workflow from a definition file",
		ArgsUsage: "<definition.json>",
		Action: func(ctx context.Context, command *cli.Command) error {
			rt, err := newRuntime(command, "deploy")
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			path := command.Args().First()
			if path == "" {
				return errors.New("a definition file is required")
			}

			def, err := readDefinition(path)
			if err != nil {
				return err
			}

			var result *models.WorkflowDefinition

			if def.ID != "" {
				if _, lookupErr := rt.builder.Get(ctx, def.ID); lookupErr == nil {
					result, err = rt.builder.Update(ctx, def.ID, def)
				} else if persistence.IsWorkflowNotFound(lookupErr) {
					result, err = rt.builder.Create(ctx, def)
				} else {
					return lookupErr
				}
			} else {
				result, err = rt.builder.Create(ctx, def)
			}

			if err != nil {
				var validationErr *validation.ValidationError
				if errors.As(err, &validationErr) {
					for _, issue := range validationErr.Issues {
						_, _ = fmt.Fprintf(os.Stdout, "  - %s\n", issue.String())
					}
				}

				return err
			}

			_, _ = fmt.Fprintf(os.Stdout, "Deployed workflow %s (version %d)\n", result.ID, result.Version)

			return nil
		},
	}
}
