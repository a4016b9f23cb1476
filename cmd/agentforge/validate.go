package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
)

// Static error variables for linter compliance.
var ErrInvalidDefinitions = errors.New("invalid workflow definitions found")

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Validate workflow definition files without persisting them",
		ArgsUsage: "<definition.json> [...]",
		Action: func(ctx context.Context, command *cli.Command) error {
			rt, err := newRuntime(command, "validate")
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			paths := command.Args().Slice()
			if len(paths) == 0 {
				return errors.New("at least one definition file is required")
			}

			invalid := 0

			for _, path := range paths {
				def, err := readDefinition(path)
				if err != nil {
					return err
				}

				issues := rt.builder.Validate(def)
				if len(issues) == 0 {
					_, _ = fmt.Fprintf(os.Stdout, "%s: OK\n", path)

					continue
				}

				invalid++

				_, _ = fmt.Fprintf(os.Stdout, "%s: %d issue(s)\n", path, len(issues))

				for _, issue := range issues {
					_, _ = fmt.Fprintf(os.Stdout, "  - %s\n", issue.String())
				}
			}

			if invalid > 0 {
				return fmt.Errorf("%w: %d", ErrInvalidDefinitions, invalid)
			}

			return nil
		},
	}
}
