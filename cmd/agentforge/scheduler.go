package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/opsmith/agentforge/pkg/cmd"
	"github.com/opsmith/agentforge/pkg/otelhelper"
	"github.com/opsmith/agentforge/pkg/scheduler"
)

func NewSchedulerCommand() *cli.Command {
	return &cli.Command{
		Name:    "scheduler",
		Aliases: []string{"s"},
		Usage:   "Start the cron scheduler for workflows with a schedule",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OpenTelemetry tracing for scheduled runs",
				Value:   false,
				Sources: cli.EnvVars("AGENTFORGE_TRACING"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			rt, err := newRuntime(command, "scheduler")
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			eventBus, err := cmd.NewEventBus(rt.logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := eventBus.Close(); err != nil {
					rt.logger.Error("Failed to close event bus", "error", err)
				}
			}()

			rt.executor.WithEventBus(eventBus)

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "agentforge-scheduler")
				if err != nil {
					return err
				}

				rt.executor.WithTracer(tracer)
			}

			sched := scheduler.NewScheduler(rt.builder, rt.logger)

			if err := sched.Reload(ctx); err != nil {
				return err
			}

			sched.Start()

			rt.logger.Info("Scheduler started", "entries", sched.Entries())

			stop, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer cancel()

			<-stop.Done()

			rt.logger.Info("Shutting down scheduler")
			sched.Stop()

			return nil
		},
	}
}
