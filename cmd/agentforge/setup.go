package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"

	"github.com/opsmith/agentforge/pkg/cmd"
	"github.com/opsmith/agentforge/pkg/config"
	"github.com/opsmith/agentforge/pkg/log"
	"github.com/opsmith/agentforge/pkg/models"
	"github.com/opsmith/agentforge/pkg/persistence"
	"github.com/opsmith/agentforge/pkg/validation"
	"github.com/opsmith/agentforge/pkg/workflow"
)

// runtime bundles the components every subcommand needs.
type runtime struct {
	config      config.Config
	logger      *slog.Logger
	persistence persistence.Persistence
	executor    *workflow.Executor
	builder     *workflow.Builder
}

func loadConfig(command *cli.Command) (config.Config, error) {
	cfg := config.Default()

	if path := command.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}

		cfg = loaded
	}

	if url := command.String("persistence-url"); url != "" {
		cfg.PersistenceURL = url
	}

	if level := command.String("log-level"); level != "" {
		cfg.LogLevel = level
	}

	return cfg, nil
}

func newRuntime(command *cli.Command, module string) (*runtime, error) {
	cfg, err := loadConfig(command)
	if err != nil {
		return nil, err
	}

	log.Setup(cfg.LogLevel)

	logger := log.WithModule(module)

	store, err := cmd.NewPersistence(logger, cfg.PersistenceURL)
	if err != nil {
		return nil, err
	}

	registry := cmd.NewRegistry(logger)

	executor := workflow.NewExecutor(registry, workflow.ExecutorConfig{
		MaxSteps: cfg.MaxSteps,
		Timeout:  cfg.RunTimeout,
	}, logger)

	limits := validation.Limits{MaxDefinitionSteps: cfg.MaxDefinitionSteps}

	builder := workflow.NewBuilder(store, registry, executor, limits, logger)

	return &runtime{
		config:      cfg,
		logger:      logger,
		persistence: store,
		executor:    executor,
		builder:     builder,
	}, nil
}

func (r *runtime) Close(ctx context.Context) {
	if err := r.persistence.Close(ctx); err != nil {
		r.logger.Error("Failed to close persistence", "error", err)
	}
}

func readDefinition(path string) (*models.WorkflowDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var def models.WorkflowDefinition

	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &def, nil
}

func parseInputs(pairs []string) (models.Variables, error) {
	inputs := make(models.Variables, len(pairs))

	for _, pair := range pairs {
		name, raw, found := strings.Cut(pair, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("invalid input %q, expected name=value", pair)
		}

		inputs[name] = models.StringValue(raw)
	}

	return inputs, nil
}
