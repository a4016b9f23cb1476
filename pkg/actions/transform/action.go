// Package transform provides the transform action: shapes a new value out
// of run variables using plain placeholder substitution.
package transform

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/opsmith/agentforge/pkg/models"
	"github.com/opsmith/agentforge/pkg/protocol"
)

type ActionFactory struct{}

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

func (*ActionFactory) ID() string {
	return "transform"
}

func (*ActionFactory) Name() string {
	return "Transform"
}

func (*ActionFactory) Description() string {
	return "Builds a new value from run variables. Placeholders in the mapping are resolved before the step runs; the resolved mapping is the step output."
}

func (*ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"mapping": map[string]any{
				"description": "Value to produce. Strings may contain {{variable}} placeholders; a string that is exactly one placeholder keeps the variable's type.",
			},
		},
		"required": []string{"mapping"},
	}
}

func (*ActionFactory) Create(config map[string]any) (protocol.Action, error) {
	return NewAction(config)
}

type Action struct {
	Mapping any
}

func NewAction(config map[string]any) (*Action, error) {
	mapping, ok := config["mapping"]
	if !ok {
		return nil, fmt.Errorf("transform action requires a mapping")
	}

	return &Action{Mapping: mapping}, nil
}

func (a *Action) Execute(_ context.Context, _ models.Variables, logger *slog.Logger) (models.Value, error) {
	// Placeholders were already resolved against run variables when the
	// step's params were prepared.
	output, err := models.FromAny(a.Mapping)
	if err != nil {
		return models.Null(), fmt.Errorf("transform produced an unsupported value: %w", err)
	}

	logger.Debug("Transform completed", "action_type", "transform", "kind", output.Kind())

	return output, nil
}
