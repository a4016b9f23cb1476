// Package log provides the log action: writes a message to the structured
// logger at a configured level.
package log

import (
	"context"
	"log/slog"

	"github.com/opsmith/agentforge/pkg/models"
	"github.com/opsmith/agentforge/pkg/protocol"
)

type ActionFactory struct{}

func NewActionFactory() *ActionFactory {
	return &ActionFactory{}
}

func (*ActionFactory) ID() string {
	return "log"
}

func (*ActionFactory) Name() string {
	return "Log"
}

func (*ActionFactory) Description() string {
	return "Logs a message at a specified level. Placeholders in the message are resolved against run variables."
}

func (*ActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "The message to log. Supports {{variable}} placeholders.",
			},
			"level": map[string]any{
				"type":        "string",
				"description": "Log level for the message",
				"default":     "info",
				"enum":        []string{"debug", "info", "warn", "error"},
			},
		},
		"required": []string{"message"},
	}
}

func (*ActionFactory) Create(config map[string]any) (protocol.Action, error) {
	return NewAction(config), nil
}

type Action struct {
	Message string
	Level   string
}

func NewAction(config map[string]any) *Action {
	message, _ := config["message"].(string)

	level, _ := config["level"].(string)
	if level == "" {
		level = "info"
	}

	return &Action{Message: message, Level: level}
}

func (a *Action) Execute(_ context.Context, _ models.Variables, logger *slog.Logger) (models.Value, error) {
	logger = logger.With("action_type", "log")

	switch a.Level {
	case "debug":
		logger.Debug(a.Message)
	case "warn":
		logger.Warn(a.Message)
	case "error":
		logger.Error(a.Message)
	default:
		logger.Info(a.Message)
	}

	return models.MapValue(map[string]models.Value{
		"message": models.StringValue(a.Message),
		"level":   models.StringValue(a.Level),
	}), nil
}
