package protocol

import (
	"context"
	"log/slog"

	"github.com/opsmith/agentforge/pkg/models"
)

// LLMTool is the injected language-model capability used by llm steps. The
// engine never implements the call itself; it passes the step's prompt
// configuration and the run's current variables and merges the structured
// result back into the variable bag.
type LLMTool interface {
	Analyze(ctx context.Context, config map[string]any, variables models.Variables, logger *slog.Logger) (models.Value, error)
}
