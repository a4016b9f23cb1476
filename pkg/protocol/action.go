// Package protocol defines the contracts between the workflow engine and
// its injected collaborators.
package protocol

import (
	"context"
	"log/slog"

	"github.com/opsmith/agentforge/pkg/models"
)

// Action is one executable capability instance, created by its factory from
// a step's resolved configuration.
type Action interface {
	Execute(ctx context.Context, variables models.Variables, logger *slog.Logger) (models.Value, error)
}

// ActionFactory describes an allow-listed capability and creates instances
// of it. The factory set is populated at process start and consulted
// read-only afterwards; workflow content can only ever name-resolve into
// this table.
type ActionFactory interface {
	// ID is the action name workflows reference in config.action.
	ID() string

	// Name is the human-readable capability name.
	Name() string

	// Description explains what the action does.
	Description() string

	// Schema is the JSON schema the step's config must conform to.
	Schema() map[string]any

	// Create builds an action instance from resolved step configuration.
	Create(config map[string]any) (Action, error)
}
