// Package persistence provides the storage abstraction for workflow
// definitions and run history.
package persistence

import (
	"context"

	"github.com/opsmith/agentforge/pkg/models"
)

// WorkflowRepository stores workflow definitions.
type WorkflowRepository interface {
	Workflows(ctx context.Context) ([]*models.WorkflowDefinition, error)
	WorkflowByID(ctx context.Context, id string) (*models.WorkflowDefinition, error)
	SaveWorkflow(ctx context.Context, def *models.WorkflowDefinition) error
	DeleteWorkflow(ctx context.Context, id string) error
}

// RunRepository stores run records. Runs are append-only audit history:
// SaveRun replaces the whole record as the executor drives it forward, and
// deleting a workflow definition never touches its runs.
type RunRepository interface {
	Runs(ctx context.Context) ([]*models.WorkflowRun, error)
	RunByID(ctx context.Context, id string) (*models.WorkflowRun, error)
	RunsByWorkflowID(ctx context.Context, workflowID string) ([]*models.WorkflowRun, error)
	SaveRun(ctx context.Context, run *models.WorkflowRun) error
}

// Persistence is the storage collaborator consumed by the Builder.
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	RunRepository() RunRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
