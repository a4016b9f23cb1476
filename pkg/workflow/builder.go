package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/opsmith/agentforge/pkg/models"
	"github.com/opsmith/agentforge/pkg/persistence"
	"github.com/opsmith/agentforge/pkg/registry"
	"github.com/opsmith/agentforge/pkg/validation"
)

// Builder owns the workflow definition lifecycle and exposes the run
// operations. Every create and update re-validates the entire definition;
// an invalid definition is never stored, not even partially.
type Builder struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	executor    *Executor
	limits      validation.Limits
	validate    *validator.Validate
	logger      *slog.Logger
}

func NewBuilder(
	store persistence.Persistence,
	reg *registry.Registry,
	executor *Executor,
	limits validation.Limits,
	logger *slog.Logger,
) *Builder {
	return &Builder{
		persistence: store,
		registry:    reg,
		executor:    executor,
		limits:      limits,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger.With("module", "workflow_builder"),
	}
}

// Validate dry-checks a definition without persisting anything: field-level
// struct checks first, then the full structural and safety pass.
func (b *Builder) Validate(def *models.WorkflowDefinition) []validation.Issue {
	issues := make([]validation.Issue, 0)

	if err := b.validate.Struct(def); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			for _, fieldErr := range fieldErrors {
				issues = append(issues, validation.Issue{
					Code:    validation.CodeInvalidConfig,
					Field:   fieldErr.Namespace(),
					Message: fmt.Sprintf("field %s fails %q constraint", fieldErr.Namespace(), fieldErr.Tag()),
				})
			}
		} else {
			issues = append(issues, validation.Issue{
				Code:    validation.CodeInvalidConfig,
				Message: err.Error(),
			})
		}
	}

	return append(issues, validation.Validate(def, b.registry, b.limits)...)
}

// Create validates and stores a new definition at version 1.
func (b *Builder) Create(ctx context.Context, def *models.WorkflowDefinition) (*models.WorkflowDefinition, error) {
	if issues := b.Validate(def); len(issues) > 0 {
		return nil, &validation.ValidationError{Issues: issues}
	}

	stored := def.Clone()

	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	stored.Version = 1
	stored.CreatedAt = now
	stored.UpdatedAt = now

	if err := b.persistence.WorkflowRepository().SaveWorkflow(ctx, stored); err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	b.logger.Info("Created workflow", "workflow_id", stored.ID, "name", stored.Name)

	return stored, nil
}

// Get fetches one definition by id.
func (b *Builder) Get(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	return b.persistence.WorkflowRepository().WorkflowByID(ctx, id)
}

// List fetches all stored definitions.
func (b *Builder) List(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	return b.persistence.WorkflowRepository().Workflows(ctx)
}

// Update replaces a definition after re-validating the whole modified
// definition, not just the diff. The version bumps; runs already in flight
// keep their snapshot and only future runs see the new version.
func (b *Builder) Update(ctx context.Context, id string, def *models.WorkflowDefinition) (*models.WorkflowDefinition, error) {
	existing, err := b.persistence.WorkflowRepository().WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	candidate := def.Clone()
	candidate.ID = id

	if issues := b.Validate(candidate); len(issues) > 0 {
		return nil, &validation.ValidationError{Issues: issues}
	}

	candidate.Version = existing.Version + 1
	candidate.CreatedAt = existing.CreatedAt
	candidate.CreatedBy = existing.CreatedBy
	candidate.UpdatedAt = time.Now().UTC()

	if err := b.persistence.WorkflowRepository().SaveWorkflow(ctx, candidate); err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	b.logger.Info("Updated workflow", "workflow_id", id, "version", candidate.Version)

	return candidate, nil
}

// Delete removes a definition. Existing run history is retained for audit.
func (b *Builder) Delete(ctx context.Context, id string) error {
	if err := b.persistence.WorkflowRepository().DeleteWorkflow(ctx, id); err != nil {
		return err
	}

	b.logger.Info("Deleted workflow", "workflow_id", id)

	return nil
}

// Run executes one run of a workflow against a snapshot of its current
// definition, blocking until the run is terminal. Concurrent runs are
// independent tasks: callers fan out with their own goroutines. The
// returned run carries the outcome; a failed run is not an error here.
func (b *Builder) Run(ctx context.Context, workflowID string, inputs models.Variables) (*models.WorkflowRun, error) {
	def, err := b.persistence.WorkflowRepository().WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	run := models.NewWorkflowRun(def, inputs)

	if err := b.persistence.RunRepository().SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to save run: %w", err)
	}

	b.executor.Execute(ctx, def, run)

	if err := b.persistence.RunRepository().SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to save run: %w", err)
	}

	return run, nil
}

// GetRun fetches one run by id, including its full audit trail.
func (b *Builder) GetRun(ctx context.Context, runID string) (*models.WorkflowRun, error) {
	return b.persistence.RunRepository().RunByID(ctx, runID)
}

// ListRuns fetches all stored runs.
func (b *Builder) ListRuns(ctx context.Context) ([]*models.WorkflowRun, error) {
	return b.persistence.RunRepository().Runs(ctx)
}

// ListRunsForWorkflow fetches the run history of one workflow.
func (b *Builder) ListRunsForWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowRun, error) {
	return b.persistence.RunRepository().RunsByWorkflowID(ctx, workflowID)
}
