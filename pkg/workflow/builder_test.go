package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsmith/agentforge/pkg/models"
	"github.com/opsmith/agentforge/pkg/persistence"
	"github.com/opsmith/agentforge/pkg/persistence/memory"
	"github.com/opsmith/agentforge/pkg/registry"
	"github.com/opsmith/agentforge/pkg/validation"
)

func newTestBuilder(t *testing.T, reg *registry.Registry) (*Builder, *memory.Persistence) {
	t.Helper()

	store := memory.NewPersistence()
	executor := newTestExecutor(reg, ExecutorConfig{})

	return NewBuilder(store, reg, executor, validation.Limits{}, testLogger()), store
}

func validDefinition() *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		Name:       "Greeting Workflow",
		EntryPoint: "greet",
		Steps: []*models.WorkflowStep{
			{
				ID:     "greet",
				Type:   models.StepTypeAction,
				Config: map[string]any{"action": "echo", "params": map[string]any{"message": "hi"}},
			},
		},
	}
}

func TestBuilder_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	calls := make([]string, 0)
	builder, _ := newTestBuilder(t, echoRegistry(&calls))

	created, err := builder.Create(ctx, validDefinition())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 1, created.Version)
	assert.False(t, created.CreatedAt.IsZero())

	fetched, err := builder.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Greeting Workflow", fetched.Name)
}

func TestBuilder_CreateInvalidNeverPersisted(t *testing.T) {
	ctx := context.Background()
	calls := make([]string, 0)
	builder, _ := newTestBuilder(t, echoRegistry(&calls))

	def := validDefinition()
	def.Steps[0].Config["action"] = "delete_everything"

	_, err := builder.Create(ctx, def)
	require.Error(t, err)

	var validationErr *validation.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.NotEmpty(t, validationErr.Issues)

	stored, err := builder.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestBuilder_CreateRejectsShortName(t *testing.T) {
	ctx := context.Background()
	calls := make([]string, 0)
	builder, _ := newTestBuilder(t, echoRegistry(&calls))

	def := validDefinition()
	def.Name = "ab"

	_, err := builder.Create(ctx, def)

	var validationErr *validation.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestBuilder_UpdateBumpsVersion(t *testing.T) {
	ctx := context.Background()
	calls := make([]string, 0)
	builder, _ := newTestBuilder(t, echoRegistry(&calls))

	created, err := builder.Create(ctx, validDefinition())
	require.NoError(t, err)

	modified := validDefinition()
	modified.Name = "Renamed Workflow"

	updated, err := builder.Update(ctx, created.ID, modified)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "Renamed Workflow", updated.Name)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, created.ID, updated.ID)
}

func TestBuilder_UpdateInvalidKeepsStoredVersion(t *testing.T) {
	ctx := context.Background()
	calls := make([]string, 0)
	builder, _ := newTestBuilder(t, echoRegistry(&calls))

	created, err := builder.Create(ctx, validDefinition())
	require.NoError(t, err)

	broken := validDefinition()
	broken.EntryPoint = "ghost"

	_, err = builder.Update(ctx, created.ID, broken)

	var validationErr *validation.ValidationError
	require.ErrorAs(t, err, &validationErr)

	stored, err := builder.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)
	assert.Equal(t, "Greeting Workflow", stored.Name)
}

func TestBuilder_UpdateUnknownWorkflow(t *testing.T) {
	ctx := context.Background()
	calls := make([]string, 0)
	builder, _ := newTestBuilder(t, echoRegistry(&calls))

	_, err := builder.Update(ctx, "missing", validDefinition())
	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestBuilder_Run(t *testing.T) {
	ctx := context.Background()
	calls := make([]string, 0)
	builder, _ := newTestBuilder(t, echoRegistry(&calls))

	created, err := builder.Create(ctx, validDefinition())
	require.NoError(t, err)

	run, err := builder.Run(ctx, created.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSucceeded, run.Status)
	assert.Equal(t, created.ID, run.WorkflowID)
	assert.Equal(t, 1, run.WorkflowVersion)

	// The terminal run is persisted with its full audit trail.
	stored, err := builder.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSucceeded, stored.Status)
	assert.Len(t, stored.StepResults, 1)
}

func TestBuilder_RunFailureIsNotAnError(t *testing.T) {
	ctx := context.Background()

	reg := registry.NewRegistry(testLogger())
	reg.RegisterAction(&scriptedFactory{
		id: "explode",
		behavior: func(_ context.Context, _ map[string]any, _ models.Variables) (models.Value, error) {
			return models.Null(), errors.New("boom")
		},
	})

	builder, _ := newTestBuilder(t, reg)

	def := validDefinition()
	def.Steps[0].Config["action"] = "explode"

	created, err := builder.Create(ctx, def)
	require.NoError(t, err)

	run, err := builder.Run(ctx, created.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	require.NotNil(t, run.Error)
}

func TestBuilder_RunUnknownWorkflow(t *testing.T) {
	ctx := context.Background()
	calls := make([]string, 0)
	builder, _ := newTestBuilder(t, echoRegistry(&calls))

	_, err := builder.Run(ctx, "missing", nil)
	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestBuilder_DeleteRetainsRunHistory(t *testing.T) {
	ctx := context.Background()
	calls := make([]string, 0)
	builder, _ := newTestBuilder(t, echoRegistry(&calls))

	created, err := builder.Create(ctx, validDefinition())
	require.NoError(t, err)

	run, err := builder.Run(ctx, created.ID, nil)
	require.NoError(t, err)

	require.NoError(t, builder.Delete(ctx, created.ID))

	_, err = builder.Get(ctx, created.ID)
	assert.True(t, persistence.IsWorkflowNotFound(err))

	// Audit history outlives the definition.
	history, err := builder.ListRunsForWorkflow(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, run.ID, history[0].ID)
}

func TestBuilder_ListRunsForWorkflowFilters(t *testing.T) {
	ctx := context.Background()
	calls := make([]string, 0)
	builder, _ := newTestBuilder(t, echoRegistry(&calls))

	first, err := builder.Create(ctx, validDefinition())
	require.NoError(t, err)

	second, err := builder.Create(ctx, validDefinition())
	require.NoError(t, err)

	_, err = builder.Run(ctx, first.ID, nil)
	require.NoError(t, err)

	_, err = builder.Run(ctx, first.ID, nil)
	require.NoError(t, err)

	_, err = builder.Run(ctx, second.ID, nil)
	require.NoError(t, err)

	firstRuns, err := builder.ListRunsForWorkflow(ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, firstRuns, 2)

	all, err := builder.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
