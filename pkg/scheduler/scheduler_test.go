package scheduler

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsmith/agentforge/pkg/models"
	"github.com/opsmith/agentforge/pkg/persistence/memory"
	"github.com/opsmith/agentforge/pkg/protocol"
	"github.com/opsmith/agentforge/pkg/registry"
	"github.com/opsmith/agentforge/pkg/validation"
	"github.com/opsmith/agentforge/pkg/workflow"
)

type noopAction struct{}

func (noopAction) Execute(_ context.Context, _ models.Variables, _ *slog.Logger) (models.Value, error) {
	return models.Null(), nil
}

type noopFactory struct{}

func (noopFactory) ID() string             { return "log" }
func (noopFactory) Name() string           { return "Log" }
func (noopFactory) Description() string    { return "test action" }
func (noopFactory) Schema() map[string]any { return nil }
func (noopFactory) Create(_ map[string]any) (protocol.Action, error) {
	return noopAction{}, nil
}

func newTestScheduler(t *testing.T) (*Scheduler, *workflow.Builder) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	reg := registry.NewRegistry(logger)
	reg.RegisterAction(noopFactory{})

	store := memory.NewPersistence()
	executor := workflow.NewExecutor(reg, workflow.ExecutorConfig{}, logger)
	builder := workflow.NewBuilder(store, reg, executor, validation.Limits{}, logger)

	return NewScheduler(builder, logger), builder
}

func scheduledDefinition(schedule string) *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		Name:       "Scheduled Workflow",
		EntryPoint: "start",
		Schedule:   schedule,
		Steps: []*models.WorkflowStep{
			{ID: "start", Type: models.StepTypeAction, Config: map[string]any{"action": "log"}},
		},
	}
}

func TestValidateExpression(t *testing.T) {
	assert.NoError(t, ValidateExpression("*/5 * * * *"))
	assert.NoError(t, ValidateExpression("0 9 * * 1"))
	assert.Error(t, ValidateExpression("every tuesday"))
	assert.Error(t, ValidateExpression(""))
}

func TestScheduler_ReloadRegistersScheduledWorkflows(t *testing.T) {
	ctx := context.Background()
	sched, builder := newTestScheduler(t)

	scheduled, err := builder.Create(ctx, scheduledDefinition("*/5 * * * *"))
	require.NoError(t, err)

	_, err = builder.Create(ctx, scheduledDefinition(""))
	require.NoError(t, err)

	require.NoError(t, sched.Reload(ctx))

	entries := sched.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, scheduled.ID, entries[0])
}

func TestScheduler_ReloadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	sched, builder := newTestScheduler(t)

	_, err := builder.Create(ctx, scheduledDefinition("*/5 * * * *"))
	require.NoError(t, err)

	require.NoError(t, sched.Reload(ctx))
	require.NoError(t, sched.Reload(ctx))

	assert.Len(t, sched.Entries(), 1)
}

func TestScheduler_ReloadReplacesChangedSchedule(t *testing.T) {
	ctx := context.Background()
	sched, builder := newTestScheduler(t)

	scheduled, err := builder.Create(ctx, scheduledDefinition("0 0 1 1 *"))
	require.NoError(t, err)

	require.NoError(t, sched.Reload(ctx))

	updated, err := builder.Get(ctx, scheduled.ID)
	require.NoError(t, err)

	updated.Schedule = "* * * * *"
	_, err = builder.Update(ctx, scheduled.ID, updated)
	require.NoError(t, err)

	require.NoError(t, sched.Reload(ctx))
	require.Len(t, sched.Entries(), 1)

	sched.mu.Lock()
	current := sched.entries[scheduled.ID]
	sched.mu.Unlock()

	assert.Equal(t, "* * * * *", current.spec)

	next := sched.cron.Entry(current.id).Schedule.Next(time.Now())
	assert.Less(t, time.Until(next), 2*time.Minute)
}

func TestScheduler_ReloadRemovesDeletedWorkflows(t *testing.T) {
	ctx := context.Background()
	sched, builder := newTestScheduler(t)

	scheduled, err := builder.Create(ctx, scheduledDefinition("*/5 * * * *"))
	require.NoError(t, err)

	require.NoError(t, sched.Reload(ctx))
	require.Len(t, sched.Entries(), 1)

	require.NoError(t, builder.Delete(ctx, scheduled.ID))
	require.NoError(t, sched.Reload(ctx))

	assert.Empty(t, sched.Entries())
}

func TestScheduler_StartStop(t *testing.T) {
	sched, _ := newTestScheduler(t)

	sched.Start()
	sched.Stop()
}
