package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsmith/agentforge/pkg/channels/gochannel"
	"github.com/opsmith/agentforge/pkg/eventbus"
	"github.com/opsmith/agentforge/pkg/events"
	"github.com/opsmith/agentforge/pkg/models"
)

func TestExecutor_PublishesLifecycleEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NewStdLogger(false, false))
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)

	var (
		mu       sync.Mutex
		observed []events.EventType
	)

	record := func(eventType events.EventType) eventbus.EventHandler {
		return func(_ context.Context, _ any) error {
			mu.Lock()
			observed = append(observed, eventType)
			mu.Unlock()

			return nil
		}
	}

	require.NoError(t, bus.Handle(events.RunStartedEvent, record(events.RunStartedEvent)))
	require.NoError(t, bus.Handle(events.StepFinishedEvent, record(events.StepFinishedEvent)))
	require.NoError(t, bus.Handle(events.RunCompletedEvent, record(events.RunCompletedEvent)))
	require.NoError(t, bus.Subscribe(ctx))

	calls := make([]string, 0)
	executor := newTestExecutor(echoRegistry(&calls), ExecutorConfig{}).
		WithEventBus(bus)

	def := &models.WorkflowDefinition{
		ID:         "wf-events",
		Name:       "Observable",
		EntryPoint: "only",
		Steps: []*models.WorkflowStep{
			{
				ID:     "only",
				Type:   models.StepTypeAction,
				Config: map[string]any{"action": "echo", "params": map[string]any{"message": "x"}},
			},
		},
	}

	run := executeRun(t, executor, def, nil)
	require.Equal(t, models.RunStatusSucceeded, run.Status)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(observed) == 3
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []events.EventType{
		events.RunStartedEvent,
		events.StepFinishedEvent,
		events.RunCompletedEvent,
	}, observed)
}

func TestExecutor_NoEventBusIsFine(t *testing.T) {
	// The publisher is optional; a bare executor runs without one.
	calls := make([]string, 0)
	executor := newTestExecutor(echoRegistry(&calls), ExecutorConfig{})

	def := &models.WorkflowDefinition{
		ID:         "wf-quiet",
		Name:       "Quiet Run",
		EntryPoint: "only",
		Steps: []*models.WorkflowStep{
			{
				ID:     "only",
				Type:   models.StepTypeAction,
				Config: map[string]any{"action": "echo", "params": map[string]any{"message": "x"}},
			},
		},
	}

	run := executeRun(t, executor, def, nil)
	assert.Equal(t, models.RunStatusSucceeded, run.Status)
}
