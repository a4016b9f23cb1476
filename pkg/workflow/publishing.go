package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/opsmith/agentforge/pkg/eventbus"
	"github.com/opsmith/agentforge/pkg/events"
	"github.com/opsmith/agentforge/pkg/models"
)

// runEventPublisher emits run lifecycle events for observers. Publishing is
// best-effort: a slow or broken observer never affects the run itself. A
// nil publisher silently drops everything, so wiring a bus stays optional.
type runEventPublisher struct {
	bus    eventbus.EventBus
	logger *slog.Logger
}

func newRunEventPublisher(bus eventbus.EventBus, logger *slog.Logger) *runEventPublisher {
	return &runEventPublisher{bus: bus, logger: logger.With("module", "run_events")}
}

func (p *runEventPublisher) base(eventType events.EventType, run *models.WorkflowRun) events.BaseEvent {
	return events.BaseEvent{
		ID:         p.bus.GenerateID(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: run.WorkflowID,
		RunID:      run.ID,
	}
}

func (p *runEventPublisher) publish(ctx context.Context, run *models.WorkflowRun, event eventbus.Event) {
	if err := p.bus.Publish(ctx, run.WorkflowID, event); err != nil {
		p.logger.Warn("Failed to publish run event", "event_type", event.GetType(), "run_id", run.ID, "error", err)
	}
}

func (p *runEventPublisher) runStarted(ctx context.Context, run *models.WorkflowRun) {
	if p == nil {
		return
	}

	p.publish(ctx, run, events.RunStarted{
		BaseEvent:       p.base(events.RunStartedEvent, run),
		WorkflowVersion: run.WorkflowVersion,
	})
}

func (p *runEventPublisher) runCompleted(ctx context.Context, run *models.WorkflowRun) {
	if p == nil {
		return
	}

	p.publish(ctx, run, events.RunCompleted{
		BaseEvent: p.base(events.RunCompletedEvent, run),
		Duration:  time.Duration(run.DurationMS) * time.Millisecond,
		Steps:     len(run.StepResults),
	})
}

func (p *runEventPublisher) runFailed(ctx context.Context, run *models.WorkflowRun) {
	if p == nil {
		return
	}

	event := events.RunFailed{BaseEvent: p.base(events.RunFailedEvent, run)}

	if run.Error != nil {
		event.Kind = run.Error.Kind
		event.StepID = run.Error.StepID
		event.Message = run.Error.Message
	}

	p.publish(ctx, run, event)
}

func (p *runEventPublisher) runCancelled(ctx context.Context, run *models.WorkflowRun) {
	if p == nil {
		return
	}

	p.publish(ctx, run, events.RunCancelled{BaseEvent: p.base(events.RunCancelledEvent, run)})
}

func (p *runEventPublisher) stepFinished(ctx context.Context, run *models.WorkflowRun, result models.StepResult) {
	if p == nil {
		return
	}

	p.publish(ctx, run, events.StepFinished{
		BaseEvent: p.base(events.StepFinishedEvent, run),
		StepID:    result.StepID,
		Status:    result.Status,
		Duration:  time.Duration(result.DurationMS) * time.Millisecond,
	})
}
