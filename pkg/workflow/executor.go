// Package workflow contains the interpreter that drives validated workflow
// definitions and the builder facade that owns their lifecycle.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/opsmith/agentforge/pkg/eventbus"
	"github.com/opsmith/agentforge/pkg/models"
	"github.com/opsmith/agentforge/pkg/otelhelper"
	"github.com/opsmith/agentforge/pkg/registry"
)

// DefaultMaxSteps is the run-time ceiling on executed steps. It is the
// safety net that bounds variable loop counts and long chains the static
// validator cannot, so every run terminates.
const DefaultMaxSteps = 1000

// ExecutorConfig bounds a single run.
type ExecutorConfig struct {
	// MaxSteps caps the number of executed steps per run. Zero means
	// DefaultMaxSteps.
	MaxSteps int

	// Timeout is an optional wall-clock deadline for the whole run,
	// checked at each step boundary. Zero disables it.
	Timeout time.Duration
}

// Executor interprets a validated workflow definition. Steps execute
// strictly one at a time along the followed path; concurrency lives one
// level up, where independent runs execute as independent tasks.
type Executor struct {
	registry  *registry.Registry
	config    ExecutorConfig
	publisher *runEventPublisher
	tracer    trace.Tracer
	logger    *slog.Logger
}

func NewExecutor(reg *registry.Registry, config ExecutorConfig, logger *slog.Logger) *Executor {
	return &Executor{
		registry: reg,
		config:   config,
		logger:   logger.With("module", "workflow_executor"),
	}
}

// WithEventBus enables run lifecycle event publishing.
func (e *Executor) WithEventBus(bus eventbus.EventBus) *Executor {
	e.publisher = newRunEventPublisher(bus, e.logger)

	return e
}

// WithTracer enables a span per run and per step.
func (e *Executor) WithTracer(tracer trace.Tracer) *Executor {
	e.tracer = tracer

	return e
}

func (e *Executor) maxSteps() int {
	if e.config.MaxSteps > 0 {
		return e.config.MaxSteps
	}

	return DefaultMaxSteps
}

// execution is the per-run interpreter state. The step counter is shared
// across loop bodies: every executed step counts, wherever it sits.
type execution struct {
	def      *models.WorkflowDefinition
	run      *models.WorkflowRun
	deadline time.Time
	executed int
	logger   *slog.Logger
}

// Execute drives a pending run to a terminal status. The definition is the
// run's private snapshot: a concurrent update to the stored workflow does
// not affect an in-flight run. All failures are recorded on the run itself.
func (e *Executor) Execute(ctx context.Context, def *models.WorkflowDefinition, run *models.WorkflowRun) {
	logger := e.logger.With(
		"workflow_id", def.ID,
		"workflow_version", def.Version,
		"run_id", run.ID,
	)

	run.Status = models.RunStatusRunning
	run.StartedAt = time.Now().UTC()

	var span trace.Span

	if e.tracer != nil {
		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "workflow.run",
			attribute.String(otelhelper.WorkflowIDKey, def.ID),
			attribute.String(otelhelper.WorkflowNameKey, def.Name),
			attribute.Int(otelhelper.WorkflowVersionKey, def.Version),
			attribute.String(otelhelper.RunIDKey, run.ID),
		)
		defer span.End()
	}

	e.publisher.runStarted(ctx, run)
	logger.Info("Starting run", "entry_point", def.EntryPoint)

	ex := &execution{def: def, run: run, logger: logger}

	if e.config.Timeout > 0 {
		ex.deadline = run.StartedAt.Add(e.config.Timeout)
	}

	runErr := e.execPath(ctx, ex, def.EntryPoint)

	switch {
	case runErr == nil:
		run.Finish(models.RunStatusSucceeded, nil)
		e.publisher.runCompleted(ctx, run)
		logger.Info("Run succeeded", "steps", len(run.StepResults), "duration_ms", run.DurationMS)
	case runErr.Kind == models.RunErrorCancelled:
		run.Finish(models.RunStatusCancelled, runErr)
		e.publisher.runCancelled(ctx, run)
		logger.Info("Run cancelled", "steps", len(run.StepResults))
	default:
		run.Finish(models.RunStatusFailed, runErr)
		e.publisher.runFailed(ctx, run)

		if span != nil {
			otelhelper.SetError(span, runErr, attribute.String(otelhelper.StepIDKey, runErr.StepID))
		}

		logger.Error("Run failed", "kind", runErr.Kind, "step_id", runErr.StepID, "error", runErr.Message)
	}
}

// execPath interprets the sub-path starting at startID until a terminal
// step. Loop bodies re-enter here, sharing the run's step counter.
func (e *Executor) execPath(ctx context.Context, ex *execution, startID string) *models.RunError {
	currentID := startID

	for currentID != "" {
		if runErr := e.checkBoundary(ctx, ex); runErr != nil {
			return runErr
		}

		step := ex.def.StepByID(currentID)
		if step == nil {
			// Validation makes this unreachable; fail safely anyway.
			return &models.RunError{
				Kind:    models.RunErrorStepFailed,
				StepID:  currentID,
				Message: fmt.Sprintf("step %q not found in definition", currentID),
			}
		}

		if ex.executed >= e.maxSteps() {
			return &models.RunError{
				Kind:    models.RunErrorStepLimitExceeded,
				StepID:  currentID,
				Message: fmt.Sprintf("step limit of %d exceeded", e.maxSteps()),
			}
		}

		nextID, runErr := e.executeStep(ctx, ex, step)
		if runErr != nil {
			return runErr
		}

		currentID = nextID
	}

	return nil
}

// checkBoundary is the cooperative suspension point between steps:
// cancellation and the wall-clock deadline are only observed here, so an
// in-flight handler call always finishes first.
func (e *Executor) checkBoundary(ctx context.Context, ex *execution) *models.RunError {
	select {
	case <-ctx.Done():
		return &models.RunError{
			Kind:    models.RunErrorCancelled,
			Message: ctx.Err().Error(),
		}
	default:
	}

	if !ex.deadline.IsZero() && time.Now().After(ex.deadline) {
		return &models.RunError{
			Kind:    models.RunErrorTimeout,
			Message: fmt.Sprintf("run exceeded timeout of %s", e.config.Timeout),
		}
	}

	return nil
}

// executeStep dispatches one step by its kind. The step type set is closed:
// anything else is a defensive failure, not a lookup into host code.
func (e *Executor) executeStep(ctx context.Context, ex *execution, step *models.WorkflowStep) (string, *models.RunError) {
	ex.executed++

	if e.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "workflow.step",
			attribute.String(otelhelper.RunIDKey, ex.run.ID),
			attribute.String(otelhelper.StepIDKey, step.ID),
			attribute.String(otelhelper.StepTypeKey, string(step.Type)),
		)
		defer span.End()
	}

	logger := ex.logger.With("step_id", step.ID, "step_type", step.Type)
	logger.Debug("Executing step")

	switch step.Type {
	case models.StepTypeAction:
		return e.executeAction(ctx, ex, step, logger)
	case models.StepTypeCondition:
		return e.executeCondition(ctx, ex, step, logger)
	case models.StepTypeLoop:
		return e.executeLoop(ctx, ex, step, logger)
	case models.StepTypeLLM:
		return e.executeLLM(ctx, ex, step, logger)
	default:
		result := models.StepResult{
			StepID:    step.ID,
			Status:    models.StepStatusFailed,
			Error:     fmt.Sprintf("unknown step type %q", step.Type),
			StartedAt: time.Now().UTC(),
			Attempt:   1,
		}
		e.record(ctx, ex, result)

		return "", &models.RunError{
			Kind:    models.RunErrorStepFailed,
			StepID:  step.ID,
			Message: result.Error,
		}
	}
}

// record appends one audit entry in execution order and notifies observers.
func (e *Executor) record(ctx context.Context, ex *execution, result models.StepResult) {
	ex.run.AppendStepResult(result)
	e.publisher.stepFinished(ctx, ex.run, result)
}

// failStep routes a step failure: to on_error when declared (a recovered
// failure, the run continues there) or up as a terminal run error.
func failStep(step *models.WorkflowStep, message string) (string, *models.RunError) {
	if step.OnError != nil && *step.OnError != "" {
		return *step.OnError, nil
	}

	return "", &models.RunError{
		Kind:    models.RunErrorStepFailed,
		StepID:  step.ID,
		Message: message,
	}
}
