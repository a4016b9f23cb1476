package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/opsmith/agentforge/pkg/models"
	"github.com/opsmith/agentforge/pkg/template"
)

// invoker runs one resolved handler call; action and llm steps share the
// retry and on_error machinery below and differ only here.
type invoker func(ctx context.Context) (models.Value, error)

// retryAttempts reads the optional retries entry from a step config.
// A step runs 1+retries times at most.
func retryAttempts(step *models.WorkflowStep) int {
	switch raw := step.Config["retries"].(type) {
	case float64:
		if raw > 0 {
			return 1 + int(raw)
		}
	case int:
		if raw > 0 {
			return 1 + raw
		}
	}

	return 1
}

// invokeWithRetries drives a handler call to success or exhaustion. Every
// attempt is timed and appended as its own audit entry, and every attempt
// past the first counts against the step limit like any executed step.
// On success it returns the output. On a recovered failure it returns the
// on_error target to continue at; on a terminal failure, the run error.
func (e *Executor) invokeWithRetries(
	ctx context.Context,
	ex *execution,
	step *models.WorkflowStep,
	invoke invoker,
) (output models.Value, onError string, runErr *models.RunError, succeeded bool) {
	attempts := retryAttempts(step)

	var lastMessage string

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if boundaryErr := e.checkBoundary(ctx, ex); boundaryErr != nil {
				return models.Null(), "", boundaryErr, false
			}

			if ex.executed >= e.maxSteps() {
				return models.Null(), "", &models.RunError{
					Kind:    models.RunErrorStepLimitExceeded,
					StepID:  step.ID,
					Message: fmt.Sprintf("step limit of %d exceeded", e.maxSteps()),
				}, false
			}

			ex.executed++
		}

		started := time.Now().UTC()
		out, err := invoke(ctx)
		duration := time.Since(started).Milliseconds()

		result := models.StepResult{
			StepID:     step.ID,
			StartedAt:  started,
			DurationMS: duration,
			Attempt:    attempt,
		}

		if err == nil {
			result.Status = models.StepStatusSucceeded
			result.Output = out
			e.record(ctx, ex, result)

			return out, "", nil, true
		}

		result.Status = models.StepStatusFailed
		result.Error = err.Error()
		e.record(ctx, ex, result)

		lastMessage = err.Error()
	}

	nextID, failErr := failStep(step, lastMessage)
	if failErr != nil {
		return models.Null(), "", failErr, false
	}

	return models.Null(), nextID, nil, false
}

func (e *Executor) executeAction(ctx context.Context, ex *execution, step *models.WorkflowStep, logger *slog.Logger) (string, *models.RunError) {
	actionID, ok := step.ConfigString(models.ConfigKeyAction)
	if !ok || actionID == "" || !e.registry.HasAction(actionID) {
		// Validation makes this unreachable; fail safely anyway.
		result := models.StepResult{
			StepID:    step.ID,
			Status:    models.StepStatusFailed,
			Error:     fmt.Sprintf("action %q is not on the allow-list", actionID),
			StartedAt: time.Now().UTC(),
			Attempt:   1,
		}
		e.record(ctx, ex, result)

		return "", &models.RunError{
			Kind:    models.RunErrorUnknownAction,
			StepID:  step.ID,
			Message: result.Error,
		}
	}

	params, _ := step.ConfigMap(models.ConfigKeyParams)
	resolved := template.ResolveParams(params, ex.run.Variables)

	invoke := func(ctx context.Context) (models.Value, error) {
		action, err := e.registry.CreateAction(actionID, resolved)
		if err != nil {
			return models.Null(), err
		}

		return action.Execute(ctx, ex.run.Variables, logger.With("action_id", actionID))
	}

	output, onError, runErr, succeeded := e.invokeWithRetries(ctx, ex, step, invoke)
	if runErr != nil {
		return "", runErr
	}

	if !succeeded {
		return onError, nil
	}

	if resultKey, ok := step.ConfigString(models.ConfigKeyResultKey); ok && resultKey != "" {
		ex.run.Variables[resultKey] = output
	}

	return step.NextID(), nil
}

// executeCondition resolves the left operand from the variable bag and
// compares it against the literal right operand. A missing variable is a
// deterministic false, never an error: identical input state always routes
// identically.
func (e *Executor) executeCondition(ctx context.Context, ex *execution, step *models.WorkflowStep, logger *slog.Logger) (string, *models.RunError) {
	started := time.Now().UTC()

	variable, _ := step.ConfigString(models.ConfigKeyVariable)
	operator, _ := step.ConfigString(models.ConfigKeyOperator)

	right, err := models.FromAny(step.Config[models.ConfigKeyValue])
	if err != nil {
		right = models.Null()
	}

	outcome := false

	if left, ok := ex.run.Variables[variable]; ok {
		outcome = models.Compare(left, models.ComparisonOperator(operator), right)
	} else {
		logger.Debug("Condition variable missing, routing to false branch", "variable", variable)
	}

	e.record(ctx, ex, models.StepResult{
		StepID:     step.ID,
		Status:     models.StepStatusSucceeded,
		Output:     models.BoolValue(outcome),
		StartedAt:  started,
		DurationMS: time.Since(started).Milliseconds(),
		Attempt:    1,
	})

	branchKey := models.BranchFalse
	if outcome {
		branchKey = models.BranchTrue
	}

	if target, ok := step.Branches[branchKey]; ok && target != "" {
		return target, nil
	}

	return step.NextID(), nil
}

// executeLoop resolves the iteration bound and runs the body sub-path that
// many times. A bound of zero records the loop step itself as a single
// succeeded entry and never enters the body.
func (e *Executor) executeLoop(ctx context.Context, ex *execution, step *models.WorkflowStep, logger *slog.Logger) (string, *models.RunError) {
	started := time.Now().UTC()

	count, err := resolveLoopBound(step, ex.run.Variables)
	if err != nil {
		result := models.StepResult{
			StepID:     step.ID,
			Status:     models.StepStatusFailed,
			Error:      err.Error(),
			StartedAt:  started,
			DurationMS: time.Since(started).Milliseconds(),
			Attempt:    1,
		}
		e.record(ctx, ex, result)

		return failStep(step, err.Error())
	}

	e.record(ctx, ex, models.StepResult{
		StepID:     step.ID,
		Status:     models.StepStatusSucceeded,
		Output:     models.MapValue(map[string]models.Value{"iterations": models.NumberValue(float64(count))}),
		StartedAt:  started,
		DurationMS: time.Since(started).Milliseconds(),
		Attempt:    1,
	})

	if count == 0 {
		return step.NextID(), nil
	}

	body, _ := step.ConfigString(models.ConfigKeyBody)

	indexVar, ok := step.ConfigString(models.ConfigKeyIndexVar)
	if !ok || indexVar == "" {
		indexVar = step.ID + "_index"
	}

	logger.Debug("Entering loop body", "iterations", count, "index_var", indexVar)

	for i := 0; i < count; i++ {
		ex.run.Variables[indexVar] = models.NumberValue(float64(i))

		if runErr := e.execPath(ctx, ex, body); runErr != nil {
			return "", runErr
		}
	}

	return step.NextID(), nil
}

// resolveLoopBound resolves the iteration count: a non-negative numeric
// literal or the name of a numeric run variable.
func resolveLoopBound(step *models.WorkflowStep, variables models.Variables) (int, error) {
	raw, ok := step.Config[models.ConfigKeyCount]
	if !ok {
		return 0, fmt.Errorf("loop step %q declares no iteration bound", step.ID)
	}

	switch bound := raw.(type) {
	case float64:
		if bound < 0 {
			return 0, fmt.Errorf("iteration bound %v is negative", bound)
		}

		return int(bound), nil
	case int:
		if bound < 0 {
			return 0, fmt.Errorf("iteration bound %d is negative", bound)
		}

		return bound, nil
	case string:
		value, ok := variables[bound]
		if !ok {
			return 0, fmt.Errorf("iteration bound variable %q is not set", bound)
		}

		num, ok := value.AsNumber()
		if !ok || num < 0 {
			return 0, fmt.Errorf("iteration bound variable %q is not a non-negative number", bound)
		}

		return int(num), nil
	default:
		return 0, fmt.Errorf("iteration bound has unsupported type %T", raw)
	}
}

// executeLLM invokes the injected language-model tool and merges its
// structured result into the variable bag. Error and retry handling match
// action steps.
func (e *Executor) executeLLM(ctx context.Context, ex *execution, step *models.WorkflowStep, logger *slog.Logger) (string, *models.RunError) {
	tool, err := e.registry.LLMTool()
	if err != nil {
		result := models.StepResult{
			StepID:    step.ID,
			Status:    models.StepStatusFailed,
			Error:     err.Error(),
			StartedAt: time.Now().UTC(),
			Attempt:   1,
		}
		e.record(ctx, ex, result)

		return failStep(step, err.Error())
	}

	resolved := make(map[string]any, len(step.Config))
	for key, raw := range step.Config {
		resolved[key] = template.ResolveValue(raw, ex.run.Variables)
	}

	invoke := func(ctx context.Context) (models.Value, error) {
		return tool.Analyze(ctx, resolved, ex.run.Variables, logger)
	}

	output, onError, runErr, succeeded := e.invokeWithRetries(ctx, ex, step, invoke)
	if runErr != nil {
		return "", runErr
	}

	if !succeeded {
		return onError, nil
	}

	resultKey, ok := step.ConfigString(models.ConfigKeyResultKey)
	if !ok || resultKey == "" {
		resultKey = step.ID
	}

	ex.run.Variables[resultKey] = output

	return step.NextID(), nil
}
