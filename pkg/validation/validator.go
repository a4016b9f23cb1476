package validation

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/opsmith/agentforge/pkg/models"
	"github.com/opsmith/agentforge/pkg/registry"
)

// DefaultMaxDefinitionSteps is the static ceiling on definition size,
// independent of the run-time step limit.
const DefaultMaxDefinitionSteps = 200

// Limits configures the static checks.
type Limits struct {
	// MaxDefinitionSteps caps the number of steps a single definition may
	// declare. Zero means DefaultMaxDefinitionSteps.
	MaxDefinitionSteps int
}

func (l Limits) maxDefinitionSteps() int {
	if l.MaxDefinitionSteps > 0 {
		return l.MaxDefinitionSteps
	}

	return DefaultMaxDefinitionSteps
}

// Validate runs every structural and safety check over a definition and
// returns the aggregated issue list. It never returns an error: issues are
// data. An empty list means the definition is safe to persist and run.
func Validate(def *models.WorkflowDefinition, reg *registry.Registry, limits Limits) []Issue {
	issues := make([]Issue, 0)

	issues = append(issues, checkEntryPoint(def)...)
	issues = append(issues, checkDuplicateIDs(def)...)
	issues = append(issues, checkReferences(def)...)
	issues = append(issues, checkStepConfigs(def, reg)...)
	issues = append(issues, checkLoopBounds(def)...)
	issues = append(issues, checkCycles(def)...)
	issues = append(issues, checkSize(def, limits)...)
	issues = append(issues, checkSchedule(def)...)

	return issues
}

func checkSchedule(def *models.WorkflowDefinition) []Issue {
	if def.Schedule == "" {
		return nil
	}

	if _, err := cron.ParseStandard(def.Schedule); err != nil {
		return []Issue{{
			Code:    CodeInvalidConfig,
			Field:   "schedule",
			Message: fmt.Sprintf("invalid cron expression %q: %v", def.Schedule, err),
		}}
	}

	return nil
}

func checkEntryPoint(def *models.WorkflowDefinition) []Issue {
	if def.EntryPoint == "" {
		return []Issue{{
			Code:    CodeEntryPointMissing,
			Field:   "entry_point",
			Message: "entry_point is empty",
		}}
	}

	if def.StepByID(def.EntryPoint) == nil {
		return []Issue{{
			Code:    CodeEntryPointMissing,
			Field:   "entry_point",
			Message: fmt.Sprintf("entry_point references unknown step %q", def.EntryPoint),
		}}
	}

	return nil
}

func checkDuplicateIDs(def *models.WorkflowDefinition) []Issue {
	issues := make([]Issue, 0)
	seen := make(map[string]bool, len(def.Steps))

	for _, step := range def.Steps {
		if seen[step.ID] {
			issues = append(issues, Issue{
				Code:    CodeDuplicateStepID,
				StepID:  step.ID,
				Message: fmt.Sprintf("step id %q declared more than once", step.ID),
			})

			continue
		}

		seen[step.ID] = true
	}

	return issues
}

// checkReferences reports one issue per dangling next/branches/on_error/body
// reference.
func checkReferences(def *models.WorkflowDefinition) []Issue {
	issues := make([]Issue, 0)

	exists := func(id string) bool { return def.StepByID(id) != nil }

	for _, step := range def.Steps {
		if step.Next != nil && *step.Next != "" && !exists(*step.Next) {
			issues = append(issues, Issue{
				Code:    CodeDanglingReference,
				StepID:  step.ID,
				Field:   "next",
				Message: fmt.Sprintf("next references unknown step %q", *step.Next),
			})
		}

		for _, target := range step.Successors() {
			if target == step.NextID() {
				continue // already checked above
			}

			if !exists(target) {
				issues = append(issues, Issue{
					Code:    CodeDanglingReference,
					StepID:  step.ID,
					Field:   "branches",
					Message: fmt.Sprintf("branch references unknown step %q", target),
				})
			}
		}

		if step.OnError != nil && *step.OnError != "" && !exists(*step.OnError) {
			issues = append(issues, Issue{
				Code:    CodeDanglingReference,
				StepID:  step.ID,
				Field:   "on_error",
				Message: fmt.Sprintf("on_error references unknown step %q", *step.OnError),
			})
		}

		if step.Type == models.StepTypeLoop {
			if body, ok := step.ConfigString(models.ConfigKeyBody); ok && body != "" && !exists(body) {
				issues = append(issues, Issue{
					Code:    CodeDanglingReference,
					StepID:  step.ID,
					Field:   "config.body",
					Message: fmt.Sprintf("loop body references unknown step %q", body),
				})
			}
		}
	}

	return issues
}

func checkStepConfigs(def *models.WorkflowDefinition, reg *registry.Registry) []Issue {
	issues := make([]Issue, 0)

	for _, step := range def.Steps {
		switch step.Type {
		case models.StepTypeAction:
			issues = append(issues, checkActionStep(step, reg)...)
		case models.StepTypeCondition:
			issues = append(issues, checkConditionStep(step)...)
		case models.StepTypeLoop:
			if body, ok := step.ConfigString(models.ConfigKeyBody); !ok || body == "" {
				issues = append(issues, Issue{
					Code:    CodeInvalidConfig,
					StepID:  step.ID,
					Field:   "config.body",
					Message: "loop step declares no body",
				})
			}
		case models.StepTypeLLM:
			if prompt, ok := step.ConfigString(models.ConfigKeyPrompt); !ok || prompt == "" {
				issues = append(issues, Issue{
					Code:    CodeInvalidConfig,
					StepID:  step.ID,
					Field:   "config.prompt",
					Message: "llm step declares no prompt",
				})
			}
		default:
			issues = append(issues, Issue{
				Code:    CodeInvalidStepType,
				StepID:  step.ID,
				Field:   "type",
				Message: fmt.Sprintf("unknown step type %q", step.Type),
			})
		}
	}

	return issues
}

// checkActionStep enforces the allow-list: an unknown action name is a
// validation-time rejection, never a run-time surprise.
func checkActionStep(step *models.WorkflowStep, reg *registry.Registry) []Issue {
	actionID, ok := step.ConfigString(models.ConfigKeyAction)
	if !ok || actionID == "" {
		return []Issue{{
			Code:    CodeInvalidConfig,
			StepID:  step.ID,
			Field:   "config.action",
			Message: "action step declares no action name",
		}}
	}

	if !reg.HasAction(actionID) {
		return []Issue{{
			Code:    CodeUnknownAction,
			StepID:  step.ID,
			Field:   "config.action",
			Message: fmt.Sprintf("action %q is not on the allow-list", actionID),
		}}
	}

	// The schema describes the params block, which is what the action
	// receives at run time.
	params, _ := step.ConfigMap(models.ConfigKeyParams)

	if err := reg.ValidateActionConfig(actionID, params); err != nil {
		return []Issue{{
			Code:    CodeInvalidConfig,
			StepID:  step.ID,
			Field:   "config.params",
			Message: err.Error(),
		}}
	}

	return nil
}

func checkConditionStep(step *models.WorkflowStep) []Issue {
	issues := make([]Issue, 0)

	if variable, ok := step.ConfigString(models.ConfigKeyVariable); !ok || variable == "" {
		issues = append(issues, Issue{
			Code:    CodeInvalidConfig,
			StepID:  step.ID,
			Field:   "config.variable",
			Message: "condition step declares no variable",
		})
	}

	operator, _ := step.ConfigString(models.ConfigKeyOperator)
	if !models.KnownOperator(models.ComparisonOperator(operator)) {
		issues = append(issues, Issue{
			Code:    CodeInvalidConfig,
			StepID:  step.ID,
			Field:   "config.operator",
			Message: fmt.Sprintf("unknown comparison operator %q", operator),
		})
	}

	return issues
}

// checkLoopBounds verifies every loop declares a resolvable iteration
// bound: a non-negative numeric literal or the name of a variable present
// in the definition's initial variables.
func checkLoopBounds(def *models.WorkflowDefinition) []Issue {
	issues := make([]Issue, 0)

	for _, step := range def.Steps {
		if step.Type != models.StepTypeLoop {
			continue
		}

		raw, ok := step.Config[models.ConfigKeyCount]
		if !ok {
			issues = append(issues, Issue{
				Code:    CodeUnresolvableLoopBound,
				StepID:  step.ID,
				Field:   "config.count",
				Message: "loop step declares no iteration bound",
			})

			continue
		}

		switch bound := raw.(type) {
		case float64:
			if bound < 0 {
				issues = append(issues, Issue{
					Code:    CodeUnresolvableLoopBound,
					StepID:  step.ID,
					Field:   "config.count",
					Message: fmt.Sprintf("iteration bound %v is negative", bound),
				})
			}
		case int:
			if bound < 0 {
				issues = append(issues, Issue{
					Code:    CodeUnresolvableLoopBound,
					StepID:  step.ID,
					Field:   "config.count",
					Message: fmt.Sprintf("iteration bound %d is negative", bound),
				})
			}
		case string:
			if _, found := def.Variables[bound]; !found {
				issues = append(issues, Issue{
					Code:    CodeUnresolvableLoopBound,
					StepID:  step.ID,
					Field:   "config.count",
					Message: fmt.Sprintf("iteration bound variable %q is not declared", bound),
				})
			}
		default:
			issues = append(issues, Issue{
				Code:    CodeUnresolvableLoopBound,
				StepID:  step.ID,
				Field:   "config.count",
				Message: fmt.Sprintf("iteration bound has unsupported type %T", raw),
			})
		}
	}

	return issues
}

func checkSize(def *models.WorkflowDefinition, limits Limits) []Issue {
	ceiling := limits.maxDefinitionSteps()

	if len(def.Steps) > ceiling {
		return []Issue{{
			Code:    CodeTooManySteps,
			Message: fmt.Sprintf("definition declares %d steps, ceiling is %d", len(def.Steps), ceiling),
		}}
	}

	return nil
}
