package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkflowStep_Successors(t *testing.T) {
	next := "after"
	step := &WorkflowStep{
		ID:   "branch-step",
		Type: StepTypeCondition,
		Next: &next,
		Branches: map[string]string{
			BranchTrue:  "yes",
			BranchFalse: "no",
		},
	}

	successors := step.Successors()

	assert.Equal(t, []string{"after", "no", "yes"}, successors)
}

func TestWorkflowStep_Successors_NoEdges(t *testing.T) {
	step := &WorkflowStep{ID: "terminal", Type: StepTypeAction}

	assert.Empty(t, step.Successors())
	assert.Empty(t, step.NextID())
}

func TestWorkflowStep_ConfigAccessors(t *testing.T) {
	step := &WorkflowStep{
		ID:   "s",
		Type: StepTypeAction,
		Config: map[string]any{
			"action": "log",
			"params": map[string]any{"message": "hi"},
			"count":  float64(3),
		},
	}

	action, ok := step.ConfigString("action")
	assert.True(t, ok)
	assert.Equal(t, "log", action)

	_, ok = step.ConfigString("count")
	assert.False(t, ok)

	params, ok := step.ConfigMap("params")
	assert.True(t, ok)
	assert.Equal(t, "hi", params["message"])

	_, ok = step.ConfigMap("missing")
	assert.False(t, ok)
}

func TestStepByID_FirstMatchWins(t *testing.T) {
	def := &WorkflowDefinition{
		Steps: []*WorkflowStep{
			{ID: "dup", Name: "first"},
			{ID: "dup", Name: "second"},
		},
	}

	found := def.StepByID("dup")
	assert.Equal(t, "first", found.Name)
	assert.Nil(t, def.StepByID("absent"))
}

func TestWorkflowDefinition_CloneIsolation(t *testing.T) {
	def := testDefinition()
	def.Steps[0].Config = map[string]any{"params": map[string]any{"message": "orig"}}

	cloned := def.Clone()
	cloned.Steps[0].Config["params"].(map[string]any)["message"] = "mutated"
	*cloned.Steps[0].Next = "elsewhere"
	cloned.Variables["region"] = StringValue("mutated")

	assert.Equal(t, "orig", def.Steps[0].Config["params"].(map[string]any)["message"])
	assert.Equal(t, "step-2", *def.Steps[0].Next)

	region, _ := def.Variables["region"].AsString()
	assert.Equal(t, "us-east", region)
}

func TestWorkflowDefinition_CloneIsolatesMapsInsideLists(t *testing.T) {
	def := testDefinition()
	def.Steps[0].Config = map[string]any{
		"items": []any{
			map[string]any{"name": "orig"},
			[]any{map[string]any{"nested": "orig"}},
		},
	}

	cloned := def.Clone()

	items := cloned.Steps[0].Config["items"].([]any)
	items[0].(map[string]any)["name"] = "mutated"
	items[1].([]any)[0].(map[string]any)["nested"] = "mutated"

	original := def.Steps[0].Config["items"].([]any)
	assert.Equal(t, "orig", original[0].(map[string]any)["name"])
	assert.Equal(t, "orig", original[1].([]any)[0].(map[string]any)["nested"])
}

func TestKnownStepType(t *testing.T) {
	assert.True(t, KnownStepType(StepTypeAction))
	assert.True(t, KnownStepType(StepTypeLLM))
	assert.False(t, KnownStepType(StepType("webhook")))
}
