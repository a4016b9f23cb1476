package models

import "sort"

// StepType is the closed set of step kinds the interpreter can dispatch.
type StepType string

const (
	StepTypeAction    StepType = "action"
	StepTypeCondition StepType = "condition"
	StepTypeLoop      StepType = "loop"
	StepTypeLLM       StepType = "llm"
)

// KnownStepType reports whether t names one of the supported step kinds.
func KnownStepType(t StepType) bool {
	switch t {
	case StepTypeAction, StepTypeCondition, StepTypeLoop, StepTypeLLM:
		return true
	default:
		return false
	}
}

// Branch outcomes for condition steps.
const (
	BranchTrue  = "true"
	BranchFalse = "false"
)

// Config keys shared by the validator and the executor. Step configuration
// is a pure data bag; none of these values are ever evaluated as code.
const (
	ConfigKeyAction    = "action"     // action steps: allow-listed action name
	ConfigKeyParams    = "params"     // action/llm steps: parameter map
	ConfigKeyResultKey = "result_key" // action/llm steps: variable to store output under
	ConfigKeyVariable  = "variable"   // condition steps: left operand variable name
	ConfigKeyOperator  = "operator"   // condition steps: comparison operator
	ConfigKeyValue     = "value"      // condition steps: right operand literal
	ConfigKeyCount     = "count"      // loop steps: literal bound or variable name
	ConfigKeyBody      = "body"       // loop steps: body sub-path entry step id
	ConfigKeyIndexVar  = "index_var"  // loop steps: iteration index variable name
	ConfigKeyPrompt    = "prompt"     // llm steps: prompt template
)

// WorkflowStep is one node in a workflow graph.
type WorkflowStep struct {
	ID       string            `json:"id"        validate:"required"            yaml:"id"`
	Type     StepType          `json:"type"      validate:"required"            yaml:"type"`
	Name     string            `json:"name"                                     yaml:"name"`
	Config   map[string]any    `json:"config,omitempty"                         yaml:"config,omitempty"`
	Next     *string           `json:"next,omitempty"                           yaml:"next,omitempty"`
	Branches map[string]string `json:"branches,omitempty"                       yaml:"branches,omitempty"`
	OnError  *string           `json:"on_error,omitempty"                       yaml:"on_error,omitempty"`
}

// ConfigString fetches a string entry from the step configuration.
func (s *WorkflowStep) ConfigString(key string) (string, bool) {
	raw, ok := s.Config[key]
	if !ok {
		return "", false
	}

	value, ok := raw.(string)

	return value, ok
}

// ConfigMap fetches a map entry from the step configuration.
func (s *WorkflowStep) ConfigMap(key string) (map[string]any, bool) {
	raw, ok := s.Config[key]
	if !ok {
		return nil, false
	}

	value, ok := raw.(map[string]any)

	return value, ok
}

// NextID returns the default successor step id, or "" for a terminal step.
func (s *WorkflowStep) NextID() string {
	if s.Next == nil {
		return ""
	}

	return *s.Next
}

// Successors returns every next/branches edge leaving this step. The
// on_error edge is a failure route, not part of the normal control flow,
// and is deliberately excluded.
func (s *WorkflowStep) Successors() []string {
	targets := make([]string, 0, 1+len(s.Branches))

	if s.Next != nil && *s.Next != "" {
		targets = append(targets, *s.Next)
	}

	outcomes := make([]string, 0, len(s.Branches))
	for outcome := range s.Branches {
		outcomes = append(outcomes, outcome)
	}

	sort.Strings(outcomes)

	for _, outcome := range outcomes {
		if target := s.Branches[outcome]; target != "" {
			targets = append(targets, target)
		}
	}

	return targets
}
