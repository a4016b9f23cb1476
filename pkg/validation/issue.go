// Package validation statically checks workflow definitions before they are
// ever persisted or run.
package validation

import (
	"fmt"
	"strings"
)

// IssueCode classifies a single validation finding.
type IssueCode string

const (
	CodeEntryPointMissing     IssueCode = "entry_point_missing"
	CodeDuplicateStepID       IssueCode = "duplicate_step_id"
	CodeDanglingReference     IssueCode = "dangling_reference"
	CodeInvalidStepType       IssueCode = "invalid_step_type"
	CodeUnknownAction         IssueCode = "unknown_action"
	CodeInvalidConfig         IssueCode = "invalid_config"
	CodeUnresolvableLoopBound IssueCode = "unresolvable_loop_bound"
	CodeCycleDetected         IssueCode = "cycle_detected"
	CodeTooManySteps          IssueCode = "too_many_steps"
)

// Issue is one problem found in a definition. Validation aggregates every
// issue instead of stopping at the first, so a caller can report all
// violations at once.
type Issue struct {
	Code    IssueCode `json:"code"`
	StepID  string    `json:"step_id,omitempty"`
	Field   string    `json:"field,omitempty"`
	Message string    `json:"message"`
}

func (i Issue) String() string {
	if i.StepID != "" {
		return fmt.Sprintf("%s [step %s]: %s", i.Code, i.StepID, i.Message)
	}

	return fmt.Sprintf("%s: %s", i.Code, i.Message)
}

// ValidationError carries the aggregated issue list across the Builder
// surface. A definition that produced one is never stored.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	messages := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		messages = append(messages, issue.String())
	}

	return fmt.Sprintf("workflow definition invalid: %s", strings.Join(messages, "; "))
}
