package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a workflow run. Terminal statuses
// never transition further.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// StepStatus is the outcome of one step execution.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusRunning   StepStatus = "running"
	StepStatusSucceeded StepStatus = "succeeded"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// RunErrorKind classifies why a run ended badly.
type RunErrorKind string

const (
	RunErrorStepFailed        RunErrorKind = "step_failed"
	RunErrorStepLimitExceeded RunErrorKind = "step_limit_exceeded"
	RunErrorTimeout           RunErrorKind = "timeout"
	RunErrorUnknownAction     RunErrorKind = "unknown_action"
	RunErrorCancelled         RunErrorKind = "cancelled"
)

// RunError is the terminal cause recorded on a failed or cancelled run.
type RunError struct {
	Kind    RunErrorKind `json:"kind"`
	StepID  string       `json:"step_id,omitempty"`
	Message string       `json:"message"`
}

func (e *RunError) Error() string {
	if e.StepID != "" {
		return fmt.Sprintf("%s (step %s): %s", e.Kind, e.StepID, e.Message)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// StepResult is one audit-trail entry for a single step execution. The same
// step id can appear many times inside a loop body; each pass is a distinct
// entry, appended in execution order.
type StepResult struct {
	StepID     string     `json:"step_id"`
	Status     StepStatus `json:"status"`
	Output     Value      `json:"output,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	DurationMS int64      `json:"duration_ms"`
	Attempt    int        `json:"attempt"`
}

// WorkflowRun is one execution instance of a definition: a private variable
// bag plus an append-only audit trail. Once terminal it is immutable.
type WorkflowRun struct {
	ID              string       `json:"id"`
	WorkflowID      string       `json:"workflow_id"`
	WorkflowVersion int          `json:"workflow_version"`
	Status          RunStatus    `json:"status"`
	Variables       Variables    `json:"variables"`
	StepResults     []StepResult `json:"step_results"`
	StartedAt       time.Time    `json:"started_at"`
	CompletedAt     *time.Time   `json:"completed_at,omitempty"`
	DurationMS      int64        `json:"duration_ms"`
	Error           *RunError    `json:"error,omitempty"`
}

// NewWorkflowRun creates a pending run seeded from the definition's initial
// variables plus the caller's inputs. Inputs win on key collisions. The
// variable bag is deep-copied: runs share no mutable state.
func NewWorkflowRun(def *WorkflowDefinition, inputs Variables) *WorkflowRun {
	vars := def.Variables.Clone()

	for key, value := range inputs {
		vars[key] = value.Clone()
	}

	return &WorkflowRun{
		ID:              "run-" + uuid.New().String()[:8],
		WorkflowID:      def.ID,
		WorkflowVersion: def.Version,
		Status:          RunStatusPending,
		Variables:       vars,
		StepResults:     make([]StepResult, 0),
	}
}

// AppendStepResult appends one audit entry. Results are never rewritten.
func (r *WorkflowRun) AppendStepResult(result StepResult) {
	r.StepResults = append(r.StepResults, result)
}

// Finish transitions the run to a terminal status and stamps duration.
func (r *WorkflowRun) Finish(status RunStatus, runErr *RunError) {
	now := time.Now().UTC()
	r.Status = status
	r.CompletedAt = &now
	r.DurationMS = now.Sub(r.StartedAt).Milliseconds()
	r.Error = runErr
}

// Clone deep-copies the run so stored history cannot be mutated through a
// handed-out pointer.
func (r *WorkflowRun) Clone() *WorkflowRun {
	cloned := *r
	cloned.Variables = r.Variables.Clone()

	cloned.StepResults = make([]StepResult, len(r.StepResults))
	copy(cloned.StepResults, r.StepResults)

	if r.CompletedAt != nil {
		completedAt := *r.CompletedAt
		cloned.CompletedAt = &completedAt
	}

	if r.Error != nil {
		runErr := *r.Error
		cloned.Error = &runErr
	}

	return &cloned
}
