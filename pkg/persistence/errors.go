// Standardized error types shared by all persistence implementations.
package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrRunNotFound indicates a run was not found by the given identifier.
	ErrRunNotFound = errors.New("run not found")
)

// WorkflowError wraps workflow storage failures with operation context.
type WorkflowError struct {
	Op         string // Operation being performed (e.g. "Save", "Delete")
	WorkflowID string
	Err        error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s operation failed for workflow %s: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

func (e *WorkflowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewWorkflowError creates a new workflow error with context.
func NewWorkflowError(op, workflowID string, err error) *WorkflowError {
	return &WorkflowError{Op: op, WorkflowID: workflowID, Err: err}
}

// RunStorageError wraps run storage failures with operation context.
type RunStorageError struct {
	Op    string
	RunID string
	Err   error
}

func (e *RunStorageError) Error() string {
	return fmt.Sprintf("%s operation failed for run %s: %v", e.Op, e.RunID, e.Err)
}

func (e *RunStorageError) Unwrap() error {
	return e.Err
}

func (e *RunStorageError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewRunStorageError creates a new run storage error with context.
func NewRunStorageError(op, runID string, err error) *RunStorageError {
	return &RunStorageError{Op: op, RunID: runID, Err: err}
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsRunNotFound checks if an error indicates a run was not found.
func IsRunNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}
