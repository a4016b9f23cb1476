package validation

import (
	"fmt"

	"github.com/opsmith/agentforge/pkg/models"
)

// DFS colors for cycle detection.
type color uint8

const (
	white color = iota // not visited
	gray               // on the current DFS stack
	black              // fully explored
)

// checkCycles runs depth-first search with white/gray/black marking over
// the next/branches edge set, plus one edge per loop into its body entry,
// mirroring where the interpreter can actually go. A back-edge into a gray
// node is a cycle, with one sanctioned exception checked first: a loop
// step whose edge targets itself, the bounded-repetition pattern.
func checkCycles(def *models.WorkflowDefinition) []Issue {
	// Cycle detection needs a well-formed graph; reference checks report
	// the missing pieces separately.
	colors := make(map[string]color, len(def.Steps))
	issues := make([]Issue, 0)

	var visit func(step *models.WorkflowStep)

	visit = func(step *models.WorkflowStep) {
		colors[step.ID] = gray

		targets := step.Successors()

		if step.Type == models.StepTypeLoop {
			if body, ok := step.ConfigString(models.ConfigKeyBody); ok && body != "" {
				targets = append(targets, body)
			}
		}

		for _, target := range targets {
			if target == step.ID && step.Type == models.StepTypeLoop {
				// Sanctioned self-loop: bounded by the loop's own count and
				// the run-time step limit.
				continue
			}

			next := def.StepByID(target)
			if next == nil {
				continue // dangling, reported elsewhere
			}

			switch colors[next.ID] {
			case gray:
				issues = append(issues, Issue{
					Code:    CodeCycleDetected,
					StepID:  step.ID,
					Message: fmt.Sprintf("edge from %q to %q closes a cycle", step.ID, next.ID),
				})
			case white:
				visit(next)
			case black:
				// already explored
			}
		}

		colors[step.ID] = black
	}

	for _, step := range def.Steps {
		if colors[step.ID] == white {
			visit(step)
		}
	}

	return issues
}
