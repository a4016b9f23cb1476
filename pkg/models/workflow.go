package models

import "time"

// WorkflowDefinition is the stored, versioned graph of steps a user authors.
// A definition is a read-only snapshot for the lifetime of a run: updates
// bump Version and only affect runs started afterwards.
type WorkflowDefinition struct {
	ID          string          `json:"id"                                      yaml:"id"`
	Name        string          `json:"name"        validate:"required,min=3"   yaml:"name"`
	Description string          `json:"description"                            yaml:"description"`
	EntryPoint  string          `json:"entry_point" validate:"required"         yaml:"entry_point"`
	Steps       []*WorkflowStep `json:"steps"       validate:"required,min=1,dive" yaml:"steps"`
	Variables   Variables       `json:"variables,omitempty"                    yaml:"variables,omitempty"`
	Schedule    string          `json:"schedule,omitempty"                     yaml:"schedule,omitempty"`
	Version     int             `json:"version"                                yaml:"version"`
	CreatedBy   string          `json:"created_by,omitempty"                   yaml:"created_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"                             yaml:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"                             yaml:"updated_at"`
}

// StepByID returns the step with the given id, or nil when absent. When a
// definition carries duplicate ids (rejected by validation) the first match
// wins, mirroring the order steps were authored in.
func (d *WorkflowDefinition) StepByID(id string) *WorkflowStep {
	for _, step := range d.Steps {
		if step.ID == id {
			return step
		}
	}

	return nil
}

// Clone deep-copies the definition so a stored copy can never be mutated
// through a handed-out pointer.
func (d *WorkflowDefinition) Clone() *WorkflowDefinition {
	cloned := *d

	cloned.Steps = make([]*WorkflowStep, 0, len(d.Steps))

	for _, step := range d.Steps {
		stepCopy := *step

		if step.Config != nil {
			stepCopy.Config = cloneConfig(step.Config)
		}

		if step.Branches != nil {
			stepCopy.Branches = make(map[string]string, len(step.Branches))
			for outcome, target := range step.Branches {
				stepCopy.Branches[outcome] = target
			}
		}

		if step.Next != nil {
			next := *step.Next
			stepCopy.Next = &next
		}

		if step.OnError != nil {
			onError := *step.OnError
			stepCopy.OnError = &onError
		}

		cloned.Steps = append(cloned.Steps, &stepCopy)
	}

	if d.Variables != nil {
		cloned.Variables = d.Variables.Clone()
	}

	return &cloned
}

func cloneConfig(config map[string]any) map[string]any {
	cloned := make(map[string]any, len(config))

	for key, raw := range config {
		cloned[key] = cloneConfigValue(raw)
	}

	return cloned
}

func cloneConfigValue(raw any) any {
	switch typed := raw.(type) {
	case map[string]any:
		return cloneConfig(typed)
	case []any:
		items := make([]any, len(typed))
		for i, item := range typed {
			items[i] = cloneConfigValue(item)
		}

		return items
	default:
		return raw
	}
}
