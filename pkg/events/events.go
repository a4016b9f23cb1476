// Package events defines event types for run lifecycle notifications.
package events

import (
	"time"

	"github.com/opsmith/agentforge/pkg/models"
)

type EventType string

const Topic = "agentforge.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RunStartedEvent   EventType = "run.started"
	RunCompletedEvent EventType = "run.completed"
	RunFailedEvent    EventType = "run.failed"
	RunCancelledEvent EventType = "run.cancelled"
	StepFinishedEvent EventType = "step.finished"
)

type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflow_id"`
	RunID      string    `json:"run_id"`
}

type RunStarted struct {
	BaseEvent

	WorkflowVersion int `json:"workflow_version"`
}

func (e RunStarted) GetType() EventType { return RunStartedEvent }

type RunCompleted struct {
	BaseEvent

	Duration time.Duration `json:"duration"`
	Steps    int           `json:"steps"`
}

func (e RunCompleted) GetType() EventType { return RunCompletedEvent }

type RunFailed struct {
	BaseEvent

	Kind    models.RunErrorKind `json:"kind"`
	StepID  string              `json:"step_id,omitempty"`
	Message string              `json:"message"`
}

func (e RunFailed) GetType() EventType { return RunFailedEvent }

type RunCancelled struct {
	BaseEvent
}

func (e RunCancelled) GetType() EventType { return RunCancelledEvent }

type StepFinished struct {
	BaseEvent

	StepID   string            `json:"step_id"`
	Status   models.StepStatus `json:"status"`
	Duration time.Duration     `json:"duration"`
}

func (e StepFinished) GetType() EventType { return StepFinishedEvent }
