package schema

import "time"

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusCreated         WorkflowStatus = "created"
	WorkflowStatusRunning         WorkflowStatus = "running"
	WorkflowStatusCompleted       WorkflowStatus = "completed"
	WorkflowStatusFailed          WorkflowStatus = "failed"
	WorkflowStatusPartiallyFailed WorkflowStatus = "partially_failed"
)

// Terminal reports whether no further workflow transition is possible.
func (s WorkflowStatus) Terminal() bool {
	switch s {
	case WorkflowStatusCompleted, WorkflowStatusFailed, WorkflowStatusPartiallyFailed:
		return true
	}
	return false
}

// StepStatus represents the lifecycle state of a step.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusSkipped   StepStatus = "skipped"
	StepStatusRunning   StepStatus = "running"
	StepStatusSucceeded StepStatus = "succeeded"
	StepStatusFailed    StepStatus = "failed"
)

// Terminal reports whether no further step transition is possible.
func (s StepStatus) Terminal() bool {
	switch s {
	case StepStatusSkipped, StepStatusSucceeded, StepStatusFailed:
		return true
	}
	return false
}

// ProgressEvent is emitted for every step attempt and terminal transition.
// Consumers (UI push, telemetry) subscribe via the streaming hub or the
// runner's OnUpdate callback; the engine itself owns no transport.
type ProgressEvent struct {
	WorkflowID string     `json:"workflow_id"`
	StepID     string     `json:"step_id,omitempty"`
	Status     StepStatus `json:"status"`
	Message    string     `json:"message,omitempty"`
	Attempt    int        `json:"attempt,omitempty"`
	Progress   int        `json:"progress_percent"`
	Timestamp  time.Time  `json:"timestamp"`
}
