package engine

import (
	"time"

	"github.com/rendis/stepflow/pkg/schema"
)

// validWorkflowTransitions defines the allowed workflow state transitions.
var validWorkflowTransitions = map[schema.WorkflowStatus][]schema.WorkflowStatus{
	schema.WorkflowStatusCreated:         {schema.WorkflowStatusRunning},
	schema.WorkflowStatusRunning:         {schema.WorkflowStatusCompleted, schema.WorkflowStatusFailed, schema.WorkflowStatusPartiallyFailed},
	schema.WorkflowStatusCompleted:       {},
	schema.WorkflowStatusFailed:          {},
	schema.WorkflowStatusPartiallyFailed: {},
}

// validStepTransitions defines the allowed step state transitions.
// Retries stay within running; only terminal outcomes leave it.
var validStepTransitions = map[schema.StepStatus][]schema.StepStatus{
	schema.StepStatusPending:   {schema.StepStatusRunning, schema.StepStatusSkipped},
	schema.StepStatusRunning:   {schema.StepStatusSucceeded, schema.StepStatusFailed},
	schema.StepStatusSucceeded: {},
	schema.StepStatusFailed:    {},
	schema.StepStatusSkipped:   {},
}

func isValidWorkflowTransition(from, to schema.WorkflowStatus) bool {
	for _, a := range validWorkflowTransitions[from] {
		if a == to {
			return true
		}
	}
	return false
}

func isValidStepTransition(from, to schema.StepStatus) bool {
	for _, a := range validStepTransitions[from] {
		if a == to {
			return true
		}
	}
	return false
}

// TransitionWorkflow validates and applies a workflow state change,
// stamping StartedAt/FinishedAt at the lifecycle edges.
func TransitionWorkflow(wf *schema.Workflow, to schema.WorkflowStatus) error {
	if !isValidWorkflowTransition(wf.Status, to) {
		return schema.NewErrorf(schema.ErrCodeInvalidTransition,
			"invalid workflow transition: %s -> %s", wf.Status, to).
			WithDetails(map[string]any{"workflow_id": wf.ID})
	}

	now := time.Now()
	switch {
	case to == schema.WorkflowStatusRunning:
		wf.StartedAt = &now
	case to.Terminal():
		wf.FinishedAt = &now
	}
	wf.Status = to
	return nil
}

// TransitionStep validates and applies a step state change, stamping
// StartedAt/FinishedAt at the lifecycle edges.
func TransitionStep(step *schema.WorkflowStep, to schema.StepStatus) error {
	if !isValidStepTransition(step.Status, to) {
		return schema.NewErrorf(schema.ErrCodeInvalidTransition,
			"invalid step transition: %s -> %s", step.Status, to).
			WithStep(step.ID)
	}

	now := time.Now()
	switch {
	case to == schema.StepStatusRunning:
		step.StartedAt = &now
	case to.Terminal():
		step.FinishedAt = &now
	}
	step.Status = to
	return nil
}
