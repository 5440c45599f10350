package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/stepflow/pkg/schema"
)

func TestWorkflowTransitions(t *testing.T) {
	wf := schema.NewWorkflow("wf-1", "lifecycle", "")

	require.NoError(t, TransitionWorkflow(wf, schema.WorkflowStatusRunning))
	assert.NotNil(t, wf.StartedAt)

	require.NoError(t, TransitionWorkflow(wf, schema.WorkflowStatusCompleted))
	assert.NotNil(t, wf.FinishedAt)

	// Terminal states admit nothing.
	err := TransitionWorkflow(wf, schema.WorkflowStatusRunning)
	require.Error(t, err)

	var flowErr *schema.FlowError
	require.ErrorAs(t, err, &flowErr)
	assert.Equal(t, schema.ErrCodeInvalidTransition, flowErr.Code)
}

func TestWorkflowCannotCompleteFromCreated(t *testing.T) {
	wf := schema.NewWorkflow("wf-2", "shortcut", "")
	assert.Error(t, TransitionWorkflow(wf, schema.WorkflowStatusCompleted))
	assert.Error(t, TransitionWorkflow(wf, schema.WorkflowStatusPartiallyFailed))
}

func TestStepTransitions(t *testing.T) {
	step := schema.NewStep("a", "", "noop", nil)

	require.NoError(t, TransitionStep(step, schema.StepStatusRunning))
	assert.NotNil(t, step.StartedAt)

	require.NoError(t, TransitionStep(step, schema.StepStatusSucceeded))
	assert.NotNil(t, step.FinishedAt)

	assert.Error(t, TransitionStep(step, schema.StepStatusRunning))
}

func TestStepSkipOnlyFromPending(t *testing.T) {
	step := schema.NewStep("a", "", "noop", nil)
	require.NoError(t, TransitionStep(step, schema.StepStatusRunning))

	err := TransitionStep(step, schema.StepStatusSkipped)
	require.Error(t, err)

	var flowErr *schema.FlowError
	require.ErrorAs(t, err, &flowErr)
	assert.Equal(t, "a", flowErr.StepID)
}

func TestStepCannotSucceedFromPending(t *testing.T) {
	step := schema.NewStep("a", "", "noop", nil)
	assert.Error(t, TransitionStep(step, schema.StepStatusSucceeded))
	assert.Error(t, TransitionStep(step, schema.StepStatusFailed))
}
