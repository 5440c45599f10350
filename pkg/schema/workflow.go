package schema

import "time"

// Workflow is an ordered, named collection of steps executed as one unit.
// The step list is append-only while the workflow is in the created state
// and frozen once execution begins.
type Workflow struct {
	ID          string          `json:"workflow_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Steps       []*WorkflowStep `json:"steps"`
	Status      WorkflowStatus  `json:"status"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`
}

// NewWorkflow creates an empty workflow in the created state.
func NewWorkflow(id, name, description string) *Workflow {
	return &Workflow{
		ID:          id,
		Name:        name,
		Description: description,
		Status:      WorkflowStatusCreated,
	}
}

// AddStep appends a step. Steps may only be added before execution starts.
func (w *Workflow) AddStep(step *WorkflowStep) error {
	if w.Status != WorkflowStatusCreated {
		return NewErrorf(ErrCodeInvalidTransition,
			"cannot add step to workflow in status %s", w.Status)
	}
	w.Steps = append(w.Steps, step)
	return nil
}

// Step returns the step with the given ID, or nil.
func (w *Workflow) Step(id string) *WorkflowStep {
	for _, s := range w.Steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// PrevResultKey is the reserved context key aliasing the most recently
// completed step's result. Step IDs must not collide with it.
const PrevResultKey = "prev_result"

// ConditionEngineName selects the expression engine evaluating a step condition.
type ConditionEngineName string

const (
	ConditionEngineCEL  ConditionEngineName = "cel"
	ConditionEngineExpr ConditionEngineName = "expr"
)

// WorkflowStep is a single tool invocation with parameters, an optional
// condition, and a retry policy. The step ID doubles as the context key
// for its result.
type WorkflowStep struct {
	ID              string              `json:"step_id"`
	Action          string              `json:"action,omitempty"` // display label, not interpreted
	Tool            string              `json:"tool"`
	Params          map[string]any      `json:"params,omitempty"`
	Condition       string              `json:"condition,omitempty"`
	ConditionEngine ConditionEngineName `json:"condition_engine,omitempty"` // default: cel
	RetryCount      int                 `json:"retry_count"`                // extra attempts after the first failure
	Optional        bool                `json:"optional,omitempty"`

	Status     StepStatus  `json:"status"`
	Result     *StepResult `json:"result,omitempty"`
	Err        *FlowError  `json:"error,omitempty"`
	Attempts   int         `json:"attempts"`
	StartedAt  *time.Time  `json:"started_at,omitempty"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
}

// NewStep creates a pending step deferring to the tool's default retry
// policy. Set RetryCount explicitly to override it.
func NewStep(id, action, tool string, params map[string]any) *WorkflowStep {
	return &WorkflowStep{
		ID:         id,
		Action:     action,
		Tool:       tool,
		Params:     params,
		RetryCount: RetryToolDefault,
		Status:     StepStatusPending,
	}
}
