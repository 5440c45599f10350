package schema

import (
	"encoding/json"

	"github.com/google/uuid"
)

// RetryToolDefault marks a step whose planner omitted retry_count; the
// executor substitutes the resolved tool's class default.
const RetryToolDefault = -1

// WorkflowDefinition is the JSON-serializable workflow format produced
// by the planning collaborator.
type WorkflowDefinition struct {
	WorkflowID  string           `json:"workflow_id,omitempty"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Steps       []StepDefinition `json:"steps"`
}

// StepDefinition describes a single step in a workflow definition.
type StepDefinition struct {
	StepID          string         `json:"step_id"`
	Action          string         `json:"action,omitempty"`
	Tool            string         `json:"tool"`
	Params          map[string]any `json:"params,omitempty"`
	Condition       string         `json:"condition,omitempty"`
	ConditionEngine string         `json:"condition_engine,omitempty"` // cel (default) | expr
	RetryCount      *int           `json:"retry_count,omitempty"`
	Optional        bool           `json:"optional,omitempty"`
}

// ParseDefinition decodes a raw JSON workflow definition.
func ParseDefinition(raw []byte) (*WorkflowDefinition, error) {
	var def WorkflowDefinition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, NewErrorf(ErrCodeValidation, "decode workflow definition: %s", err.Error()).WithCause(err)
	}
	return &def, nil
}

// Build materializes the definition into an executable Workflow.
// A missing workflow_id is filled with a generated UUID. Param values
// are checked against the closed value union; a violation rejects the
// whole definition before execution.
func (d *WorkflowDefinition) Build() (*Workflow, error) {
	id := d.WorkflowID
	if id == "" {
		id = uuid.NewString()
	}

	wf := NewWorkflow(id, d.Name, d.Description)
	for _, sd := range d.Steps {
		if err := ValidateParams(sd.Params); err != nil {
			if fe, ok := err.(*FlowError); ok {
				return nil, fe.WithStep(sd.StepID)
			}
			return nil, err
		}

		step := NewStep(sd.StepID, sd.Action, sd.Tool, sd.Params)
		step.Condition = sd.Condition
		step.ConditionEngine = ConditionEngineName(sd.ConditionEngine)
		step.Optional = sd.Optional
		if sd.RetryCount != nil {
			step.RetryCount = *sd.RetryCount
		} else {
			step.RetryCount = RetryToolDefault
		}
		if err := wf.AddStep(step); err != nil {
			return nil, err
		}
	}
	return wf, nil
}
