package validation

import (
	"fmt"

	"github.com/rendis/stepflow/internal/expressions"
	"github.com/rendis/stepflow/pkg/schema"
)

// Issue codes emitted by the semantic validator.
const (
	codeRequired         = "required"
	codeDuplicateStepID  = "duplicate_step_id"
	codeReservedStepID   = "reserved_step_id"
	codeNegativeRetry    = "negative_retry_count"
	codeInvalidParams    = "invalid_params"
	codeUnknownEngine    = "unknown_condition_engine"
	codeConditionCompile = "condition_compile"
	codeEngineNoCond     = "engine_without_condition"
	codeUnknownRef       = "unknown_reference"
	codeForwardRef       = "forward_reference"
)

// SemanticValidator checks workflow rules that JSON Schema cannot express:
// step identity, parameter shapes, condition syntax and cross-step references.
type SemanticValidator struct {
	cel  *expressions.CELEngine
	expr *expressions.ExprEngine
}

// NewSemanticValidator creates a validator with fresh condition engines.
func NewSemanticValidator() (*SemanticValidator, error) {
	celEngine, err := expressions.NewCELEngine()
	if err != nil {
		return nil, err
	}
	return &SemanticValidator{
		cel:  celEngine,
		expr: expressions.NewExprEngine(),
	}, nil
}

// ValidateDefinition runs all semantic checks over a workflow definition.
// Errors mark the definition unusable; warnings flag constructs that will
// still run but likely not as the author intended.
func (v *SemanticValidator) ValidateDefinition(def *schema.WorkflowDefinition) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	if def == nil {
		result.AddError("", codeRequired, "workflow definition is nil")
		return result
	}
	if def.Name == "" {
		result.AddError("name", codeRequired, "workflow name is required")
	}
	if len(def.Steps) == 0 {
		result.AddError("steps", codeRequired, "workflow must define at least one step")
		return result
	}

	seen := make(map[string]int, len(def.Steps))
	for i, step := range def.Steps {
		path := fmt.Sprintf("steps[%d]", i)
		v.validateStep(result, path, step)

		if step.StepID == "" {
			continue
		}
		if prev, dup := seen[step.StepID]; dup {
			result.AddError(path+".step_id", codeDuplicateStepID,
				fmt.Sprintf("duplicate step id %q, already used by steps[%d]", step.StepID, prev))
			continue
		}
		seen[step.StepID] = i
	}

	v.validateReferences(result, def)
	return result
}

func (v *SemanticValidator) validateStep(result *schema.ValidationResult, path string, step schema.StepDefinition) {
	if step.StepID == "" {
		result.AddError(path+".step_id", codeRequired, "step id is required")
	}
	if step.StepID == schema.PrevResultKey {
		result.AddError(path+".step_id", codeReservedStepID,
			fmt.Sprintf("step id %q is reserved", schema.PrevResultKey))
	}
	if step.Tool == "" {
		result.AddError(path+".tool", codeRequired, "tool name is required")
	}
	if step.RetryCount != nil && *step.RetryCount < 0 {
		result.AddError(path+".retry_count", codeNegativeRetry, "retry count must not be negative")
	}
	if err := schema.ValidateParams(step.Params); err != nil {
		result.AddError(path+".params", codeInvalidParams, err.Error())
	}
	v.validateCondition(result, path, step)
}

func (v *SemanticValidator) validateCondition(result *schema.ValidationResult, path string, step schema.StepDefinition) {
	if step.Condition == "" {
		if step.ConditionEngine != "" {
			result.AddWarning(path+".condition_engine", codeEngineNoCond,
				"condition engine set without a condition")
		}
		return
	}

	var err error
	switch schema.ConditionEngineName(step.ConditionEngine) {
	case "", schema.ConditionEngineCEL:
		err = v.cel.Compile(step.Condition)
	case schema.ConditionEngineExpr:
		err = v.expr.Compile(step.Condition)
	default:
		result.AddError(path+".condition_engine", codeUnknownEngine,
			fmt.Sprintf("unknown condition engine %q", step.ConditionEngine))
		return
	}
	if err != nil {
		result.AddWarning(path+".condition", codeConditionCompile,
			fmt.Sprintf("condition does not compile, step will be skipped at runtime: %v", err))
	}
}

// validateReferences warns about {{...}} placeholders pointing at steps
// that do not exist or have not run yet when the referencing step executes.
func (v *SemanticValidator) validateReferences(result *schema.ValidationResult, def *schema.WorkflowDefinition) {
	known := make(map[string]int, len(def.Steps))
	for i, step := range def.Steps {
		known[step.StepID] = i
	}

	for i, step := range def.Steps {
		path := fmt.Sprintf("steps[%d].params", i)
		for _, key := range paramRefKeys(step.Params) {
			if key == schema.PrevResultKey {
				if i == 0 {
					result.AddWarning(path, codeUnknownRef,
						fmt.Sprintf("first step references %q but no step has run yet", schema.PrevResultKey))
				}
				continue
			}
			ref, ok := known[key]
			switch {
			case !ok:
				result.AddWarning(path, codeUnknownRef,
					fmt.Sprintf("placeholder references unknown step %q", key))
			case ref >= i:
				result.AddWarning(path, codeForwardRef,
					fmt.Sprintf("placeholder references step %q which runs after this step", key))
			}
		}
	}
}

// paramRefKeys collects placeholder keys from every string value in a
// parameter tree, depth first.
func paramRefKeys(params map[string]any) []string {
	var keys []string
	seen := make(map[string]bool)

	var walk func(v any)
	walk = func(v any) {
		switch tv := v.(type) {
		case string:
			for _, key := range expressions.ExtractRefKeys(tv) {
				if !seen[key] {
					seen[key] = true
					keys = append(keys, key)
				}
			}
		case map[string]any:
			for _, nested := range tv {
				walk(nested)
			}
		case []any:
			for _, nested := range tv {
				walk(nested)
			}
		}
	}
	for _, v := range params {
		walk(v)
	}
	return keys
}
