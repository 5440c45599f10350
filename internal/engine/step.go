package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rendis/stepflow/internal/expressions"
	"github.com/rendis/stepflow/internal/logging"
	"github.com/rendis/stepflow/internal/tools"
	"github.com/rendis/stepflow/pkg/schema"
)

// stepNotifier receives step progress from the executor. The runner fills
// in workflow identity and fans the event out to hub, callback and log.
type stepNotifier func(ctx context.Context, step *schema.WorkflowStep, status schema.StepStatus, attempt int, message string)

// StepExecutor runs a single step: condition gate, parameter
// interpolation, tool dispatch with per-attempt timeout, and retries
// with exponential backoff.
type StepExecutor struct {
	registry    *tools.Registry
	interp      *expressions.Interpolator
	engines     map[schema.ConditionEngineName]expressions.Engine
	logger      *slog.Logger
	backoffBase time.Duration
}

// NewStepExecutor creates a step executor bound to a tool registry.
func NewStepExecutor(registry *tools.Registry, logger *slog.Logger, backoffBase time.Duration) (*StepExecutor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if backoffBase <= 0 {
		backoffBase = DefaultBackoffBase
	}

	celEngine, err := expressions.NewCELEngine()
	if err != nil {
		return nil, err
	}

	return &StepExecutor{
		registry: registry,
		interp:   expressions.NewInterpolator(logger),
		engines: map[schema.ConditionEngineName]expressions.Engine{
			schema.ConditionEngineCEL:  celEngine,
			schema.ConditionEngineExpr: expressions.NewExprEngine(),
		},
		logger:      logger,
		backoffBase: backoffBase,
	}, nil
}

// Execute runs one step to a terminal state. On success or skip it
// returns nil; on failure it returns the step's FlowError. The step's
// terminal result, if any, is written into the context store before
// Execute returns.
func (e *StepExecutor) Execute(ctx context.Context, step *schema.WorkflowStep, store *ContextStore, notify stepNotifier) error {
	ctx = logging.WithStepID(ctx, step.ID)
	ctx = logging.WithTool(ctx, step.Tool)

	// Condition gate. Evaluation is total: errors and non-true values
	// both mean skip, never a workflow failure.
	if step.Condition != "" && !e.conditionHolds(ctx, step, store) {
		if err := TransitionStep(step, schema.StepStatusSkipped); err != nil {
			return err
		}
		notify(ctx, step, schema.StepStatusSkipped, 0, "condition not met")
		return nil
	}

	if err := TransitionStep(step, schema.StepStatusRunning); err != nil {
		return err
	}

	flowErr := e.run(ctx, step, store, notify)
	if flowErr == nil {
		if err := TransitionStep(step, schema.StepStatusSucceeded); err != nil {
			return err
		}
		store.Set(step.ID, step.Result)
		notify(ctx, step, schema.StepStatusSucceeded, step.Attempts, "")
		return nil
	}

	step.Err = flowErr
	if step.Result == nil {
		step.Result = schema.Fail(flowErr.Message)
	}
	if err := TransitionStep(step, schema.StepStatusFailed); err != nil {
		return err
	}
	store.Set(step.ID, step.Result)
	notify(ctx, step, schema.StepStatusFailed, step.Attempts, flowErr.Message)
	return flowErr
}

// run interpolates parameters, resolves the tool and drives the attempt
// loop. It returns nil once an attempt succeeds.
func (e *StepExecutor) run(ctx context.Context, step *schema.WorkflowStep, store *ContextStore, notify stepNotifier) *schema.FlowError {
	params, err := e.interp.Params(step.Params, store)
	if err != nil {
		return asFlowError(err, schema.ErrCodeInterpolation, "parameter interpolation failed").WithStep(step.ID)
	}

	tool, found := e.registry.Resolve(step.Tool)
	if !found {
		return schema.NewErrorf(schema.ErrCodeUnknownTool, "unknown tool %q", step.Tool).WithStep(step.ID)
	}

	retries := step.RetryCount
	if retries == schema.RetryToolDefault {
		retries = tool.Retry
	}
	// Out-of-range values must still yield the first attempt.
	if retries < 0 {
		retries = 0
	}

	var lastErr *schema.FlowError
	for attempt := 1; attempt <= retries+1; attempt++ {
		step.Attempts = attempt
		notify(ctx, step, schema.StepStatusRunning, attempt, "")

		result, attemptErr := e.attempt(ctx, tool, params, store)
		if attemptErr == nil {
			step.Result = result
			return nil
		}
		lastErr = attemptErr.WithStep(step.ID)
		step.Result = result

		if !lastErr.IsRetryable() || attempt > retries {
			break
		}

		delay := ComputeBackoff(e.backoffBase, attempt)
		e.logger.WarnContext(ctx, "step attempt failed, retrying",
			"attempt", attempt, "max_attempts", retries+1, "backoff", delay, "error", lastErr.Message)
		if waitErr := WaitForBackoff(ctx, delay); waitErr != nil {
			return schema.NewError(schema.ErrCodeCancelled, "cancelled while waiting to retry").WithCause(waitErr)
		}
	}
	return lastErr
}

// attempt dispatches the tool once under its per-attempt timeout and
// normalizes every failure mode into a classified FlowError.
func (e *StepExecutor) attempt(ctx context.Context, tool *tools.Tool, params map[string]any, store *ContextStore) (*schema.StepResult, *schema.FlowError) {
	attemptCtx, cancel := context.WithTimeout(ctx, tool.AttemptTimeout())
	defer cancel()

	result, err := tool.Handler(attemptCtx, params, store.Snapshot())
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return result, schema.NewError(schema.ErrCodeCancelled, "step cancelled").WithCause(ctx.Err())
		case errors.Is(err, context.DeadlineExceeded):
			return result, schema.NewErrorf(schema.ErrCodeTimeout,
				"tool %q timed out after %s", tool.Name, tool.AttemptTimeout()).WithCause(err)
		default:
			var flowErr *schema.FlowError
			if errors.As(err, &flowErr) {
				return result, flowErr
			}
			return result, schema.NewErrorf(schema.ErrCodeToolInvocation,
				"tool %q failed: %s", tool.Name, err.Error()).WithCause(err)
		}
	}

	if result == nil {
		return nil, schema.NewErrorf(schema.ErrCodeToolInvocation, "tool %q returned no result", tool.Name)
	}
	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = fmt.Sprintf("tool %q reported failure", tool.Name)
		}
		return result, schema.NewError(schema.ErrCodeToolInvocation, msg)
	}
	return result, nil
}

// conditionHolds evaluates the step condition against the current context
// scope. Any evaluation error logs a warning and reads as false.
func (e *StepExecutor) conditionHolds(ctx context.Context, step *schema.WorkflowStep, store *ContextStore) bool {
	engineName := step.ConditionEngine
	if engineName == "" {
		engineName = schema.ConditionEngineCEL
	}
	engine, ok := e.engines[engineName]
	if !ok {
		e.logger.WarnContext(ctx, "unknown condition engine, skipping step",
			"engine", string(engineName))
		return false
	}

	out, err := engine.Evaluate(ctx, step.Condition, store.Scope())
	if err != nil {
		e.logger.WarnContext(ctx, "condition evaluation failed, skipping step",
			"condition", step.Condition, "error", err)
		return false
	}

	holds, isBool := out.(bool)
	if !isBool {
		e.logger.WarnContext(ctx, "condition did not evaluate to a boolean, skipping step",
			"condition", step.Condition, "value", out)
		return false
	}
	return holds
}

// asFlowError returns err as a FlowError, wrapping it under the given
// code when it is not one already.
func asFlowError(err error, code, message string) *schema.FlowError {
	var flowErr *schema.FlowError
	if errors.As(err, &flowErr) {
		return flowErr
	}
	return schema.NewError(code, message).WithCause(err)
}
