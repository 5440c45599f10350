package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/rendis/stepflow/internal/logging"
	"github.com/rendis/stepflow/internal/streaming"
	"github.com/rendis/stepflow/internal/tools"
	"github.com/rendis/stepflow/pkg/schema"
)

// Report is the full execution outcome returned for every run, terminal
// status included: per-step states, the final context, and timing.
type Report struct {
	WorkflowID   string                        `json:"workflow_id"`
	Name         string                        `json:"name"`
	Status       schema.WorkflowStatus         `json:"status"`
	Steps        []*schema.WorkflowStep        `json:"steps"`
	FinalContext map[string]*schema.StepResult `json:"final_context,omitempty"`
	Error        *schema.FlowError             `json:"error,omitempty"`
	StartedAt    time.Time                     `json:"started_at"`
	FinishedAt   time.Time                     `json:"finished_at"`
	Elapsed      time.Duration                 `json:"elapsed"`
}

// UpdateFunc receives progress events synchronously on the runner goroutine.
type UpdateFunc func(event schema.ProgressEvent)

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithHub publishes progress events to a streaming hub.
func WithHub(hub streaming.EventHub) RunnerOption {
	return func(r *Runner) { r.hub = hub }
}

// WithOnUpdate registers a progress callback.
func WithOnUpdate(fn UpdateFunc) RunnerOption {
	return func(r *Runner) { r.onUpdate = fn }
}

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// WithBackoffBase overrides the base retry delay. Tests use this to keep
// backoff waits short.
func WithBackoffBase(d time.Duration) RunnerOption {
	return func(r *Runner) { r.backoffBase = d }
}

// Runner executes workflows sequentially: steps run in declaration order,
// each to a terminal state, with results flowing through the context store.
type Runner struct {
	registry    *tools.Registry
	hub         streaming.EventHub
	onUpdate    UpdateFunc
	logger      *slog.Logger
	backoffBase time.Duration
	exec        *StepExecutor
}

// NewRunner creates a workflow runner over a tool registry. The step
// executor and its compiled-condition caches are shared across runs.
func NewRunner(registry *tools.Registry, opts ...RunnerOption) (*Runner, error) {
	r := &Runner{
		registry:    registry,
		logger:      slog.Default(),
		backoffBase: DefaultBackoffBase,
	}
	for _, opt := range opts {
		opt(r)
	}

	exec, err := NewStepExecutor(r.registry, r.logger, r.backoffBase)
	if err != nil {
		return nil, err
	}
	r.exec = exec
	return r, nil
}

// Execute runs a workflow to a terminal state and always returns a full
// Report, on failure too. The returned error, when non-nil, is the
// failure that decided the workflow status; callers wanting per-step
// detail read the report.
//
// initial optionally seeds the context store with caller-supplied results.
func (r *Runner) Execute(ctx context.Context, wf *schema.Workflow, initial map[string]*schema.StepResult) (*Report, error) {
	ctx = logging.WithWorkflowID(ctx, wf.ID)

	if err := TransitionWorkflow(wf, schema.WorkflowStatusRunning); err != nil {
		return nil, err
	}
	r.logger.InfoContext(ctx, "workflow started", "name", wf.Name, "steps", len(wf.Steps))
	r.emitWorkflow(ctx, wf, 0, "workflow started")

	store := NewContextStore(initial)

	var (
		runErr         *schema.FlowError
		optionalFailed bool
		done           int
	)

	for _, step := range wf.Steps {
		if ctx.Err() != nil {
			runErr = schema.NewError(schema.ErrCodeCancelled, "workflow cancelled").WithCause(ctx.Err())
			break
		}

		stepErr := r.exec.Execute(ctx, step, store, r.notifyStep(wf, &done))
		if step.Status.Terminal() {
			done++
		}
		if stepErr == nil {
			continue
		}

		flowErr := asFlowError(stepErr, schema.ErrCodeToolInvocation, "step failed")
		if flowErr.Code == schema.ErrCodeCancelled {
			runErr = flowErr
			break
		}
		if !step.Optional {
			r.logger.ErrorContext(ctx, "required step failed, halting workflow",
				"step_id", step.ID, "error", flowErr.Message)
			runErr = flowErr
			break
		}

		optionalFailed = true
		r.logger.WarnContext(ctx, "optional step failed, continuing",
			"step_id", step.ID, "error", flowErr.Message)
	}

	status := schema.WorkflowStatusCompleted
	switch {
	case runErr != nil:
		status = schema.WorkflowStatusFailed
	case optionalFailed:
		status = schema.WorkflowStatusPartiallyFailed
	}
	if err := TransitionWorkflow(wf, status); err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "workflow finished", "status", string(status))
	r.emitWorkflow(ctx, wf, 100, "workflow "+string(status))

	report := &Report{
		WorkflowID:   wf.ID,
		Name:         wf.Name,
		Status:       status,
		Steps:        wf.Steps,
		FinalContext: store.Snapshot(),
		Error:        runErr,
		StartedAt:    *wf.StartedAt,
		FinishedAt:   *wf.FinishedAt,
		Elapsed:      wf.FinishedAt.Sub(*wf.StartedAt),
	}
	if runErr != nil {
		return report, runErr
	}
	return report, nil
}

// notifyStep builds the executor callback that fans step progress out to
// the hub, the update callback and the log.
func (r *Runner) notifyStep(wf *schema.Workflow, done *int) stepNotifier {
	total := len(wf.Steps)
	return func(ctx context.Context, step *schema.WorkflowStep, status schema.StepStatus, attempt int, message string) {
		completed := *done
		if status.Terminal() {
			completed++
		}
		r.emit(ctx, schema.ProgressEvent{
			WorkflowID: wf.ID,
			StepID:     step.ID,
			Status:     status,
			Message:    message,
			Attempt:    attempt,
			Progress:   progressPercent(completed, total),
			Timestamp:  time.Now(),
		})
	}
}

func (r *Runner) emitWorkflow(ctx context.Context, wf *schema.Workflow, progress int, message string) {
	r.emit(ctx, schema.ProgressEvent{
		WorkflowID: wf.ID,
		Message:    message,
		Progress:   progress,
		Timestamp:  time.Now(),
	})
}

// emit delivers one event to every configured sink. Hub publish failures
// are logged and dropped; progress must never stall the run.
func (r *Runner) emit(ctx context.Context, event schema.ProgressEvent) {
	if r.hub != nil {
		if err := r.hub.Publish(ctx, event); err != nil {
			r.logger.WarnContext(ctx, "progress publish failed", "error", err)
		}
	}
	if r.onUpdate != nil {
		r.onUpdate(event)
	}
}

func progressPercent(done, total int) int {
	if total <= 0 {
		return 100
	}
	if done > total {
		done = total
	}
	return done * 100 / total
}
