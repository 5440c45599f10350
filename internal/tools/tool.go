package tools

import (
	"context"
	"time"

	"github.com/rendis/stepflow/pkg/schema"
)

// Handler is a named capability invoked by a workflow step. It receives
// the step's interpolated parameters and a read-only snapshot of prior
// step results. A failed invocation is reported either as a result with
// Success=false or as a returned error; both are treated the same by
// the step executor.
type Handler func(ctx context.Context, params map[string]any, results map[string]*schema.StepResult) (*schema.StepResult, error)

// ToolClass groups tools by invocation profile. The class supplies the
// per-attempt timeout and the default retry count for steps that do not
// declare their own.
type ToolClass string

const (
	ClassLocal   ToolClass = "local"
	ClassNetwork ToolClass = "network"
	ClassBrowser ToolClass = "browser"
	ClassEmail   ToolClass = "email"
	ClassLLM     ToolClass = "llm"
)

// DefaultTimeout returns the per-attempt invocation bound for the class.
func (c ToolClass) DefaultTimeout() time.Duration {
	switch c {
	case ClassLocal:
		return 10 * time.Second
	case ClassBrowser, ClassLLM:
		return 60 * time.Second
	default: // network, email, unknown
		return 30 * time.Second
	}
}

// DefaultRetry returns the extra attempts granted by default: none for
// local operations, one for anything that crosses a network boundary.
func (c ToolClass) DefaultRetry() int {
	if c == ClassLocal {
		return 0
	}
	return 1
}

// Tool is a registered capability: the handler plus its resolved
// invocation policy.
type Tool struct {
	Name    string
	Handler Handler
	Class   ToolClass
	Timeout time.Duration // per-attempt bound; zero means class default
	Retry   int           // default extra attempts for steps without retry_count
}

// AttemptTimeout returns the effective per-attempt timeout.
func (t *Tool) AttemptTimeout() time.Duration {
	if t.Timeout > 0 {
		return t.Timeout
	}
	return t.Class.DefaultTimeout()
}

// Option customizes a tool at registration time.
type Option func(*Tool)

// WithClass sets the tool class (default: local).
func WithClass(c ToolClass) Option {
	return func(t *Tool) {
		t.Class = c
		t.Retry = c.DefaultRetry()
	}
}

// WithTimeout overrides the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(t *Tool) { t.Timeout = d }
}

// WithRetry overrides the default retry count, e.g. WithRetry(0) for a
// side-effecting tool whose effect must not repeat.
func WithRetry(n int) Option {
	return func(t *Tool) { t.Retry = n }
}

// ToolInfo is a summary of a registered tool for listing.
type ToolInfo struct {
	Name  string    `json:"name"`
	Class ToolClass `json:"class"`
}
