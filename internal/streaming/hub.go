package streaming

import (
	"context"

	"github.com/rendis/stepflow/pkg/schema"
)

// EventFilter specifies which progress events a subscriber wants.
type EventFilter struct {
	WorkflowID string              `json:"workflow_id,omitempty"`
	Statuses   []schema.StepStatus `json:"statuses,omitempty"`
}

// EventHub provides pub/sub for real-time workflow progress events.
// The runner publishes here; a UI or telemetry transport subscribes.
type EventHub interface {
	Publish(ctx context.Context, event schema.ProgressEvent) error
	Subscribe(ctx context.Context, filter EventFilter) (<-chan schema.ProgressEvent, func(), error)
}
