package streaming

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/stepflow/pkg/schema"
)

func event(wfID, stepID string, status schema.StepStatus) schema.ProgressEvent {
	return schema.ProgressEvent{
		WorkflowID: wfID,
		StepID:     stepID,
		Status:     status,
		Timestamp:  time.Now().UTC(),
	}
}

func recv(t *testing.T, ch <-chan schema.ProgressEvent) schema.ProgressEvent {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return schema.ProgressEvent{}
	}
}

func TestMemoryHub_PublishSubscribe(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := hub.Subscribe(ctx, EventFilter{})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, hub.Publish(ctx, event("wf-1", "a", schema.StepStatusRunning)))

	got := recv(t, ch)
	assert.Equal(t, "wf-1", got.WorkflowID)
	assert.Equal(t, schema.StepStatusRunning, got.Status)
}

func TestMemoryHub_WorkflowFilter(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := hub.Subscribe(ctx, EventFilter{WorkflowID: "wf-2"})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, hub.Publish(ctx, event("wf-1", "a", schema.StepStatusSucceeded)))
	require.NoError(t, hub.Publish(ctx, event("wf-2", "b", schema.StepStatusSucceeded)))

	got := recv(t, ch)
	assert.Equal(t, "wf-2", got.WorkflowID)
	assert.Empty(t, ch)
}

func TestMemoryHub_StatusFilter(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := hub.Subscribe(ctx, EventFilter{
		Statuses: []schema.StepStatus{schema.StepStatusFailed},
	})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, hub.Publish(ctx, event("wf-1", "a", schema.StepStatusRunning)))
	require.NoError(t, hub.Publish(ctx, event("wf-1", "a", schema.StepStatusFailed)))

	got := recv(t, ch)
	assert.Equal(t, schema.StepStatusFailed, got.Status)
	assert.Empty(t, ch)
}

func TestMemoryHub_UnsubscribeStopsDelivery(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := hub.Subscribe(ctx, EventFilter{})
	require.NoError(t, err)
	cancel()

	require.NoError(t, hub.Publish(ctx, event("wf-1", "a", schema.StepStatusRunning)))
	assert.Empty(t, ch)
}

func TestMemoryHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	_, cancel, err := hub.Subscribe(ctx, EventFilter{})
	require.NoError(t, err)
	defer cancel()

	// Flood well past the channel buffer; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultChannelBuffer*3; i++ {
			_ = hub.Publish(ctx, event("wf-1", "a", schema.StepStatusRunning))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}
}
