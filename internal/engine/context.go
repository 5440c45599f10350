package engine

import (
	"sync"

	"github.com/rendis/stepflow/pkg/schema"
)

// ContextStore accumulates step results during a single workflow run.
// Keys are step IDs plus the reserved "prev_result" alias pointing at the
// most recently finished step. The store is owned by one run and mutated
// only after a step reaches a terminal state.
type ContextStore struct {
	mu      sync.RWMutex
	results map[string]*schema.StepResult
	prev    *schema.StepResult
}

// NewContextStore creates a store, optionally seeded with caller-supplied
// results keyed by synthetic step IDs.
func NewContextStore(initial map[string]*schema.StepResult) *ContextStore {
	results := make(map[string]*schema.StepResult, len(initial)+4)
	for k, v := range initial {
		if k == "" || v == nil {
			continue
		}
		results[k] = v
	}
	return &ContextStore{results: results}
}

// Set records a step's terminal result and moves the prev_result alias.
func (c *ContextStore) Set(stepID string, result *schema.StepResult) {
	if stepID == "" || result == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[stepID] = result
	c.prev = result
}

// Get returns the result stored under a key, resolving the prev_result alias.
func (c *ContextStore) Get(key string) (*schema.StepResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if key == schema.PrevResultKey {
		return c.prev, c.prev != nil
	}
	r, ok := c.results[key]
	return r, ok
}

// Resolve looks up a field of a stored result for placeholder interpolation.
// An empty field path yields the whole result as a map.
func (c *ContextStore) Resolve(key, fieldPath string) (any, bool) {
	result, ok := c.Get(key)
	if !ok {
		return nil, false
	}
	if fieldPath == "" {
		return result.AsMap(), true
	}
	return result.Lookup(fieldPath)
}

// Snapshot returns a copy of the stored results, including the prev_result
// alias. Handlers receive this copy so they cannot mutate run state.
func (c *ContextStore) Snapshot() map[string]*schema.StepResult {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]*schema.StepResult, len(c.results)+1)
	for k, v := range c.results {
		out[k] = v
	}
	if c.prev != nil {
		out[schema.PrevResultKey] = c.prev
	}
	return out
}

// Scope builds the variable environment for condition evaluation:
// steps (step id -> result map) and prev_result.
func (c *ContextStore) Scope() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	steps := make(map[string]any, len(c.results))
	for k, v := range c.results {
		steps[k] = v.AsMap()
	}

	prev := map[string]any{}
	if c.prev != nil {
		prev = c.prev.AsMap()
	}
	return map[string]any{
		"steps":              steps,
		schema.PrevResultKey: prev,
	}
}

// Len returns the number of stored results, excluding the alias.
func (c *ContextStore) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results)
}
