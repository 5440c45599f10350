package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/stepflow/pkg/schema"
)

func TestContextStoreSetMovesPrevResult(t *testing.T) {
	store := NewContextStore(nil)

	store.Set("fetch", schema.Ok("page"))
	store.Set("extract", schema.Ok("emails").WithField("count", 3))

	r, ok := store.Get("fetch")
	require.True(t, ok)
	assert.Equal(t, "page", r.Output)

	prev, ok := store.Get(schema.PrevResultKey)
	require.True(t, ok)
	assert.Equal(t, "emails", prev.Output)
}

func TestContextStoreEmptyPrevResult(t *testing.T) {
	store := NewContextStore(nil)

	_, ok := store.Get(schema.PrevResultKey)
	assert.False(t, ok)
	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestContextStoreSeededInitial(t *testing.T) {
	store := NewContextStore(map[string]*schema.StepResult{
		"input": schema.Ok("seed"),
		"":      schema.Ok("dropped"),
	})

	r, ok := store.Get("input")
	require.True(t, ok)
	assert.Equal(t, "seed", r.Output)
	assert.Equal(t, 1, store.Len())

	// Seeding does not move the prev_result alias.
	_, ok = store.Get(schema.PrevResultKey)
	assert.False(t, ok)
}

func TestContextStoreResolve(t *testing.T) {
	store := NewContextStore(nil)
	store.Set("fetch", schema.Ok("body").WithField("status", 200))

	v, ok := store.Resolve("fetch", "output")
	require.True(t, ok)
	assert.Equal(t, "body", v)

	v, ok = store.Resolve(schema.PrevResultKey, "status")
	require.True(t, ok)
	assert.Equal(t, 200, v)

	whole, ok := store.Resolve("fetch", "")
	require.True(t, ok)
	assert.Equal(t, "body", whole.(map[string]any)["output"])

	_, ok = store.Resolve("fetch", "nope")
	assert.False(t, ok)
	_, ok = store.Resolve("ghost", "output")
	assert.False(t, ok)
}

func TestContextStoreSnapshotIncludesAlias(t *testing.T) {
	store := NewContextStore(nil)
	store.Set("a", schema.Ok("one"))

	snap := store.Snapshot()
	assert.Len(t, snap, 2)
	assert.Contains(t, snap, "a")
	assert.Contains(t, snap, schema.PrevResultKey)

	// Mutating the snapshot must not affect the store.
	delete(snap, "a")
	_, ok := store.Get("a")
	assert.True(t, ok)
}

func TestContextStoreScope(t *testing.T) {
	store := NewContextStore(nil)
	store.Set("fetch", schema.Ok("x").WithField("count", 7))

	scope := store.Scope()
	steps := scope["steps"].(map[string]any)
	fetch := steps["fetch"].(map[string]any)
	assert.Equal(t, 7, fetch["count"])

	prev := scope[schema.PrevResultKey].(map[string]any)
	assert.Equal(t, true, prev[schema.FieldSuccess])
}
