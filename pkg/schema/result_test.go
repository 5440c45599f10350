package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepResult_Lookup_Reserved(t *testing.T) {
	r := Ok("hello").WithField("path", "/tmp/x")

	v, ok := r.Lookup("success")
	assert.True(t, ok)
	assert.Equal(t, true, v)

	v, ok = r.Lookup("output")
	assert.True(t, ok)
	assert.Equal(t, "hello", v)

	v, ok = r.Lookup("path")
	assert.True(t, ok)
	assert.Equal(t, "/tmp/x", v)
}

func TestStepResult_Lookup_Nested(t *testing.T) {
	r := Ok(map[string]any{
		"report": map[string]any{"count": 3},
	})

	v, ok := r.Lookup("output.report.count")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestStepResult_Lookup_Miss(t *testing.T) {
	r := Fail("boom")

	_, ok := r.Lookup("output.missing")
	assert.False(t, ok)

	_, ok = r.Lookup("nope")
	assert.False(t, ok)

	// Traversing into a scalar fails, not panics.
	_, ok = r.Lookup("error.deeper")
	assert.False(t, ok)
}

func TestStepResult_JSON_FlattensExtraFields(t *testing.T) {
	r := Ok("done").WithField("command", "ls")

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, true, raw["success"])
	assert.Equal(t, "done", raw["output"])
	assert.Equal(t, "ls", raw["command"])

	var back StepResult
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Success)
	assert.Equal(t, "done", back.Output)
	assert.Equal(t, "ls", back.Fields["command"])
}

func TestStepResult_AsMap_OmitsEmptyReserved(t *testing.T) {
	m := Fail("bad").AsMap()
	assert.Equal(t, false, m["success"])
	assert.Equal(t, "bad", m["error"])
	_, hasOutput := m["output"]
	assert.False(t, hasOutput)
}
