package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/stepflow/internal/expressions"
)

func TestExtractData_Matches(t *testing.T) {
	h := ExtractData()

	res, err := h(context.Background(), map[string]any{
		"source":  "alice@a.com and bob@b.org",
		"pattern": `[a-z]+@[a-z.]+`,
	}, nil)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, []any{"alice@a.com", "bob@b.org"}, res.Output)
	assert.Equal(t, 2, res.Fields["count"])
}

func TestExtractData_InvalidPattern(t *testing.T) {
	h := ExtractData()

	res, err := h(context.Background(), map[string]any{
		"source":  "x",
		"pattern": "([",
	}, nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "invalid pattern")
}

func TestTransformData_Case(t *testing.T) {
	h := TransformData(expressions.NewGoJQEngine())

	res, err := h(context.Background(), map[string]any{
		"data": "Hello", "transformation": "uppercase",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "HELLO", res.Output)

	res, err = h(context.Background(), map[string]any{
		"data": "Hello", "transformation": "lowercase",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Output)
}

func TestTransformData_JSONParse(t *testing.T) {
	h := TransformData(expressions.NewGoJQEngine())

	res, err := h(context.Background(), map[string]any{
		"data": `{"k": 1}`, "transformation": "json_parse",
	}, nil)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, map[string]any{"k": float64(1)}, res.Output)

	res, err = h(context.Background(), map[string]any{
		"data": "{bad", "transformation": "json_parse",
	}, nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestTransformData_JQ(t *testing.T) {
	h := TransformData(expressions.NewGoJQEngine())

	res, err := h(context.Background(), map[string]any{
		"data":           map[string]any{"items": []any{1, 2, 3}},
		"transformation": "jq",
		"query":          ".items | length",
	}, nil)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, 3, res.Output)

	// Missing query is a failed result, not a panic.
	res, err = h(context.Background(), map[string]any{
		"data":           map[string]any{},
		"transformation": "jq",
	}, nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestTransformData_Unknown(t *testing.T) {
	h := TransformData(expressions.NewGoJQEngine())

	res, err := h(context.Background(), map[string]any{
		"data": "x", "transformation": "reverse",
	}, nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "unknown transformation")
}
