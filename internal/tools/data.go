package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/rendis/stepflow/internal/expressions"
	"github.com/rendis/stepflow/pkg/schema"
)

// ExtractData returns the extract_data handler: params {source,
// pattern} → regexp matches with a count field.
func ExtractData() Handler {
	var mu sync.RWMutex
	compiled := make(map[string]*regexp.Regexp)

	get := func(pattern string) (*regexp.Regexp, error) {
		mu.RLock()
		re, ok := compiled[pattern]
		mu.RUnlock()
		if ok {
			return re, nil
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		mu.Lock()
		compiled[pattern] = re
		mu.Unlock()
		return re, nil
	}

	return func(ctx context.Context, params map[string]any, _ map[string]*schema.StepResult) (*schema.StepResult, error) {
		source, ok := stringParam(params, "source")
		if !ok {
			return schema.Fail("extract_data: missing required param \"source\""), nil
		}
		pattern, ok := stringParam(params, "pattern")
		if !ok {
			return schema.Fail("extract_data: missing required param \"pattern\""), nil
		}

		re, err := get(pattern)
		if err != nil {
			return schema.Fail(fmt.Sprintf("invalid pattern %q: %v", pattern, err)), nil
		}

		found := re.FindAllString(source, -1)
		matches := make([]any, len(found))
		for i, m := range found {
			matches[i] = m
		}

		return schema.Ok(matches).WithField("count", len(matches)), nil
	}
}

// TransformData returns the transform_data handler: params {data,
// transformation, query?}. Supported transformations: uppercase,
// lowercase, json_parse, and jq (evaluated by the GoJQ engine against
// object data with the expression in "query").
func TransformData(jq *expressions.GoJQEngine) Handler {
	return func(ctx context.Context, params map[string]any, _ map[string]*schema.StepResult) (*schema.StepResult, error) {
		transformation, ok := stringParam(params, "transformation")
		if !ok {
			return schema.Fail("transform_data: missing required param \"transformation\""), nil
		}
		data, ok := params["data"]
		if !ok {
			return schema.Fail("transform_data: missing required param \"data\""), nil
		}

		switch transformation {
		case "uppercase":
			return schema.Ok(strings.ToUpper(fmt.Sprint(data))), nil

		case "lowercase":
			return schema.Ok(strings.ToLower(fmt.Sprint(data))), nil

		case "json_parse":
			s, isStr := data.(string)
			if !isStr {
				return schema.Fail("json_parse requires string data"), nil
			}
			var parsed any
			if err := json.Unmarshal([]byte(s), &parsed); err != nil {
				return schema.Fail(fmt.Sprintf("json_parse: %v", err)), nil
			}
			return schema.Ok(parsed), nil

		case "jq":
			query, hasQuery := stringParam(params, "query")
			if !hasQuery {
				return schema.Fail("jq transformation requires param \"query\""), nil
			}
			obj, isMap := data.(map[string]any)
			if !isMap {
				return schema.Fail("jq transformation requires object data"), nil
			}
			out, err := jq.Evaluate(ctx, query, obj)
			if err != nil {
				return schema.Fail(err.Error()), nil
			}
			return schema.Ok(out).WithField("query", query), nil

		default:
			return schema.Fail(fmt.Sprintf("unknown transformation %q", transformation)), nil
		}
	}
}
