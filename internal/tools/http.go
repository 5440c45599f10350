package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rendis/stepflow/pkg/schema"
)

const defaultMaxBodySize = 10 * 1024 * 1024 // 10MB

// HTTPConfig configures the http_fetch tool.
type HTTPConfig struct {
	Client      *http.Client
	MaxBodySize int64
}

// HTTPFetch returns the http_fetch handler: params {url, method?,
// headers?, body?} → response body with status and url fields. The
// request inherits the attempt context, so per-attempt timeouts and
// cancellation propagate to the transport. A status of 400 or above is
// reported as a failed result so it participates in retry policy.
func HTTPFetch(cfg HTTPConfig) Handler {
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	maxBody := cfg.MaxBodySize
	if maxBody <= 0 {
		maxBody = defaultMaxBodySize
	}

	return func(ctx context.Context, params map[string]any, _ map[string]*schema.StepResult) (*schema.StepResult, error) {
		url, ok := stringParam(params, "url")
		if !ok {
			return schema.Fail("http_fetch: missing required param \"url\""), nil
		}

		method := http.MethodGet
		if m, hasMethod := stringParam(params, "method"); hasMethod {
			method = strings.ToUpper(m)
		}

		var body io.Reader
		if b, hasBody := stringParam(params, "body"); hasBody {
			body = strings.NewReader(b)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return schema.Fail(fmt.Sprintf("build request: %v", err)), nil
		}

		if headers, hasHeaders := params["headers"].(map[string]any); hasHeaders {
			for name, value := range headers {
				if s, isStr := value.(string); isStr {
					req.Header.Set(name, s)
				}
			}
		}

		resp, err := client.Do(req)
		if err != nil {
			// Transport errors surface as Go errors so context timeouts
			// classify as Timeout rather than ToolInvocation.
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return nil, err
		}

		result := schema.Ok(string(data)).
			WithField("status", resp.StatusCode).
			WithField("url", url)
		if resp.StatusCode >= 400 {
			result.Success = false
			result.Error = fmt.Sprintf("http status %d", resp.StatusCode)
		}
		return result, nil
	}
}
