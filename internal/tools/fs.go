package tools

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rendis/stepflow/pkg/schema"
)

const defaultMaxReadSize = 50 * 1024 * 1024 // 50MB

// FSConfig configures the filesystem tools.
type FSConfig struct {
	MaxReadSize int64
}

// FileRead returns the file_read handler: params {path} → the file
// content with path and size fields. Binary content is base64-encoded
// and flagged via the encoding field.
func FileRead(cfg FSConfig) Handler {
	maxSize := cfg.MaxReadSize
	if maxSize <= 0 {
		maxSize = defaultMaxReadSize
	}

	return func(ctx context.Context, params map[string]any, _ map[string]*schema.StepResult) (*schema.StepResult, error) {
		path, ok := stringParam(params, "path")
		if !ok {
			return schema.Fail("file_read: missing required param \"path\""), nil
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return schema.Fail(fmt.Sprintf("invalid path %q: %v", path, err)), nil
		}

		info, err := os.Stat(abs)
		if err != nil {
			return schema.Fail(err.Error()), nil
		}
		if info.Size() > maxSize {
			return schema.Fail(fmt.Sprintf("file %q exceeds max read size (%d bytes)", abs, maxSize)), nil
		}

		data, err := os.ReadFile(abs)
		if err != nil {
			return schema.Fail(err.Error()), nil
		}

		encoding := "text"
		content := string(data)
		if isBinary(data) {
			encoding = "base64"
			content = base64.StdEncoding.EncodeToString(data)
		}

		return schema.Ok(content).
			WithField("path", abs).
			WithField("size", len(data)).
			WithField("encoding", encoding), nil
	}
}

// FileWrite returns the file_write handler: params {path, content,
// create_dirs?} → path and bytes_written fields.
func FileWrite() Handler {
	return func(ctx context.Context, params map[string]any, _ map[string]*schema.StepResult) (*schema.StepResult, error) {
		path, ok := stringParam(params, "path")
		if !ok {
			return schema.Fail("file_write: missing required param \"path\""), nil
		}
		content, ok := stringParam(params, "content")
		if !ok {
			return schema.Fail("file_write: missing required param \"content\""), nil
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return schema.Fail(fmt.Sprintf("invalid path %q: %v", path, err)), nil
		}

		if createDirs, _ := params["create_dirs"].(bool); createDirs {
			if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
				return schema.Fail(err.Error()), nil
			}
		}

		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			return schema.Fail(err.Error()), nil
		}

		return schema.Ok(abs).
			WithField("path", abs).
			WithField("bytes_written", len(content)), nil
	}
}

// isBinary checks if data contains null bytes (binary detection heuristic).
func isBinary(data []byte) bool {
	check := data
	if len(check) > 8192 {
		check = check[:8192]
	}
	for _, b := range check {
		if b == 0 {
			return true
		}
	}
	return false
}

// stringParam extracts a non-empty string parameter.
func stringParam(params map[string]any, key string) (string, bool) {
	v, ok := params[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
