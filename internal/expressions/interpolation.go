package expressions

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rendis/stepflow/pkg/schema"
)

// Source resolves a context key to a prior step's result value.
// The key is either a step ID or the reserved alias "prev_result";
// fieldPath is a dot-delimited path within the result ("" for the
// whole result).
type Source interface {
	Resolve(key, fieldPath string) (any, bool)
}

// Interpolator rewrites {{<key>.<field>}} references in step parameters
// before dispatch. Resolution is lenient: a placeholder that names an
// unknown key or missing field is left verbatim in the output so the
// literal intent stays readable in logs, and the step proceeds.
// Structural problems (unclosed or nested braces) are hard errors.
type Interpolator struct {
	logger *slog.Logger
}

// NewInterpolator creates an Interpolator. A nil logger disables the
// unresolved-placeholder warnings.
func NewInterpolator(logger *slog.Logger) *Interpolator {
	return &Interpolator{logger: logger}
}

// Params returns a copy of params with every string value interpolated
// against the source. Nested maps and slices are traversed; non-string
// values pass through untouched.
func (in *Interpolator) Params(params map[string]any, src Source) (map[string]any, error) {
	if len(params) == 0 {
		return params, nil
	}
	resolved := make(map[string]any, len(params))
	for name, value := range params {
		v, err := in.value(value, src)
		if err != nil {
			return nil, err
		}
		resolved[name] = v
	}
	return resolved, nil
}

func (in *Interpolator) value(v any, src Source) (any, error) {
	switch val := v.(type) {
	case string:
		return in.String(val, src)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			r, err := in.value(elem, src)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			r, err := in.value(elem, src)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return v, nil
	}
}

// String interpolates a single string value. When the whole string is
// exactly one placeholder the resolved field keeps its native type;
// a placeholder embedded in a larger string is stringified and spliced.
func (in *Interpolator) String(s string, src Source) (any, error) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}

	// Whole-value placeholder: result takes the field's native type.
	if expr, ok := wholePlaceholder(s); ok {
		if err := checkExpr(expr); err != nil {
			return nil, err
		}
		key, fieldPath := splitRef(expr)
		if val, found := src.Resolve(key, fieldPath); found {
			return val, nil
		}
		in.warnUnresolved(expr)
		return s, nil
	}

	var result strings.Builder
	result.Grow(len(s))

	i := 0
	for i < len(s) {
		idx := strings.Index(s[i:], "{{")
		if idx == -1 {
			result.WriteString(s[i:])
			break
		}

		result.WriteString(s[i : i+idx])
		start := i + idx + 2 // skip "{{"

		end := strings.Index(s[start:], "}}")
		if end == -1 {
			return nil, schema.NewError(schema.ErrCodeInterpolation, "unclosed {{ placeholder")
		}
		end += start

		expr := strings.TrimSpace(s[start:end])
		if err := checkExpr(expr); err != nil {
			return nil, err
		}

		key, fieldPath := splitRef(expr)
		if val, found := src.Resolve(key, fieldPath); found {
			result.WriteString(stringify(val))
		} else {
			// Leniency: keep the literal token visible in the output.
			in.warnUnresolved(expr)
			result.WriteString(s[i+idx : end+2])
		}

		i = end + 2 // skip "}}"
	}

	return result.String(), nil
}

func (in *Interpolator) warnUnresolved(expr string) {
	if in.logger != nil {
		in.logger.Warn("unresolved placeholder left verbatim", slog.String("reference", expr))
	}
}

// wholePlaceholder reports whether s is exactly one {{...}} token,
// returning the inner expression. Surrounding whitespace makes the
// placeholder embedded, so it splices instead of keeping native type.
func wholePlaceholder(s string) (string, bool) {
	if !strings.HasPrefix(s, "{{") || !strings.HasSuffix(s, "}}") {
		return "", false
	}
	inner := s[2 : len(s)-2]
	if strings.Contains(inner, "{{") || strings.Contains(inner, "}}") {
		return "", false
	}
	return strings.TrimSpace(inner), true
}

func checkExpr(expr string) error {
	if expr == "" {
		return schema.NewError(schema.ErrCodeInterpolation, "empty placeholder: {{  }}")
	}
	if strings.Contains(expr, "{{") {
		return schema.NewError(schema.ErrCodeInterpolation,
			"nested interpolation not allowed: {{...}} cannot contain {{")
	}
	return nil
}

// splitRef splits "key.field.path" into key and field path.
// A bare "key" references the whole result.
func splitRef(expr string) (key, fieldPath string) {
	if i := strings.IndexByte(expr, '.'); i >= 0 {
		return expr[:i], expr[i+1:]
	}
	return expr, ""
}

// stringify converts a resolved value into its spliced representation.
// Strings embed as-is; complex types JSON-encode inline.
func stringify(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case nil:
		return "null"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		return fmt.Sprintf("%v", v)
	case int:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// HasPlaceholder checks whether a string contains any {{...}} reference.
func HasPlaceholder(s string) bool {
	return strings.Contains(s, "{{")
}

// ExtractRefKeys returns the context keys referenced via {{key...}}
// placeholders in a string, in order of first appearance.
func ExtractRefKeys(s string) []string {
	var keys []string
	seen := make(map[string]bool)

	for {
		idx := strings.Index(s, "{{")
		if idx == -1 {
			break
		}
		rest := s[idx+2:]
		closeIdx := strings.Index(rest, "}}")
		if closeIdx == -1 {
			break
		}
		key, _ := splitRef(strings.TrimSpace(rest[:closeIdx]))
		if key != "" && !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
		s = rest[closeIdx+2:]
	}
	return keys
}
