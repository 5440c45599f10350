package schema

import (
	"encoding/json"
	"strings"
)

// StepResult is the tool output contract. Every result carries a success
// flag and either an output payload or an error description; tools may
// attach arbitrary extra fields (e.g. "path", "command") that downstream
// steps reference via interpolation. Extra fields are flattened into the
// JSON object alongside the reserved keys.
type StepResult struct {
	Success bool
	Output  any
	Error   string
	Fields  map[string]any
}

// Reserved StepResult field names.
const (
	FieldSuccess = "success"
	FieldOutput  = "output"
	FieldError   = "error"
)

// Ok builds a successful result with the given output payload.
func Ok(output any) *StepResult {
	return &StepResult{Success: true, Output: output}
}

// Fail builds a failed result with the given error description.
func Fail(errMsg string) *StepResult {
	return &StepResult{Success: false, Error: errMsg}
}

// WithField attaches an extra named field and returns the result.
func (r *StepResult) WithField(name string, value any) *StepResult {
	if r.Fields == nil {
		r.Fields = make(map[string]any)
	}
	r.Fields[name] = value
	return r
}

// AsMap flattens the result into a plain map for expression scopes.
func (r *StepResult) AsMap() map[string]any {
	m := make(map[string]any, len(r.Fields)+3)
	for k, v := range r.Fields {
		m[k] = v
	}
	m[FieldSuccess] = r.Success
	if r.Output != nil {
		m[FieldOutput] = r.Output
	}
	if r.Error != "" {
		m[FieldError] = r.Error
	}
	return m
}

// Lookup resolves a dot-delimited field path against the result.
// The first segment selects a reserved key or an extra field; remaining
// segments traverse nested maps. Returns (nil, false) on any miss.
func (r *StepResult) Lookup(path string) (any, bool) {
	segments := strings.Split(path, ".")

	var current any
	switch segments[0] {
	case FieldSuccess:
		current = r.Success
	case FieldOutput:
		current = r.Output
	case FieldError:
		current = r.Error
	default:
		v, ok := r.Fields[segments[0]]
		if !ok {
			return nil, false
		}
		current = v
	}

	for _, seg := range segments[1:] {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// MarshalJSON flattens extra fields into the top-level object.
// Reserved keys always win over a colliding extra field.
func (r *StepResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.AsMap())
}

// UnmarshalJSON splits reserved keys from extra fields.
func (r *StepResult) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw[FieldSuccess].(bool); ok {
		r.Success = v
	}
	if v, ok := raw[FieldOutput]; ok {
		r.Output = v
	}
	if v, ok := raw[FieldError].(string); ok {
		r.Error = v
	}
	delete(raw, FieldSuccess)
	delete(raw, FieldOutput)
	delete(raw, FieldError)
	if len(raw) > 0 {
		r.Fields = raw
	}
	return nil
}
