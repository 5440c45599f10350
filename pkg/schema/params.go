package schema

import "fmt"

// ValidateParams checks that every parameter value belongs to the closed
// value union accepted by interpolation and condition evaluation:
// string, bool, int, int64, float64, map[string]any, []any, or nil.
// Arbitrary dynamic values are rejected at workflow construction so the
// execution path never sees an unrepresentable type.
func ValidateParams(params map[string]any) error {
	for name, value := range params {
		if err := validateValue(value, name); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(value any, path string) error {
	switch v := value.(type) {
	case nil, string, bool, int, int64, float64:
		return nil
	case map[string]any:
		for k, elem := range v {
			if err := validateValue(elem, path+"."+k); err != nil {
				return err
			}
		}
		return nil
	case []any:
		for i, elem := range v {
			if err := validateValue(elem, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	default:
		return NewErrorf(ErrCodeValidation,
			"param %q has unsupported type %T", path, value).
			WithDetails(map[string]any{"param": path})
	}
}
