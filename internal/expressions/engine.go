package expressions

import "context"

// Engine evaluates expressions against workflow context data.
// Three implementations: CEL (default for step conditions), Expr
// (alternate condition logic), and GoJQ (data transforms).
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}
