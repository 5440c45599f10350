package tools

import (
	"github.com/rendis/stepflow/internal/expressions"
)

// BuiltinConfig configures the built-in tool set.
type BuiltinConfig struct {
	FS   FSConfig
	HTTP HTTPConfig
}

// RegisterBuiltins registers the local tool set the engine ships with:
// file_read, file_write, extract_data, transform_data, and http_fetch.
// Agent-backed capabilities (browser automation, email, LLM analysis)
// are registered by the embedding application; it may also override any
// of these names since registration is last-writer-wins.
func RegisterBuiltins(r *Registry, cfg BuiltinConfig) error {
	jq := expressions.NewGoJQEngine()

	register := []struct {
		name    string
		handler Handler
		opts    []Option
	}{
		{"file_read", FileRead(cfg.FS), nil},
		{"file_write", FileWrite(), nil},
		{"extract_data", ExtractData(), nil},
		{"transform_data", TransformData(jq), nil},
		{"http_fetch", HTTPFetch(cfg.HTTP), []Option{WithClass(ClassNetwork)}},
	}

	for _, t := range register {
		if err := r.Register(t.name, t.handler, t.opts...); err != nil {
			return err
		}
	}
	return nil
}
