package tools

import (
	"sort"
	"sync"

	"github.com/rendis/stepflow/pkg/schema"
)

// Registry is the thread-safe name → tool mapping consulted at dispatch
// time. Registration happens at startup before any run begins; after
// that the registry is read-shared across concurrent workflow runs.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Tool),
	}
}

// Register binds a handler under a name. Re-registering a name
// overwrites the previous binding (last writer wins) so an embedding
// application can replace built-ins with its own tools at startup.
func (r *Registry) Register(name string, handler Handler, opts ...Option) error {
	if name == "" {
		return schema.NewError(schema.ErrCodeValidation, "tool name is empty")
	}
	if handler == nil {
		return schema.NewErrorf(schema.ErrCodeValidation, "tool %q handler is nil", name)
	}

	tool := &Tool{
		Name:    name,
		Handler: handler,
		Class:   ClassLocal,
	}
	for _, opt := range opts {
		opt(tool)
	}

	r.mu.Lock()
	r.tools[name] = tool
	r.mu.Unlock()
	return nil
}

// Resolve looks up a tool by name. A miss is an UnknownTool failure for
// the calling step, never retried.
func (r *Registry) Resolve(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Has checks if a tool is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Resolve(name)
	return ok
}

// List returns info for all registered tools, sorted by name.
func (r *Registry) List() []ToolInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ToolInfo, 0, len(r.tools))
	for _, t := range r.tools {
		infos = append(infos, ToolInfo{Name: t.Name, Class: t.Class})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
