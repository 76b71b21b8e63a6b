package tools

import (
	"fmt"
	"sort"

	"seo-analytics-mcp/pkg/errors"
)

// Registry is an immutable set of tool definitions keyed by name
type Registry struct {
	tools map[string]ToolDefinition
	names []string
}

// NewRegistry builds a registry. Duplicate names and malformed definitions
// are configuration errors; nothing is overwritten.
func NewRegistry(defs ...ToolDefinition) (*Registry, error) {
	r := &Registry{
		tools: make(map[string]ToolDefinition, len(defs)),
		names: make([]string, 0, len(defs)),
	}

	for _, def := range defs {
		if err := def.Check(); err != nil {
			return nil, errors.NewSystemError(errors.ErrCodeInitializationFailed, err.Error(), err)
		}
		if _, exists := r.tools[def.Name]; exists {
			return nil, errors.NewSystemError(errors.ErrCodeInitializationFailed,
				fmt.Sprintf("tool %s already registered", def.Name), nil)
		}
		r.tools[def.Name] = def
		r.names = append(r.names, def.Name)
	}

	sort.Strings(r.names)
	return r, nil
}

// Get looks up a tool by name
func (r *Registry) Get(name string) (ToolDefinition, bool) {
	def, ok := r.tools[name]
	return def, ok
}

// List returns all definitions sorted by name
func (r *Registry) List() []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(r.names))
	for _, name := range r.names {
		defs = append(defs, r.tools[name])
	}
	return defs
}

// Names returns the sorted tool names
func (r *Registry) Names() []string {
	return append([]string{}, r.names...)
}

// Len returns the number of registered tools
func (r *Registry) Len() int {
	return len(r.names)
}
