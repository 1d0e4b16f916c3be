package tools

import (
	"fmt"
	"sort"

	"rocket-cli/internal/llm"
)

// Registry holds the available tools and produces LLM schemas for them.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry initializes an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// DefaultRegistry registers the standard tool set rooted at workspace.
func DefaultRegistry(workspace string) *Registry {
	r := NewRegistry()
	r.MustRegister(
		NewReadFile(workspace),
		NewWriteFile(workspace),
		NewListDirectory(workspace),
		NewSearchFiles(workspace),
		NewRunCommand(workspace),
	)
	return r
}

// Register adds a tool, rejecting duplicates.
func (r *Registry) Register(t Tool) error {
	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("tool %q is already registered", t.Name())
	}
	r.tools[t.Name()] = t
	return nil
}

// MustRegister registers tools, panicking on duplicates; used at startup
// where a duplicate is a programming error.
func (r *Registry) MustRegister(toolList ...Tool) {
	for _, t := range toolList {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
}

// Get returns the named tool, or nil.
func (r *Registry) Get(name string) Tool {
	return r.tools[name]
}

// List returns all tools sorted by name.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Names returns the registered tool names sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schemas returns LLM tool definitions for the named tools; unknown names are
// skipped. A nil allowed slice means every tool.
func (r *Registry) Schemas(allowed []string) []llm.ToolDef {
	var defs []llm.ToolDef
	if allowed == nil {
		for _, t := range r.List() {
			defs = append(defs, t.Schema())
		}
		return defs
	}
	for _, name := range allowed {
		if t := r.Get(name); t != nil {
			defs = append(defs, t.Schema())
		}
	}
	return defs
}
