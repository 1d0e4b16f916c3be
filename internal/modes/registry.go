package modes

import (
	"fmt"
	"sort"
	"strings"
)

// Registry holds the known modes keyed by lower-case name.
type Registry struct {
	modes map[string]Mode
}

// NewRegistry builds a registry with the built-in mode set.
func NewRegistry() *Registry {
	r := &Registry{modes: make(map[string]Mode)}
	for _, m := range Builtin() {
		if err := r.Register(m); err != nil {
			panic(err) // built-ins are static, a failure here is a programming error
		}
	}
	return r
}

// Register adds a mode after validating it. Names are case-insensitive.
func (r *Registry) Register(m Mode) error {
	if err := m.Validate(); err != nil {
		return err
	}
	key := strings.ToLower(m.Name)
	if _, exists := r.modes[key]; exists {
		return fmt.Errorf("mode %q is already registered", m.Name)
	}
	r.modes[key] = m
	return nil
}

// Get returns the named mode.
func (r *Registry) Get(name string) (Mode, error) {
	m, ok := r.modes[strings.ToLower(name)]
	if !ok {
		return Mode{}, fmt.Errorf("unknown mode %q (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	return m, nil
}

// Names returns the registered mode names sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.modes))
	for name := range r.modes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns all modes sorted by name.
func (r *Registry) List() []Mode {
	out := make([]Mode, 0, len(r.modes))
	for _, name := range r.Names() {
		out = append(out, r.modes[name])
	}
	return out
}
