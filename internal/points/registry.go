package points

import (
	"fmt"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	u "sawmill/internal/utils"
)

// UnknownPointError is returned when a point name is not registered.
type UnknownPointError struct {
	Name string
}

func (e *UnknownPointError) Error() string {
	return fmt.Sprintf("unknown point %q", e.Name)
}

// Registry holds the point definitions and their current values.
//
// There is a single writer (the simulation); the lock is there for the
// metrics and mirror readers.
type Registry struct {
	mu      sync.RWMutex
	defs    map[string]Definition
	order   []string
	current map[string]any
}

func NewRegistry(defs []Definition) *Registry {
	r := &Registry{
		defs:    make(map[string]Definition, len(defs)),
		order:   make([]string, 0, len(defs)),
		current: make(map[string]any, len(defs)),
	}

	for _, d := range defs {
		_, dup := r.defs[d.Name]
		u.Assert(!dup, fmt.Sprintf("[NewRegistry] duplicate point %q", d.Name))
		u.Assert(d.Kind.Accepts(d.Seed), fmt.Sprintf("[NewRegistry] seed of %q is not a %s", d.Name, d.Kind))

		r.defs[d.Name] = d
		r.order = append(r.order, d.Name)
		r.current[d.Name] = d.Seed
	}

	return r
}

func (r *Registry) Get(name string) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.current[name]
	if !ok {
		return nil, &UnknownPointError{Name: name}
	}
	return v, nil
}

// Set overwrites the current value. Ranges are not checked here.
func (r *Registry) Set(name string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.defs[name]; !ok {
		return &UnknownPointError{Name: name}
	}
	r.current[name] = value
	return nil
}

func (r *Registry) Definition(name string) (Definition, error) {
	d, ok := r.defs[name]
	if !ok {
		return Definition{}, &UnknownPointError{Name: name}
	}
	return d, nil
}

func (r *Registry) Has(name string) bool {
	_, ok := r.defs[name]
	return ok
}

// Definitions returns the definitions in registration order.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.defs[name])
	}
	return out
}

// Names returns all registered point names sorted alphabetically.
func (r *Registry) Names() []string {
	names := maps.Keys(r.defs)
	slices.Sort(names)
	return names
}

// Groups returns the populated groups in folder order.
func (r *Registry) Groups() []Group {
	present := make(map[Group]bool)
	for _, d := range r.defs {
		present[d.Group] = true
	}

	groups := make([]Group, 0, len(GroupOrder))
	for _, g := range GroupOrder {
		if present[g] {
			groups = append(groups, g)
		}
	}
	return groups
}

// InGroup returns the definitions of one folder in registration order.
func (r *Registry) InGroup(g Group) []Definition {
	var out []Definition
	for _, name := range r.order {
		if d := r.defs[name]; d.Group == g {
			out = append(out, d)
		}
	}
	return out
}

// Snapshot copies every current value.
func (r *Registry) Snapshot() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.current)
}

// Reset restores every point to its seed value.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, d := range r.defs {
		r.current[name] = d.Seed
	}
}
