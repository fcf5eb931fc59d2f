package component

import (
	"sort"
	"sync"

	"github.com/arborui/arbor/pkg/arbor/scene"
)

// Factory builds a component instance. The wrapper is the already
// constructed scene node the instance hangs off; props is the live bag
// assembled from the call site's attributes.
type Factory func(props *Props, wrapper scene.Node, owner *Instance) *Instance

// Entry pairs a factory with the prop names the component declares.
// Declared names are stripped from the wrapper's configuration and
// receive live prop writes; everything else falls through to the
// wrapper node.
type Entry struct {
	Factory Factory
	Props   []string
}

// Declares reports whether the entry declares the named prop.
func (e Entry) Declares(name string) bool {
	for _, p := range e.Props {
		if p == name {
			return true
		}
	}
	return false
}

// Registry maps component names to entries. Compilation takes one as the
// call-scoped tier; each instance can carry another as the fallback tier.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds or replaces an entry.
func (r *Registry) Register(name string, e Entry) {
	r.mu.Lock()
	r.entries[name] = e
	r.mu.Unlock()
}

// Define registers a factory with its declared prop names.
func (r *Registry) Define(name string, f Factory, props ...string) {
	r.Register(name, Entry{Factory: f, Props: props})
}

// Lookup finds an entry by name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Names returns the registered component names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve performs the two-tier lookup: the call-scoped registry wins,
// then the owner instance's registry.
func Resolve(name string, call *Registry, owner *Instance) (Entry, bool) {
	if e, ok := call.Lookup(name); ok {
		return e, true
	}
	if owner != nil {
		if e, ok := owner.Components().Lookup(name); ok {
			return e, true
		}
	}
	return Entry{}, false
}
