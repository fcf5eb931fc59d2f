// Package component holds the runtime objects compiled programs operate
// on: instances, their live props, the component registry, and the flat
// mount containers construction fills in.
package component

import (
	"sync"

	"github.com/arborui/arbor/pkg/arbor/scene"
)

var debugLog func(format string, args ...interface{})

// SetDebugLog sets a debug logging function (used by the dev server).
func SetDebugLog(fn func(format string, args ...interface{})) {
	debugLog = fn
}

// Handler is a component callback bound to an input event.
type Handler func(payload any)

// Instance is a live component. It carries the state expressions read,
// the handlers events bind to, the slots and intrinsic children its
// template constructed, and the mount container for nodes built on its
// behalf.
type Instance struct {
	mu       sync.RWMutex
	name     string
	state    map[string]any
	scopes   []map[string]any
	handlers map[string]Handler
	bound    map[string]Handler
	props    *Props
	registry *Registry
	slots    []Slot
	kids     []scene.Node
	refs     map[string]scene.Node
	mounts   *Mounts
	refresh  func()
}

// Slot is a named insertion point declared by an instance's template.
type Slot struct {
	Name string
	Node scene.Node
}

// New creates an instance. The name is the component name it was
// resolved under, or anything descriptive for roots.
func New(name string) *Instance {
	return &Instance{
		name:     name,
		state:    make(map[string]any),
		handlers: make(map[string]Handler),
		bound:    make(map[string]Handler),
		props:    NewProps(),
		refs:     make(map[string]scene.Node),
	}
}

// Name returns the component name.
func (c *Instance) Name() string { return c.name }

// Props returns the live prop bag.
func (c *Instance) Props() *Props { return c.props }

// AdoptProps replaces the live prop bag, normally with the one the
// factory received.
func (c *Instance) AdoptProps(p *Props) {
	if p == nil {
		return
	}
	c.mu.Lock()
	c.props = p
	c.mu.Unlock()
}

// Mounts returns the instance's mount container, creating it on first
// use. Repeated construction against the same instance sees the same
// container, which is what makes construction idempotent.
func (c *Instance) Mounts() *Mounts {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mounts == nil {
		c.mounts = NewMounts()
	}
	return c.mounts
}

// Components returns the instance-scoped component registry, creating it
// on first use. It is the second tier of component resolution.
func (c *Instance) Components() *Registry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.registry == nil {
		c.registry = NewRegistry()
	}
	return c.registry
}

// SetState writes a base state entry.
func (c *Instance) SetState(name string, v any) {
	c.mu.Lock()
	c.state[name] = v
	c.mu.Unlock()
}

// Field resolves a name the way expressions see this instance:
// innermost ephemeral scope first, then base state, then props.
func (c *Instance) Field(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if v, ok := c.scopes[i][name]; ok {
			return v, true
		}
	}
	if v, ok := c.state[name]; ok {
		return v, true
	}
	return c.props.Get(name)
}

// PushScope overlays ephemeral variables, innermost last. Loop bodies
// push their item, index, and key bindings here for the duration of one
// pass.
func (c *Instance) PushScope(vars map[string]any) {
	c.mu.Lock()
	c.scopes = append(c.scopes, vars)
	c.mu.Unlock()
}

// PopScope removes the innermost ephemeral scope.
func (c *Instance) PopScope() {
	c.mu.Lock()
	if n := len(c.scopes); n > 0 {
		c.scopes = c.scopes[:n-1]
	}
	c.mu.Unlock()
}

// SetHandler registers a callback under an event handler name.
func (c *Instance) SetHandler(name string, h Handler) {
	c.mu.Lock()
	c.handlers[name] = h
	c.mu.Unlock()
}

// Handler returns a stable bound callback for the named handler. The
// lookup happens at invocation, so handlers registered after binding
// still fire; a name that never resolves logs and drops the event.
func (c *Instance) Handler(name string) Handler {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.bound[name]; ok {
		return h
	}
	h := func(payload any) {
		c.mu.RLock()
		target, ok := c.handlers[name]
		c.mu.RUnlock()
		if !ok {
			if debugLog != nil {
				debugLog("component %q has no handler %q", c.name, name)
			}
			return
		}
		target(payload)
	}
	c.bound[name] = h
	return h
}

// AddSlot records a slot declared by this instance's template. The first
// slot added is the default descent target for callers.
func (c *Instance) AddSlot(name string, node scene.Node) {
	c.mu.Lock()
	c.slots = append(c.slots, Slot{Name: name, Node: node})
	c.mu.Unlock()
}

// Slot finds a slot by name. The empty name matches the first slot.
func (c *Instance) Slot(name string) (scene.Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if name == "" {
		if len(c.slots) == 0 {
			return nil, false
		}
		return c.slots[0].Node, true
	}
	for _, s := range c.slots {
		if s.Name == name {
			return s.Node, true
		}
	}
	return nil, false
}

// Slots returns the declared slots in declaration order.
func (c *Instance) Slots() []Slot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Slot, len(c.slots))
	copy(out, c.slots)
	return out
}

// AddKid records a top-level node constructed by this instance's
// template.
func (c *Instance) AddKid(node scene.Node) {
	c.mu.Lock()
	c.kids = append(c.kids, node)
	c.mu.Unlock()
}

// FirstKid returns the first intrinsic child, the descent target for
// callers when no slot is declared.
func (c *Instance) FirstKid() (scene.Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.kids) == 0 {
		return nil, false
	}
	return c.kids[0], true
}

// Kids returns the intrinsic children in construction order.
func (c *Instance) Kids() []scene.Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]scene.Node, len(c.kids))
	copy(out, c.kids)
	return out
}

// SetRef names a constructed node on this instance.
func (c *Instance) SetRef(name string, node scene.Node) {
	c.mu.Lock()
	c.refs[name] = node
	c.mu.Unlock()
}

// Ref finds a named node.
func (c *Instance) Ref(name string) (scene.Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.refs[name]
	return n, ok
}

// RemoveRef drops a named node, typically because it was torn down.
func (c *Instance) RemoveRef(name string) {
	c.mu.Lock()
	delete(c.refs, name)
	c.mu.Unlock()
}

// SetRefresh registers the closure that re-runs the instance's own
// template effects. Factories built from templates install one so prop
// writes propagate into the instance's subtree.
func (c *Instance) SetRefresh(fn func()) {
	c.mu.Lock()
	c.refresh = fn
	c.mu.Unlock()
}

// Refresh re-runs the instance's template effects, if any are
// registered.
func (c *Instance) Refresh() {
	c.mu.RLock()
	fn := c.refresh
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}
