// Package headless is the in-memory rendering backend. It implements the
// scene contract with plain structs, records every operation, and can
// snapshot its tree, which makes it the backend of choice for tests and
// for the live preview session.
package headless

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/arborui/arbor/pkg/arbor/scene"
)

// Backend creates and tracks headless nodes.
type Backend struct {
	mu      sync.Mutex
	seq     int
	created []*Node
	ops     []string
}

// New creates an empty backend.
func New() *Backend {
	return &Backend{}
}

// CreateNode implements scene.Creator.
func (b *Backend) CreateNode(parent scene.Node, owner any) scene.Node {
	b.mu.Lock()
	b.seq++
	n := &Node{backend: b, id: b.seq, owner: owner, sets: make(map[string]any)}
	b.created = append(b.created, n)
	b.mu.Unlock()

	if p, ok := parent.(*Node); ok && p != nil {
		n.parent = p
		p.kids = append(p.kids, n)
		b.logf("create #%d parent=#%d", n.id, p.id)
	} else {
		b.logf("create #%d root", n.id)
	}
	return n
}

// Created returns every node ever created, in creation order.
func (b *Backend) Created() []*Node {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Node, len(b.created))
	copy(out, b.created)
	return out
}

// Roots returns the still-attached nodes that have no parent.
func (b *Backend) Roots() []*Node {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*Node
	for _, n := range b.created {
		if n.parent == nil && !n.destroyed && !n.deleted {
			out = append(out, n)
		}
	}
	return out
}

// Ops returns the recorded operation log.
func (b *Backend) Ops() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.ops))
	copy(out, b.ops)
	return out
}

func (b *Backend) logf(format string, args ...any) {
	b.mu.Lock()
	b.ops = append(b.ops, fmt.Sprintf(format, args...))
	b.mu.Unlock()
}

// Node is one headless scene object.
type Node struct {
	backend   *Backend
	id        int
	parent    *Node
	kids      []*Node
	owner     any
	cfg       scene.Config
	sets      map[string]any
	populates int
	deleted   bool
	destroyed bool
}

// Populate implements scene.Node. The configuration is stored as-is and
// the call is counted so tests can assert it ran exactly once.
func (n *Node) Populate(cfg scene.Config) {
	n.populates++
	if n.cfg == nil {
		n.cfg = make(scene.Config, len(cfg))
	}
	for k, v := range cfg {
		n.cfg[k] = v
	}
	n.backend.logf("populate #%d", n.id)
}

// Set implements scene.Node.
func (n *Node) Set(name string, value any) {
	n.sets[name] = value
	n.backend.logf("set #%d %s", n.id, name)
}

// Delete detaches the node from its parent.
func (n *Node) Delete() error {
	if n.parent != nil {
		kids := n.parent.kids
		for i, k := range kids {
			if k == n {
				n.parent.kids = append(kids[:i], kids[i+1:]...)
				break
			}
		}
		n.parent = nil
	}
	n.deleted = true
	n.backend.logf("delete #%d", n.id)
	return nil
}

// Destroy releases the node and its subtree. Destroying twice is a
// no-op.
func (n *Node) Destroy() error {
	if n.destroyed {
		return nil
	}
	n.destroyed = true
	n.backend.logf("destroy #%d", n.id)
	for _, k := range n.kids {
		k.Destroy()
	}
	return nil
}

// MeasuredWidth implements scene.Measured from the node's width value.
func (n *Node) MeasuredWidth() float64 { return n.extent("width") }

// MeasuredHeight implements scene.Measured from the node's height value.
func (n *Node) MeasuredHeight() float64 { return n.extent("height") }

func (n *Node) extent(name string) float64 {
	v, ok := n.Value(name)
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case string:
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return f
		}
	}
	return 0
}

// ID returns the creation-ordered node id.
func (n *Node) ID() int { return n.id }

// Parent returns the current parent, nil once detached.
func (n *Node) Parent() *Node { return n.parent }

// Kids returns the attached children in order.
func (n *Node) Kids() []*Node {
	out := make([]*Node, len(n.kids))
	copy(out, n.kids)
	return out
}

// Owner returns the opaque owner tag passed at creation.
func (n *Node) Owner() any { return n.owner }

// Value reads a property, preferring live Set values over the populate
// configuration.
func (n *Node) Value(name string) (any, bool) {
	if v, ok := n.sets[name]; ok {
		return v, true
	}
	if n.cfg != nil {
		if v, ok := n.cfg[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Type returns the populated type, defaulting to "node".
func (n *Node) Type() string {
	if v, ok := n.Value("type"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "node"
}

// PopulateCount returns how many times Populate ran.
func (n *Node) PopulateCount() int { return n.populates }

// Deleted reports whether the node was detached.
func (n *Node) Deleted() bool { return n.deleted }

// Destroyed reports whether the node was released.
func (n *Node) Destroyed() bool { return n.destroyed }

// Snapshot implements scene.Snapshotter. Handlers and other function
// values are not data and stay out of the capture.
func (n *Node) Snapshot() *scene.Snapshot {
	s := &scene.Snapshot{Type: n.Type(), Attrs: make(map[string]string)}

	names := make(map[string]bool)
	if n.cfg != nil {
		for k := range n.cfg {
			names[k] = true
		}
	}
	for k := range n.sets {
		names[k] = true
	}
	ordered := make([]string, 0, len(names))
	for k := range names {
		ordered = append(ordered, k)
	}
	sort.Strings(ordered)

	for _, k := range ordered {
		v, _ := n.Value(k)
		switch k {
		case "type":
			continue
		case "text":
			s.Text = format(v)
			continue
		case "key":
			s.Key = format(v)
			continue
		}
		if !plainValue(v) {
			continue
		}
		s.Attrs[k] = format(v)
	}

	for _, k := range n.kids {
		s.Kids = append(s.Kids, *k.Snapshot())
	}
	return s
}

func plainValue(v any) bool {
	switch v.(type) {
	case nil, string, bool, int, int64, float64, float32, uint, uint64:
		return true
	}
	return false
}

func format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprintf("%v", v)
	}
}
