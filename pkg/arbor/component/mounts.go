package component

import (
	"sort"

	"github.com/arborui/arbor/pkg/arbor/scene"
)

// Mounts is the flat, index-addressed container construction fills in.
// Every compiled node owns one index; loop directives keep a LoopSet at
// theirs. Construction and effects run on one goroutine, so Mounts does
// no locking.
type Mounts struct {
	root      scene.Node
	nodes     map[int]scene.Node
	populated map[int]bool
	comps     map[int]*Instance
	loops     map[int]*LoopSet
}

// NewMounts creates an empty container.
func NewMounts() *Mounts {
	return &Mounts{
		nodes:     make(map[int]scene.Node),
		populated: make(map[int]bool),
		comps:     make(map[int]*Instance),
		loops:     make(map[int]*LoopSet),
	}
}

// SetRoot records the external parent the program was constructed under,
// so effects can resolve top-level parents later.
func (m *Mounts) SetRoot(n scene.Node) {
	if m.root == nil {
		m.root = n
	}
}

// Root returns the external parent.
func (m *Mounts) Root() scene.Node { return m.root }

// Node returns the scene node at an index, or nil.
func (m *Mounts) Node(i int) scene.Node { return m.nodes[i] }

// SetNode stores the scene node for an index.
func (m *Mounts) SetNode(i int, n scene.Node) { m.nodes[i] = n }

// Populated reports whether the index has been configured.
func (m *Mounts) Populated(i int) bool { return m.populated[i] }

// MarkPopulated records that the index has been configured.
func (m *Mounts) MarkPopulated(i int) { m.populated[i] = true }

// Component returns the instance at an index, or nil.
func (m *Mounts) Component(i int) *Instance { return m.comps[i] }

// SetComponent stores the instance built at an index.
func (m *Mounts) SetComponent(i int, c *Instance) { m.comps[i] = c }

// Loop returns the keyed entry set at an index, creating it on first
// use.
func (m *Mounts) Loop(i int) *LoopSet {
	s, ok := m.loops[i]
	if !ok {
		s = NewLoopSet()
		m.loops[i] = s
	}
	return s
}

// Len returns the number of constructed nodes.
func (m *Mounts) Len() int { return len(m.nodes) }

// Indices returns the allocated node indices in ascending order.
func (m *Mounts) Indices() []int {
	out := make([]int, 0, len(m.nodes))
	for i := range m.nodes {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// LoopEntry is one keyed occurrence of a repeated subtree.
type LoopEntry struct {
	// Node is the host scene node for the key.
	Node scene.Node
	// Comp is the host instance when the repeated node is a component.
	Comp *Instance
	// Sub is the per-key container for the host's subtree.
	Sub *Mounts
}

// LoopSet tracks the live entries of one repeat directive by
// reconciliation key.
type LoopSet struct {
	entries map[string]*LoopEntry
}

// NewLoopSet creates an empty set.
func NewLoopSet() *LoopSet {
	return &LoopSet{entries: make(map[string]*LoopEntry)}
}

// Get returns the entry for a key, or nil.
func (s *LoopSet) Get(key string) *LoopEntry { return s.entries[key] }

// Put stores an entry under a key.
func (s *LoopSet) Put(key string, e *LoopEntry) { s.entries[key] = e }

// Remove drops a key.
func (s *LoopSet) Remove(key string) { delete(s.entries, key) }

// Len returns the number of live keys.
func (s *LoopSet) Len() int { return len(s.entries) }

// Keys returns the live keys in sorted order.
func (s *LoopSet) Keys() []string {
	out := make([]string, 0, len(s.entries))
	for k := range s.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
