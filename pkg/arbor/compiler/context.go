package compiler

import (
	"github.com/arborui/arbor/pkg/arbor/component"
	"github.com/arborui/arbor/pkg/arbor/scene"
)

// Context is the shared compilation context: the state the compiler
// accumulated while emitting, plus the runtime bindings construction and
// effects need. Compile returns one with the registry it was given;
// callers fill in the backend before constructing, and may copy the
// context to construct the same program against a different backend.
type Context struct {
	// Backend creates scene nodes during construction.
	Backend scene.Creator

	// Components is the call-scoped registry tier. The owning instance's
	// registry is the fallback tier.
	Components *component.Registry

	count int
	tags  []string
}

func newContext(components *component.Registry) *Context {
	return &Context{Components: components}
}

// allocIndex reserves the next mount index for a node. Indices are
// monotonic across the whole compilation, nested loop bodies included.
func (c *Context) allocIndex(tag string) int {
	i := c.count
	c.count++
	c.tags = append(c.tags, tag)
	return i
}

// NodeCount returns the number of mount indices the compilation
// allocated.
func (c *Context) NodeCount() int { return c.count }

// Tag returns the type tag compiled at an index.
func (c *Context) Tag(i int) string {
	if i < 0 || i >= len(c.tags) {
		return ""
	}
	return c.tags[i]
}

// WithBackend returns a shallow copy bound to another backend.
func (c *Context) WithBackend(b scene.Creator) *Context {
	out := *c
	out.Backend = b
	return &out
}
