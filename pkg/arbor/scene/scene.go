// Package scene defines the contract between compiled programs and the
// rendering backend. The compiler never talks to a concrete renderer; it
// emits closures that drive these interfaces.
package scene

// Config is the one-time configuration payload handed to Populate. Values
// are already resolved: strings, bools, numbers, or bound callbacks.
type Config map[string]any

// Node is a constructed scene object. Implementations must make Populate
// effectively one-shot (construction guards call it at most once per node)
// and must tolerate Set on any property name.
type Node interface {
	// Populate applies the node's one-time configuration.
	Populate(cfg Config)

	// Set updates a single named property in place.
	Set(name string, value any)

	// Delete detaches the node from its parent without releasing it.
	Delete() error

	// Destroy releases the node and everything below it. Destroying an
	// already-destroyed node is a no-op.
	Destroy() error
}

// Creator produces scene nodes. The owner is the component instance the
// node is being built for; backends treat it as an opaque tag and hand it
// back on input events.
type Creator interface {
	CreateNode(parent Node, owner any) Node
}

// Measured is implemented by nodes that can report their laid-out size.
// Percentage sizing evaluates against the parent's measured extents; a
// parent that does not implement Measured resolves to zero.
type Measured interface {
	MeasuredWidth() float64
	MeasuredHeight() float64
}

// Snapshotter is implemented by nodes that can capture their subtree as a
// Snapshot, which the live preview protocol diffs and streams.
type Snapshotter interface {
	Snapshot() *Snapshot
}
