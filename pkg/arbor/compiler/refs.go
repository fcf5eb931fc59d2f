package compiler

import (
	"github.com/arborui/arbor/pkg/arbor/component"
	"github.com/arborui/arbor/pkg/arbor/expr"
	"github.com/arborui/arbor/pkg/arbor/scene"
)

// parentRef is a symbolic parent handle. Compilation never touches scene
// nodes, so parents are compiled as references and resolved against the
// mount container when closures run.
type parentRef struct {
	kind  parentKind
	index int    // node index (parentNode) or component index (parentDescent)
	slot  string // explicit slot target for descent
}

type parentKind uint8

const (
	// parentRoot resolves to the external parent construction received.
	parentRoot parentKind = iota
	// parentNode resolves to the constructed node at index.
	parentNode
	// parentDescent resolves into the component at index: its targeted
	// slot, else its first slot, else its first intrinsic child, else
	// the wrapper node itself.
	parentDescent
)

func (p parentRef) resolve(rt *runtimeState) scene.Node {
	switch p.kind {
	case parentRoot:
		return rt.m.Root()
	case parentNode:
		return rt.m.Node(p.index)
	case parentDescent:
		if comp := rt.m.Component(p.index); comp != nil {
			if p.slot != "" {
				if n, ok := comp.Slot(p.slot); ok {
					return n
				}
			}
			if n, ok := comp.Slot(""); ok {
				return n
			}
			if n, ok := comp.FirstKid(); ok {
				return n
			}
		}
		return rt.m.Node(p.index)
	}
	return nil
}

// ownerRef is a symbolic owner handle. Ownership switches to an inner
// component only when descent lands in one of its slots, which is a
// runtime fact, so the reference chains outward and resolves late.
type ownerRef struct {
	index int
	outer *ownerRef
}

// resolve walks the chain from the innermost candidate outward. A nil
// reference is the program's root owner.
func (o *ownerRef) resolve(rt *runtimeState) *component.Instance {
	if o == nil {
		return rt.owner
	}
	if comp := rt.m.Component(o.index); comp != nil {
		if _, ok := comp.Slot(""); ok {
			return comp
		}
	}
	return o.outer.resolve(rt)
}

// evalScope binds the identifiers expressions resolve: the state root to
// the owning instance and the parent root to the parent's measured
// extents.
type evalScope struct {
	owner  *component.Instance
	parent scene.Node
}

func (s evalScope) Resolve(name string) (any, bool) {
	switch name {
	case expr.StateIdent:
		if s.owner == nil {
			return nil, false
		}
		return s.owner, true
	case expr.ParentIdent:
		return extentView{n: s.parent}, true
	}
	return nil, false
}

// extentView exposes a node's measured extents to expressions. A nil or
// unmeasured parent reads as zero.
type extentView struct {
	n scene.Node
}

func (v extentView) Field(name string) (any, bool) {
	switch name {
	case "width", "height":
	default:
		return nil, false
	}
	m, ok := v.n.(scene.Measured)
	if !ok {
		return 0.0, true
	}
	if name == "width" {
		return m.MeasuredWidth(), true
	}
	return m.MeasuredHeight(), true
}

// scopeFor builds the evaluation scope for closures attached to a node.
func scopeFor(rt *runtimeState, owner *ownerRef, parent parentRef) evalScope {
	return evalScope{owner: owner.resolve(rt), parent: parent.resolve(rt)}
}
