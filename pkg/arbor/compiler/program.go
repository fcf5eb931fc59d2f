// Package compiler turns a parsed template tree into executable form: a
// one-time construction routine, an ordered effect list, and the shared
// compilation context. Construction builds and configures scene nodes
// exactly once per owner; effects are the re-runnable closures that push
// expression values, handler bindings, and loop reconciliation into the
// constructed tree.
package compiler

import (
	"errors"

	"github.com/arborui/arbor/pkg/arbor/component"
	"github.com/arborui/arbor/pkg/arbor/scene"
	"github.com/arborui/arbor/pkg/arbor/template"
)

// Construct builds the program's nodes under parent on behalf of owner
// and returns the owner's mount container. Running it again with the
// same owner is a no-op beyond filling gaps.
type Construct func(parent scene.Node, owner *component.Instance, ctx *Context) *component.Mounts

// Effect is one re-runnable update closure. Effects assume construction
// has happened; a torn-down node makes the effect a quiet no-op rather
// than a rebuild.
type Effect func(owner *component.Instance, m *component.Mounts, ctx *Context) error

// Program is the compiled form of one template tree.
type Program struct {
	Construct Construct
	Effects   []Effect
	Context   *Context

	// Deps holds, per effect, the state names the effect reads, in
	// first-use order. The reactive runtime schedules re-runs from it;
	// an empty list means the effect only needs its initial run.
	Deps [][]string
}

// Compile compiles a template tree against a call-scoped component
// registry. Malformed expressions and directives fail here; unknown
// component names do not, they defer to runtime resolution.
func Compile(root *template.Node, components *component.Registry) (*Program, error) {
	if root == nil {
		return nil, &Error{Path: "root", Msg: "nil template"}
	}
	c := &emitter{ctx: newContext(components)}
	if err := c.walk(root, walkPos{parent: parentRef{kind: parentRoot}, path: root.Type}); err != nil {
		return nil, err
	}
	return &Program{
		Construct: buildConstruct(c.steps),
		Effects:   c.effects,
		Context:   c.ctx,
		Deps:      c.deps,
	}, nil
}

// Run constructs under parent and applies every effect once, in order.
// It is the usual way to mount a program for the first time.
func (p *Program) Run(parent scene.Node, owner *component.Instance) error {
	m := p.Construct(parent, owner, p.Context)
	var errs []error
	for _, eff := range p.Effects {
		if err := eff(owner, m, p.Context); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func buildConstruct(steps []constructStep) Construct {
	return func(parent scene.Node, owner *component.Instance, ctx *Context) *component.Mounts {
		m := owner.Mounts()
		m.SetRoot(parent)
		rt := &runtimeState{owner: owner, m: m, ctx: ctx}
		for _, step := range steps {
			step(rt)
		}
		return m
	}
}

// runtimeState is what emitted closures see while running: the root
// owner, the mount container in play (the owner's for the main program,
// a per-key one inside loops), and the context.
type runtimeState struct {
	owner *component.Instance
	m     *component.Mounts
	ctx   *Context
}

type constructStep func(rt *runtimeState)

// subProgram is a loop body: steps and effects that run once per live
// key against that key's own mount container.
type subProgram struct {
	steps   []constructStep
	effects []Effect
	deps    [][]string
}
