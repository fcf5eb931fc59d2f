package compiler

import (
	"github.com/arborui/arbor/pkg/arbor/component"
	"github.com/arborui/arbor/pkg/arbor/scene"
	"github.com/arborui/arbor/pkg/arbor/template"
)

// compileComponent emits a component call site: a wrapper node, the
// two-tier registry lookup, prop assembly, and a guarded factory
// invocation. Children keep compiling into the descent target, and
// ownership moves inward only if descent lands in a slot.
func (c *emitter) compileComponent(n *template.Node, pos walkPos) error {
	plan, err := c.analyze(n, pos)
	if err != nil {
		return err
	}

	c.steps = append(c.steps, func(rt *runtimeState) {
		constructComponent(rt, plan)
	})
	c.appendBindEffects(plan)

	inner := &ownerRef{index: plan.idx, outer: pos.owner}
	return c.walkChildren(n, pos, parentRef{kind: parentDescent, index: plan.idx}, inner)
}

// constructComponent runs the emitted component sequence: resolve the
// entry, build and configure the wrapper with declared props stripped,
// assemble the prop bag, then invoke the factory exactly once.
func constructComponent(rt *runtimeState, plan *nodePlan) {
	node, created := ensureNode(rt, plan)
	if node == nil {
		return
	}
	if created && plan.refName != "" && !plan.loopHost {
		if owner := plan.owner.resolve(rt); owner != nil {
			owner.SetRef(plan.refName, node)
		}
	}

	owner := plan.owner.resolve(rt)
	entry, found := component.Resolve(plan.name, rt.ctx.Components, owner)

	ensurePopulated(rt, plan, node, entry.Declares)

	if rt.m.Component(plan.idx) != nil {
		return
	}
	bag := buildBag(rt, plan)
	factory := entry.Factory
	if !found || factory == nil {
		factory = fallbackFactory(plan.name)
	}
	inst := factory(bag, node, owner)
	if inst == nil {
		inst = component.New(plan.name)
		inst.AdoptProps(bag)
	}
	rt.m.SetComponent(plan.idx, inst)
}

// buildBag assembles the prop bag from static values and the current
// values of reactive attributes.
func buildBag(rt *runtimeState, plan *nodePlan) *component.Props {
	bag := component.NewProps()
	scope := scopeFor(rt, plan.owner, plan.parent)
	for _, e := range plan.bag {
		v, err := cfgValue(e, scope)
		if err != nil {
			logf("props %s: %q: %v", plan.path, e.name, err)
			continue
		}
		bag.Set(e.name, v)
	}
	return bag
}

// routePropWrite sends a reactive value to the child's live prop bag
// when the prop is declared, otherwise to the wrapper node.
func routePropWrite(rt *runtimeState, plan *nodePlan, name string, v any, wrapper scene.Node) {
	child := rt.m.Component(plan.idx)
	entry, found := component.Resolve(plan.name, rt.ctx.Components, plan.owner.resolve(rt))
	if child != nil && found && entry.Declares(name) {
		child.Props().Set(name, v)
		child.Refresh()
		return
	}
	wrapper.Set(name, v)
}

// fallbackFactory stands in for names neither registry tier resolves:
// it logs and yields an inert instance so the surrounding tree still
// constructs.
func fallbackFactory(name string) component.Factory {
	return func(props *component.Props, wrapper scene.Node, owner *component.Instance) *component.Instance {
		logf("unknown component %q, constructing inert instance", name)
		inst := component.New(name)
		inst.AdoptProps(props)
		return inst
	}
}
