package compiler

import (
	"fmt"
	"strings"

	"github.com/arborui/arbor/pkg/arbor/component"
	"github.com/arborui/arbor/pkg/arbor/expr"
	"github.com/arborui/arbor/pkg/arbor/scene"
	"github.com/arborui/arbor/pkg/arbor/template"
)

// emitter accumulates construction steps and effects while walking the
// tree depth-first in source order. That single ordering is load-bearing:
// it fixes index allocation, construction order, and effect order at
// once.
type emitter struct {
	ctx     *Context
	steps   []constructStep
	effects []Effect
	deps    [][]string
}

// walkPos is the emitter's position while descending.
type walkPos struct {
	parent parentRef
	owner  *ownerRef
	depth  int
	path   string
}

func (c *emitter) walk(n *template.Node, pos walkPos) error {
	if _, ok := n.Attr(attrFor); ok {
		return c.compileLoop(n, pos)
	}
	if _, ok := n.Attr(attrKey); ok {
		return &Error{Path: pos.path, Attr: attrKey, Msg: "key outside a repeat directive"}
	}
	if n.Kind() == template.KindComponent {
		return c.compileComponent(n, pos)
	}
	return c.compileNode(n, pos)
}

func (c *emitter) walkChildren(n *template.Node, pos walkPos, parent parentRef, owner *ownerRef) error {
	for i, child := range n.Children {
		p := parent
		if p.kind == parentDescent {
			p.slot, _ = child.Attr(attrSlot)
		}
		childPos := walkPos{
			parent: p,
			owner:  owner,
			depth:  pos.depth + 1,
			path:   fmt.Sprintf("%s/%s[%d]", pos.path, child.Type, i),
		}
		if err := c.walk(child, childPos); err != nil {
			return err
		}
	}
	return nil
}

// compileNode emits a primitive: one guarded construction step and one
// effect per bound attribute.
func (c *emitter) compileNode(n *template.Node, pos walkPos) error {
	plan, err := c.analyze(n, pos)
	if err != nil {
		return err
	}
	c.steps = append(c.steps, func(rt *runtimeState) {
		constructPrimitive(rt, plan)
	})
	c.appendBindEffects(plan)
	return c.walkChildren(n, pos, parentRef{kind: parentNode, index: plan.idx}, pos.owner)
}

// cfgEntry is one populate configuration value: either raw, or a
// deferred expression evaluated at populate time (percent sizing).
type cfgEntry struct {
	name string
	raw  any
	prog *expr.Program
}

// bindPlan is one live binding in attribute order, reactive or event.
type bindPlan struct {
	cat     Category
	name    string
	prog    *expr.Program
	handler string
}

// nodePlan is everything compilation decided about one node. The
// emitted closures share it.
type nodePlan struct {
	idx      int
	kind     template.Kind
	popType  string
	name     string // component name when kind is component
	isRoot   bool
	loopHost bool
	refName  string
	slotName string
	parent   parentRef
	owner    *ownerRef
	cfg      []cfgEntry
	bag      []cfgEntry
	binds    []bindPlan
	path     string
}

// analyze classifies a node's attributes into the plan. This is the only
// place attribute categories are decided.
func (c *emitter) analyze(n *template.Node, pos walkPos) (*nodePlan, error) {
	kind := n.Kind()
	plan := &nodePlan{
		idx:    c.ctx.allocIndex(n.Type),
		kind:   kind,
		parent: pos.parent,
		owner:  pos.owner,
		isRoot: pos.depth == 0,
		path:   pos.path,
	}

	if kind == template.KindComponent {
		plan.name = n.Type
		plan.popType = template.TagElement
	} else {
		plan.popType = n.Type
	}
	if t, ok := n.Attr(attrType); ok {
		plan.popType = t
	}
	plan.refName, _ = n.Attr(attrRef)
	if kind == template.KindSlot {
		plan.slotName, _ = n.Attr("name")
	}

	for _, a := range n.Attrs {
		cat, name := Classify(a)
		switch cat {
		case CatStructural:
			continue

		case CatTransition:
			plan.cfg = append(plan.cfg, cfgEntry{name: name, raw: a.Value})

		case CatStatic:
			entry := cfgEntry{name: name}
			prog, isPercent, err := percentProgram(name, a.Value)
			if err != nil {
				return nil, &Error{Path: pos.path, Attr: a.Name, Msg: "bad percent value", Cause: err}
			}
			switch {
			case isPercent:
				entry.prog = prog
			default:
				if b, ok := boolValue(a.Value); ok {
					entry.raw = b
				} else {
					entry.raw = a.Value
				}
			}
			plan.cfg = append(plan.cfg, entry)
			if kind == template.KindComponent {
				plan.bag = append(plan.bag, entry)
			}

		case CatReactive:
			prog, err := compileReactive(a)
			if err != nil {
				return nil, &Error{Path: pos.path, Attr: a.Name, Msg: "bad expression", Cause: err}
			}
			plan.binds = append(plan.binds, bindPlan{cat: CatReactive, name: name, prog: prog})
			if kind == template.KindComponent {
				plan.bag = append(plan.bag, cfgEntry{name: name, prog: prog})
			}

		case CatEvent:
			if !isIdent(a.Value) {
				return nil, &Error{Path: pos.path, Attr: a.Name, Msg: "event value must name a handler"}
			}
			plan.binds = append(plan.binds, bindPlan{cat: CatEvent, name: name, handler: a.Value})
		}
	}
	return plan, nil
}

// compileReactive compiles a reactive value: marker attributes hold a
// bare expression, unmarked ones an interpolated string template.
func compileReactive(a template.Attr) (*expr.Program, error) {
	if strings.HasPrefix(a.Name, reactiveMarker) {
		return expr.Compile(a.Value)
	}
	return expr.CompileTemplate(a.Value)
}

// appendBindEffects emits one effect per bound attribute, in attribute
// order.
func (c *emitter) appendBindEffects(plan *nodePlan) {
	for _, b := range plan.binds {
		c.effects = append(c.effects, bindEffect(plan, b))
		c.deps = append(c.deps, b.refs())
	}
}

// refs lists the state names the binding's expression reads. Event
// bindings read none; they only need their initial run.
func (b bindPlan) refs() []string {
	if b.prog == nil {
		return nil
	}
	return b.prog.Refs()
}

func bindEffect(plan *nodePlan, b bindPlan) Effect {
	return func(owner *component.Instance, m *component.Mounts, ctx *Context) error {
		rt := &runtimeState{owner: owner, m: m, ctx: ctx}
		node := m.Node(plan.idx)
		if node == nil {
			return nil
		}
		return applyBind(rt, plan, b, node)
	}
}

// applyBind pushes one binding into a constructed node.
func applyBind(rt *runtimeState, plan *nodePlan, b bindPlan, node scene.Node) error {
	switch b.cat {
	case CatEvent:
		if target := plan.owner.resolve(rt); target != nil {
			node.Set(b.name, target.Handler(b.handler))
		}
		return nil

	default:
		v, err := b.prog.Eval(scopeFor(rt, plan.owner, plan.parent))
		if err != nil {
			return fmt.Errorf("update %s: attr %q: %w", plan.path, b.name, err)
		}
		if plan.kind == template.KindComponent {
			routePropWrite(rt, plan, b.name, v, node)
		} else {
			node.Set(b.name, v)
		}
		return nil
	}
}

// constructPrimitive is the guarded create-then-populate sequence for a
// non-component node.
func constructPrimitive(rt *runtimeState, plan *nodePlan) {
	node, created := ensureNode(rt, plan)
	if node == nil {
		return
	}
	if created && plan.refName != "" && !plan.loopHost {
		if owner := plan.owner.resolve(rt); owner != nil {
			owner.SetRef(plan.refName, node)
		}
	}
	ensurePopulated(rt, plan, node, nil)
}

// ensureNode creates the plan's scene node if it is missing. The create
// guard is what makes repeated construction safe.
func ensureNode(rt *runtimeState, plan *nodePlan) (scene.Node, bool) {
	if n := rt.m.Node(plan.idx); n != nil {
		return n, false
	}
	if rt.ctx == nil || rt.ctx.Backend == nil {
		logf("construct %s: no backend bound", plan.path)
		return nil, false
	}
	owner := plan.owner.resolve(rt)
	parent := plan.parent.resolve(rt)
	n := rt.ctx.Backend.CreateNode(parent, owner)
	rt.m.SetNode(plan.idx, n)
	if owner != nil {
		if plan.isRoot {
			owner.AddKid(n)
		}
		if plan.kind == template.KindSlot {
			owner.AddSlot(plan.slotName, n)
		}
	}
	return n, true
}

// ensurePopulated applies the one-time configuration once. strip filters
// wrapper configuration for declared component props.
func ensurePopulated(rt *runtimeState, plan *nodePlan, node scene.Node, strip func(string) bool) {
	if node == nil || rt.m.Populated(plan.idx) {
		return
	}
	cfg := scene.Config{"type": plan.popType}
	scope := scopeFor(rt, plan.owner, plan.parent)
	for _, e := range plan.cfg {
		if strip != nil && strip(e.name) {
			continue
		}
		v, err := cfgValue(e, scope)
		if err != nil {
			logf("populate %s: attr %q: %v", plan.path, e.name, err)
			continue
		}
		cfg[e.name] = v
	}
	node.Populate(cfg)
	rt.m.MarkPopulated(plan.idx)
}

func cfgValue(e cfgEntry, scope expr.Scope) (any, error) {
	if e.prog == nil {
		return e.raw, nil
	}
	return e.prog.Eval(scope)
}
