package compiler

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/arborui/arbor/pkg/arbor/component"
	"github.com/arborui/arbor/pkg/arbor/expr"
	"github.com/arborui/arbor/pkg/arbor/scene"
	"github.com/arborui/arbor/pkg/arbor/template"
)

// forSpec is a parsed repeat directive: "item in $items" or
// "item, i in $items".
type forSpec struct {
	itemVar  string
	indexVar string
	coll     *expr.Program
}

const defaultIndexVar = "index"

func parseForSpec(v string) (*forSpec, error) {
	head, tail, ok := strings.Cut(v, " in ")
	if !ok {
		return nil, fmt.Errorf("missing 'in' in %q", v)
	}
	spec := &forSpec{indexVar: defaultIndexVar}

	vars := strings.Split(head, ",")
	if len(vars) > 2 {
		return nil, fmt.Errorf("too many loop variables in %q", v)
	}
	spec.itemVar = strings.TrimSpace(vars[0])
	if !isIdent(spec.itemVar) {
		return nil, fmt.Errorf("bad item variable %q", spec.itemVar)
	}
	if len(vars) == 2 {
		spec.indexVar = strings.TrimSpace(vars[1])
		if !isIdent(spec.indexVar) {
			return nil, fmt.Errorf("bad index variable %q", spec.indexVar)
		}
	}

	coll, err := expr.Compile(strings.TrimSpace(tail))
	if err != nil {
		return nil, err
	}
	spec.coll = coll
	return spec, nil
}

// compileLoop emits a repeat directive. The host allocates one index;
// all per-key construction and the keyed reconciliation live in a single
// effect at the directive's traversal position. The host's subtree
// compiles into a sub-program that runs once per live key against that
// key's own mount container.
func (c *emitter) compileLoop(n *template.Node, pos walkPos) error {
	forVal, _ := n.Attr(attrFor)
	spec, err := parseForSpec(forVal)
	if err != nil {
		return &Error{Path: pos.path, Attr: attrFor, Msg: "bad repeat directive", Cause: err}
	}

	var keyProg *expr.Program
	if kv, ok := n.Attr(attrKey); ok {
		keyProg, err = expr.Compile(kv)
		if err != nil {
			return &Error{Path: pos.path, Attr: attrKey, Msg: "bad key expression", Cause: err}
		}
	}

	// Inside the sub-program the host is the root: its parent resolves
	// to whatever the directive's parent resolved to at run time.
	hostPos := walkPos{
		parent: parentRef{kind: parentRoot},
		depth:  pos.depth,
		path:   pos.path,
	}
	plan, err := c.analyze(n, hostPos)
	if err != nil {
		return err
	}
	plan.loopHost = true

	sub := &emitter{ctx: c.ctx}
	var childParent parentRef
	var childOwner *ownerRef
	if plan.kind == template.KindComponent {
		childParent = parentRef{kind: parentDescent, index: plan.idx}
		childOwner = &ownerRef{index: plan.idx}
	} else {
		childParent = parentRef{kind: parentNode, index: plan.idx}
	}
	if err := sub.walkChildren(n, hostPos, childParent, childOwner); err != nil {
		return err
	}
	body := &subProgram{steps: sub.steps, effects: sub.effects, deps: sub.deps}

	outerParent := pos.parent
	outerOwner := pos.owner
	c.effects = append(c.effects, func(owner *component.Instance, m *component.Mounts, ctx *Context) error {
		rt := &runtimeState{owner: owner, m: m, ctx: ctx}
		return runLoop(rt, plan, spec, keyProg, body, outerParent, outerOwner)
	})
	c.deps = append(c.deps, loopDeps(spec, keyProg, plan, body))
	return nil
}

// loopDeps unions every state name the directive's single effect can
// read: the collection, the key expression, the host's own bindings,
// and the body's effects. Loop variables shadow same-named state, so a
// stale entry here at worst re-runs the pass.
func loopDeps(spec *forSpec, keyProg *expr.Program, plan *nodePlan, body *subProgram) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(names []string) {
		for _, n := range names {
			if n == spec.itemVar || n == spec.indexVar || n == "key" {
				continue
			}
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	add(spec.coll.Refs())
	if keyProg != nil {
		add(keyProg.Refs())
	}
	for _, b := range plan.binds {
		add(b.refs())
	}
	for _, d := range body.deps {
		add(d)
	}
	return out
}

// runLoop is one reconciliation pass: walk the collection in order,
// construct entries for new keys, update live bindings for all keys,
// then tear down entries whose key disappeared.
func runLoop(rt *runtimeState, plan *nodePlan, spec *forSpec, keyProg *expr.Program, body *subProgram, outerParent parentRef, outerOwner *ownerRef) error {
	set := rt.m.Loop(plan.idx)
	own := outerOwner.resolve(rt)
	if own == nil {
		return fmt.Errorf("repeat %s: no owning instance", plan.path)
	}
	parent := outerParent.resolve(rt)
	scope := evalScope{owner: own, parent: parent}

	collv, err := spec.coll.Eval(scope)
	if err != nil {
		return fmt.Errorf("repeat %s: %w", plan.path, err)
	}
	items, ok := expr.Seq(collv)
	if !ok {
		return fmt.Errorf("repeat %s: %s is not a sequence (%T)", plan.path, spec.coll.Raw(), collv)
	}

	// The key set rebuilds from empty every pass.
	prevLen := set.Len()
	seen := make(map[string]bool, len(items))
	var errs []error

	for i, item := range items {
		vars := map[string]any{
			spec.itemVar:  item,
			spec.indexVar: float64(i),
		}
		own.PushScope(vars)

		var key string
		if keyProg != nil {
			kv, err := keyProg.Eval(scope)
			if err != nil {
				errs = append(errs, fmt.Errorf("repeat %s: key: %w", plan.path, err))
				own.PopScope()
				continue
			}
			key = expr.Format(kv)
		} else {
			key = randomKey()
		}
		vars["key"] = key
		seen[key] = true

		entry := set.Get(key)
		if entry == nil {
			entry = buildLoopEntry(rt, plan, body, parent, own)
			set.Put(key, entry)
		}

		// Positional refs are reassigned every pass since order shifts.
		if plan.refName != "" && entry.Node != nil {
			own.SetRef(plan.refName+strconv.Itoa(i), entry.Node)
		}

		subRT := &runtimeState{owner: own, m: entry.Sub, ctx: rt.ctx}
		if node := entry.Sub.Node(plan.idx); node != nil {
			for _, b := range plan.binds {
				if err := applyBind(subRT, plan, b, node); err != nil {
					errs = append(errs, err)
				}
			}
		}
		for _, eff := range body.effects {
			if err := eff(own, entry.Sub, rt.ctx); err != nil {
				errs = append(errs, err)
			}
		}

		own.PopScope()
	}

	for _, k := range set.Keys() {
		if seen[k] {
			continue
		}
		if e := set.Get(k); e != nil && e.Node != nil {
			if err := e.Node.Delete(); err != nil {
				errs = append(errs, err)
			}
			if err := e.Node.Destroy(); err != nil {
				errs = append(errs, err)
			}
		}
		set.Remove(k)
	}

	// Positional refs past the new length would keep pointing at
	// torn-down nodes.
	if plan.refName != "" {
		for i := len(items); i < prevLen; i++ {
			own.RemoveRef(plan.refName + strconv.Itoa(i))
		}
	}
	return errors.Join(errs...)
}

// buildLoopEntry constructs one key's host and subtree into a fresh
// mount container rooted at the directive's parent.
func buildLoopEntry(rt *runtimeState, plan *nodePlan, body *subProgram, parent scene.Node, own *component.Instance) *component.LoopEntry {
	sub := component.NewMounts()
	sub.SetRoot(parent)
	subRT := &runtimeState{owner: own, m: sub, ctx: rt.ctx}
	if plan.kind == template.KindComponent {
		constructComponent(subRT, plan)
	} else {
		constructPrimitive(subRT, plan)
	}
	for _, step := range body.steps {
		step(subRT)
	}
	return &component.LoopEntry{Node: sub.Node(plan.idx), Comp: sub.Component(plan.idx), Sub: sub}
}

// randomKey is the fallback identity for unkeyed entries: never equal
// across passes, so unkeyed loops rebuild every run.
func randomKey() string {
	return strconv.FormatUint(rand.Uint64(), 36)
}
