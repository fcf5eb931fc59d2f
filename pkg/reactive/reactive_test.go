package reactive

import (
	"strings"
	"testing"

	"github.com/arborui/arbor/pkg/arbor/compiler"
	"github.com/arborui/arbor/pkg/arbor/component"
	"github.com/arborui/arbor/pkg/arbor/template"
	"github.com/arborui/arbor/pkg/renderer/headless"
)

func bindTree(t *testing.T, tree *template.Node, state map[string]any) (*Runtime, *Store, *headless.Backend) {
	t.Helper()
	prog, err := compiler.Compile(tree, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	be := headless.New()
	prog.Context.Backend = be

	store := NewStore()
	for k, v := range state {
		store.Set(k, v)
	}
	rt := Bind(prog, component.New("root"), store)
	if err := rt.Mount(nil); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	return rt, store, be
}

func countOps(be *headless.Backend, prefix string) int {
	n := 0
	for _, op := range be.Ops() {
		if strings.HasPrefix(op, prefix) {
			n++
		}
	}
	return n
}

func TestStoreBatchNotifiesOnce(t *testing.T) {
	s := NewStore()
	var gotBatches [][]string
	s.Subscribe(func(changed []string) {
		gotBatches = append(gotBatches, changed)
	})

	s.Batch(func() {
		s.Set("a", 1)
		s.Set("b", 2)
		s.Set("a", 3)
	})

	if len(gotBatches) != 1 {
		t.Fatalf("got %d notifications, want 1", len(gotBatches))
	}
	if got := gotBatches[0]; len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("changed = %v, want [a b]", got)
	}
	if v, _ := s.Get("a"); v != 3 {
		t.Fatalf("a = %v, want 3", v)
	}
}

func TestMountAppliesReactiveAttributes(t *testing.T) {
	tree := template.Element(template.Attrs{
		{Name: ":label", Value: "$greeting"},
	})
	rt, _, _ := bindTree(t, tree, map[string]any{"greeting": "hello"})

	node, _ := rt.Owner().Mounts().Node(0).(*headless.Node)
	if v, _ := node.Value("label"); v != "hello" {
		t.Fatalf("label = %v, want hello", v)
	}
}

func TestOnlyDependentEffectsRerun(t *testing.T) {
	tree := template.Element(template.Attrs{
		{Name: ":a", Value: "$x"},
		{Name: ":b", Value: "$y"},
	})
	rt, store, be := bindTree(t, tree, map[string]any{"x": "1", "y": "2"})

	setsBefore := countOps(be, "set ")
	store.Set("x", "10")

	if got := countOps(be, "set ") - setsBefore; got != 1 {
		t.Fatalf("%d sets after store change, want 1", got)
	}
	node, _ := rt.Owner().Mounts().Node(0).(*headless.Node)
	if v, _ := node.Value("a"); v != "10" {
		t.Fatalf("a = %v, want 10", v)
	}
	if v, _ := node.Value("b"); v != "2" {
		t.Fatalf("b = %v, want 2", v)
	}
}

func TestFlushOrderIsEffectListOrder(t *testing.T) {
	tree := template.Element(template.Attrs{
		{Name: ":a", Value: "$x"},
		{Name: ":b", Value: "$x"},
	})
	_, store, be := bindTree(t, tree, map[string]any{"x": "1"})

	before := len(be.Ops())
	store.Set("x", "2")
	ops := be.Ops()[before:]

	if len(ops) != 2 || !strings.HasSuffix(ops[0], " a") || !strings.HasSuffix(ops[1], " b") {
		t.Fatalf("ops = %v, want [set a, set b]", ops)
	}
}

func TestBatchedWritesFlushOnce(t *testing.T) {
	tree := template.Element(template.Attrs{
		{Name: ":sum", Value: "$x + $y"},
	})
	rt, store, be := bindTree(t, tree, map[string]any{"x": 1.0, "y": 2.0})

	before := countOps(be, "set ")
	store.Batch(func() {
		store.Set("x", 10.0)
		store.Set("y", 20.0)
	})

	if got := countOps(be, "set ") - before; got != 1 {
		t.Fatalf("%d sets for a batched write, want 1", got)
	}
	node, _ := rt.Owner().Mounts().Node(0).(*headless.Node)
	if v, _ := node.Value("sum"); v != 30.0 {
		t.Fatalf("sum = %v, want 30", v)
	}
}

func TestLoopReconcilesOnCollectionChange(t *testing.T) {
	tree := template.Element(nil,
		template.New(template.TagElement, template.Attrs{
			{Name: "for", Value: "item in $items"},
			{Name: "key", Value: "$item"},
			{Name: ":label", Value: "$item"},
		}),
	)
	_, store, be := bindTree(t, tree, map[string]any{
		"items": []any{"A", "B", "C"},
	})

	created := len(be.Created())
	destroyed := countOps(be, "destroy ")

	store.Set("items", []any{"B", "C", "D"})

	if got := len(be.Created()) - created; got != 1 {
		t.Fatalf("%d creations after update, want 1 (for D)", got)
	}
	if got := countOps(be, "destroy ") - destroyed; got != 1 {
		t.Fatalf("%d destroys after update, want 1 (for A)", got)
	}
}

func TestEffectErrorReachesHandler(t *testing.T) {
	tree := template.Element(nil,
		template.New(template.TagElement, template.Attrs{
			{Name: "for", Value: "item in $items"},
		}),
	)
	prog, err := compiler.Compile(tree, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	prog.Context.Backend = headless.New()

	store := NewStore()
	store.Set("items", []any{"A"})
	rt := Bind(prog, component.New("root"), store)

	var failures int
	rt.SetErrorHandler(func(effect int, err error) bool {
		failures++
		return true
	})
	if err := rt.Mount(nil); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	// A non-sequence collection must fail loudly, not skip quietly.
	store.Set("items", 42)
	if failures != 1 {
		t.Fatalf("handler saw %d failures, want 1", failures)
	}

	// The runner stays alive for the next valid run.
	store.Set("items", []any{"A", "B"})
	if failures != 1 {
		t.Fatalf("handler saw %d failures after recovery, want 1", failures)
	}
}
