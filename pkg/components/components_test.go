package components

import (
	"testing"

	"github.com/arborui/arbor/pkg/arbor"
	"github.com/arborui/arbor/pkg/reactive"
	"github.com/arborui/arbor/pkg/renderer/headless"
)

func newApp(t *testing.T) (*arbor.App, *headless.Backend) {
	t.Helper()
	be := headless.New()
	app := arbor.New(be)
	if err := Register(app.Components, be); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return app, be
}

func findByClass(be *headless.Backend, class string) *headless.Node {
	for _, n := range be.Created() {
		if v, _ := n.Value("class"); v == class {
			return n
		}
	}
	return nil
}

func TestRegisterDefinesAllBuiltins(t *testing.T) {
	app, _ := newApp(t)
	for _, name := range Names() {
		if _, ok := app.Components.Lookup(name); !ok {
			t.Errorf("built-in %s not registered", name)
		}
	}
}

func TestBadgeRendersLabel(t *testing.T) {
	app, be := newApp(t)

	_, err := app.Mount("page", `<node><Badge label="New" tone="info"/></node>`, nil, nil)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}

	badge := findByClass(be, "badge")
	if badge == nil {
		t.Fatal("no badge node constructed")
	}
	if v, _ := badge.Value("data-tone"); v != "info" {
		t.Fatalf("data-tone = %v, want info", v)
	}
	// The declared prop must not leak onto the wrapper node.
	wrapper := badge.Parent()
	if _, ok := wrapper.Value("label"); ok {
		t.Fatal("label prop leaked into the wrapper configuration")
	}

	kids := badge.Kids()
	if len(kids) != 1 {
		t.Fatalf("badge has %d children, want 1", len(kids))
	}
	if v, _ := kids[0].Value("text"); v != "New" {
		t.Fatalf("badge text = %v, want New", v)
	}
}

func TestCardSlotsCallerContent(t *testing.T) {
	app, be := newApp(t)

	rt, err := app.Mount("page", `
<Card title="Stats">
	<node class="inner"/>
</Card>`, nil, nil)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}

	inner := findByClass(be, "inner")
	if inner == nil {
		t.Fatal("no caller content constructed")
	}

	card := rt.Owner().Mounts().Component(0)
	if card == nil {
		t.Fatal("no card instance mounted")
	}
	slot, ok := card.Slot("body")
	if !ok {
		t.Fatal("card declares no body slot")
	}
	if inner.Parent() != slot {
		t.Fatal("caller content did not mount into the card's slot")
	}

	header := findByClass(be, "card-header")
	if header == nil || len(header.Kids()) != 1 {
		t.Fatal("card header missing")
	}
	if v, _ := header.Kids()[0].Value("text"); v != "Stats" {
		t.Fatalf("card title = %v, want Stats", v)
	}
}

func TestReactivePropRefreshesChild(t *testing.T) {
	app, be := newApp(t)

	store := reactive.NewStore()
	store.Set("mood", "info")
	_, err := app.Mount("page", `<node><Badge label="x" :tone="$mood"/></node>`, nil, store)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}

	badge := findByClass(be, "badge")
	if badge == nil {
		t.Fatal("no badge node constructed")
	}
	if v, _ := badge.Value("data-tone"); v != "info" {
		t.Fatalf("data-tone = %v, want info", v)
	}

	// A store write must reach through the prop bag into the badge's
	// own template, not stop at the wrapper.
	store.Set("mood", "warn")
	if v, _ := badge.Value("data-tone"); v != "warn" {
		t.Fatalf("data-tone after store write = %v, want warn", v)
	}
}

func TestProgressFillTracksValue(t *testing.T) {
	app, be := newApp(t)

	_, err := app.Mount("page", `<node><Progress value="30" max="120"/></node>`, nil, nil)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}

	fill := findByClass(be, "progress-fill")
	if fill == nil {
		t.Fatal("no progress fill constructed")
	}
	if v, _ := fill.Value("width"); v != 25.0 {
		t.Fatalf("fill width = %v, want 25", v)
	}
}
