package template

import (
	"strings"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		tag  string
		want Kind
	}{
		{"node", KindElement},
		{"text", KindText},
		{"slot", KindSlot},
		{"Badge", KindComponent},
		{"row", KindComponent},
		{"", KindComponent},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			if got := KindOf(tt.tag); got != tt.want {
				t.Errorf("KindOf(%q) = %v, want %v", tt.tag, got, tt.want)
			}
		})
	}
}

func TestAttrOrderPreserved(t *testing.T) {
	n := New("node", Attrs{
		{Name: "width", Value: "100"},
		{Name: ":label", Value: "$title"},
		{Name: "width", Value: "200"},
	})

	if len(n.Attrs) != 3 {
		t.Fatalf("expected 3 attrs, got %d", len(n.Attrs))
	}
	if n.Attrs[0].Name != "width" || n.Attrs[1].Name != ":label" || n.Attrs[2].Name != "width" {
		t.Errorf("attribute order not preserved: %v", n.Attrs)
	}

	// Attr returns the first occurrence.
	v, ok := n.Attr("width")
	if !ok || v != "100" {
		t.Errorf("Attr(width) = %q, %v, want 100, true", v, ok)
	}
}

func TestCountAndWalk(t *testing.T) {
	tree := Element(nil,
		Element(Attrs{{Name: "id", Value: "a"}},
			Text("hello"),
		),
		New("Badge", Attrs{{Name: "label", Value: "hi"}}),
	)

	if got := tree.Count(); got != 4 {
		t.Errorf("Count() = %d, want 4", got)
	}

	var order []string
	tree.Walk(func(n *Node) bool {
		order = append(order, n.Type)
		return true
	})
	want := []string{"node", "node", "text", "Badge"}
	if len(order) != len(want) {
		t.Fatalf("Walk visited %d nodes, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("Walk order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestWalkSkipsChildren(t *testing.T) {
	tree := Element(nil,
		New("Badge", nil, Text("inner")),
		Text("after"),
	)

	var visited []string
	tree.Walk(func(n *Node) bool {
		visited = append(visited, n.Type)
		return n.Kind() != KindComponent
	})

	for _, ty := range visited {
		if ty == "text" && len(visited) == 2 {
			t.Fatal("descended into skipped component subtree")
		}
	}
	if len(visited) != 3 {
		t.Errorf("visited %d nodes, want 3 (component children skipped)", len(visited))
	}
}

func TestFingerprint(t *testing.T) {
	a := Element(Attrs{{Name: "width", Value: "50%"}}, Text("hi"))
	b := Element(Attrs{{Name: "width", Value: "50%"}}, Text("hi"))
	c := Element(Attrs{{Name: "width", Value: "51%"}}, Text("hi"))

	if Fingerprint(a) != Fingerprint(b) {
		t.Error("identical trees must share a fingerprint")
	}
	if Fingerprint(a) == Fingerprint(c) {
		t.Error("differing attribute values must change the fingerprint")
	}

	// Attribute order is significant.
	d := New("node", Attrs{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}})
	e := New("node", Attrs{{Name: "b", Value: "2"}, {Name: "a", Value: "1"}})
	if Fingerprint(d) == Fingerprint(e) {
		t.Error("attribute order must be part of the fingerprint")
	}

	// Depth is significant: a child must not hash like a sibling.
	f := Element(nil, Element(nil, Text("x")))
	g := Element(nil, Element(nil), Text("x"))
	if Fingerprint(f) == Fingerprint(g) {
		t.Error("tree shape must be part of the fingerprint")
	}
}

func TestSketch(t *testing.T) {
	tree := Element(nil, Slot("header"))
	out := Sketch(tree)
	if !strings.Contains(out, "slot") || !strings.Contains(out, `name="header"`) {
		t.Errorf("Sketch output missing slot line:\n%s", out)
	}
	if !strings.HasPrefix(out, "node") {
		t.Errorf("Sketch should start at the root:\n%s", out)
	}
}
