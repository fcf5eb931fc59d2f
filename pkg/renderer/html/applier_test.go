package html

import (
	"strings"
	"testing"

	"github.com/arborui/arbor/pkg/arbor/scene"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		snap *scene.Snapshot
		want string
	}{
		{
			name: "plain node",
			snap: &scene.Snapshot{Type: "node", Attrs: map[string]string{"class": "box"}},
			want: `<div class="box"></div>`,
		},
		{
			name: "text node escapes content",
			snap: &scene.Snapshot{Type: "text", Text: `a < b & "c"`},
			want: `a &lt; b &amp; &#34;c&#34;`,
		},
		{
			name: "type override becomes the tag",
			snap: &scene.Snapshot{Type: "button", Attrs: map[string]string{"class": "cta"}, Text: "Go"},
			want: `<button class="cta">Go</button>`,
		},
		{
			name: "void element self-closes",
			snap: &scene.Snapshot{Type: "img", Attrs: map[string]string{"src": "x.png"}},
			want: `<img src="x.png"/>`,
		},
		{
			name: "boolean attribute renders as flag",
			snap: &scene.Snapshot{Type: "input", Attrs: map[string]string{"disabled": "true", "value": "v"}},
			want: `<input disabled value="v"/>`,
		},
		{
			name: "false boolean attribute disappears",
			snap: &scene.Snapshot{Type: "input", Attrs: map[string]string{"disabled": "false"}},
			want: `<input/>`,
		},
		{
			name: "attributes sort deterministically",
			snap: &scene.Snapshot{Type: "node", Attrs: map[string]string{"b": "2", "a": "1", "c": "3"}},
			want: `<div a="1" b="2" c="3"></div>`,
		},
		{
			name: "slot carries its name",
			snap: &scene.Snapshot{Type: "slot", Attrs: map[string]string{"name": "body"}},
			want: `<div data-slot="body"></div>`,
		},
		{
			name: "keyed node carries its key",
			snap: &scene.Snapshot{Type: "node", Key: "row-1"},
			want: `<div data-key="row-1"></div>`,
		},
		{
			name: "children render in order",
			snap: &scene.Snapshot{Type: "node", Kids: []scene.Snapshot{
				{Type: "text", Text: "hi"},
				{Type: "node", Attrs: map[string]string{"class": "x"}},
			}},
			want: `<div>hi<div class="x"></div></div>`,
		},
		{
			name: "attribute values escape",
			snap: &scene.Snapshot{Type: "node", Attrs: map[string]string{"title": `say "hi"`}},
			want: `<div title="say &#34;hi&#34;"></div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.snap)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if got != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestDocument(t *testing.T) {
	doc := Document("My App", "<div>hi</div>", "<script>x()</script>")
	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>My App</title>",
		"<div>hi</div>",
		"<script>x()</script>",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q:\n%s", want, doc)
		}
	}
}
