package markup

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arborui/arbor/pkg/arbor/template"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want *template.Node
	}{
		{
			name: "self-closing element",
			src:  `<node width="100"/>`,
			want: template.New(template.TagElement, template.Attrs{{Name: "width", Value: "100"}}),
		},
		{
			name: "nested elements",
			src:  `<node><node class="inner"/></node>`,
			want: template.Element(nil,
				template.New(template.TagElement, template.Attrs{{Name: "class", Value: "inner"}}),
			),
		},
		{
			name: "text content",
			src:  `<node>hello world</node>`,
			want: template.Element(nil, template.Text("hello world")),
		},
		{
			name: "interpolated text stays verbatim",
			src:  `<node>count: ${$count}</node>`,
			want: template.Element(nil, template.Text("count: ${$count}")),
		},
		{
			name: "marker attributes keep their prefixes",
			src:  `<node :width="$w" @press="onPress" class="box"/>`,
			want: template.New(template.TagElement, template.Attrs{
				{Name: ":width", Value: "$w"},
				{Name: "@press", Value: "onPress"},
				{Name: "class", Value: "box"},
			}),
		},
		{
			name: "bare attribute is boolean shorthand",
			src:  `<node visible/>`,
			want: template.New(template.TagElement, template.Attrs{{Name: "visible", Value: "true"}}),
		},
		{
			name: "dashed attribute names pass through",
			src:  `<node data-role="header"/>`,
			want: template.New(template.TagElement, template.Attrs{{Name: "data-role", Value: "header"}}),
		},
		{
			name: "component tag with children",
			src:  `<Card title="hi"><node/></Card>`,
			want: template.New("Card", template.Attrs{{Name: "title", Value: "hi"}},
				template.New(template.TagElement, nil),
			),
		},
		{
			name: "slot placeholder",
			src:  `<node><slot name="body"/></node>`,
			want: template.Element(nil, template.Slot("body")),
		},
		{
			name: "repeat directive",
			src:  `<node><node for="item in $items" key="$item.id"/></node>`,
			want: template.Element(nil,
				template.New(template.TagElement, template.Attrs{
					{Name: "for", Value: "item in $items"},
					{Name: "key", Value: "$item.id"},
				}),
			),
		},
		{
			name: "comments disappear",
			src:  "<node><!-- layout root --><node/></node>",
			want: template.Element(nil, template.New(template.TagElement, nil)),
		},
		{
			name: "multiple roots wrap in an element",
			src:  `<node id="a"/><node id="b"/>`,
			want: template.Element(nil,
				template.New(template.TagElement, template.Attrs{{Name: "id", Value: "a"}}),
				template.New(template.TagElement, template.Attrs{{Name: "id", Value: "b"}}),
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse("test.arb", tt.src)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("tree mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"empty document", "   ", "empty document"},
		{"mismatched tags", "<node></slot>", "mismatched tags"},
		{"unterminated element", "<node><node/>", "missing closing tag"},
		{"unquoted value", `<node width=100/>`, "expected quoted value"},
		{"unterminated value", `<node width="100`, "unterminated value"},
		{"unterminated comment", "<!-- hi", "unterminated comment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("test.arb", tt.src)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q does not mention %q", err, tt.msg)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error type %T, want *ParseError", err)
			}
			if pe.File != "test.arb" || pe.Line < 1 || pe.Col < 1 {
				t.Errorf("bad position: %+v", pe)
			}
		})
	}
}

func TestParsedTreeCompilesPositions(t *testing.T) {
	src := `
<node class="list">
	<text text="Todos"/>
	<node for="todo, i in $todos" key="$todo" :label="$todo"/>
</node>`
	got, err := Parse("list.arb", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Count() != 3 {
		t.Fatalf("node count = %d, want 3", got.Count())
	}
	if got.Children[1].Type != template.TagElement {
		t.Fatalf("second child type = %q", got.Children[1].Type)
	}
	if v, _ := got.Children[1].Attr("for"); v != "todo, i in $todos" {
		t.Fatalf("for = %q", v)
	}
}
