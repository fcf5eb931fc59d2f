// Package html serializes headless scene snapshots to HTML. The build
// command uses it for static output and the preview server for the
// initial page; incremental updates travel as patches over the live
// protocol instead.
package html

import (
	"fmt"
	"html"
	"io"
	"sort"
	"strings"

	"github.com/arborui/arbor/pkg/arbor/scene"
)

// tagFor maps intrinsic scene types to HTML tags. Any other type is
// assumed to already be a tag name (an explicit type override like
// "button" or "img").
func tagFor(sceneType string) string {
	switch sceneType {
	case "node", "slot", "":
		return "div"
	default:
		return sceneType
	}
}

// voidElements are HTML elements that cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// booleanAttributes render as bare flags when true and disappear when
// false.
var booleanAttributes = map[string]bool{
	"checked":   true,
	"disabled":  true,
	"readonly":  true,
	"required":  true,
	"selected":  true,
	"defer":     true,
	"async":     true,
	"multiple":  true,
	"autofocus": true,
}

// Renderer writes a snapshot tree as HTML.
type Renderer struct {
	w   io.Writer
	err error
}

// NewRenderer creates a renderer over w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// Render writes one snapshot subtree.
func (r *Renderer) Render(s *scene.Snapshot) error {
	r.renderNode(s)
	return r.err
}

// Render serializes a snapshot to a string.
func Render(s *scene.Snapshot) (string, error) {
	var b strings.Builder
	if err := NewRenderer(&b).Render(s); err != nil {
		return "", err
	}
	return b.String(), nil
}

// write tracks the first error and drops everything after it.
func (r *Renderer) write(s string) {
	if r.err != nil {
		return
	}
	_, r.err = io.WriteString(r.w, s)
}

func (r *Renderer) renderNode(s *scene.Snapshot) {
	if s == nil || r.err != nil {
		return
	}
	if s.Type == "text" {
		r.write(html.EscapeString(s.Text))
		return
	}
	r.renderElement(s)
}

func (r *Renderer) renderElement(s *scene.Snapshot) {
	tag := tagFor(s.Type)

	r.write("<")
	r.write(tag)

	if s.Type == "slot" {
		r.write(fmt.Sprintf(` data-slot="%s"`, html.EscapeString(s.Attrs["name"])))
	}
	if s.Key != "" {
		r.write(fmt.Sprintf(` data-key="%s"`, html.EscapeString(s.Key)))
	}

	// Attribute order in a snapshot map is unspecified; sort it so the
	// same tree always serializes to the same bytes.
	names := make([]string, 0, len(s.Attrs))
	for name := range s.Attrs {
		if s.Type == "slot" && name == "name" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := s.Attrs[name]
		if booleanAttributes[name] {
			if value == "true" {
				r.write(" " + name)
			}
			continue
		}
		r.write(fmt.Sprintf(` %s="%s"`, name, html.EscapeString(value)))
	}

	if voidElements[tag] {
		r.write("/>")
		return
	}
	r.write(">")

	if s.Text != "" {
		r.write(html.EscapeString(s.Text))
	}
	for i := range s.Kids {
		r.renderNode(&s.Kids[i])
	}

	r.write("</")
	r.write(tag)
	r.write(">")
}

// Document wraps rendered markup in a minimal HTML page. The preview
// server appends its reload script through extra.
func Document(title, body, extra string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	fmt.Fprintf(&b, "<meta charset=\"utf-8\">\n<title>%s</title>\n", html.EscapeString(title))
	b.WriteString("</head>\n<body>\n")
	b.WriteString(body)
	b.WriteString("\n")
	if extra != "" {
		b.WriteString(extra)
		b.WriteString("\n")
	}
	b.WriteString("</body>\n</html>\n")
	return b.String()
}
