package template

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Kind is the closed variant a node's type tag resolves to. The tag itself
// stays a string (the parser produces it and never changes it afterwards);
// the compiler resolves it to a Kind exactly once per node.
type Kind uint8

const (
	// KindElement is a generic primitive element ("node")
	KindElement Kind = iota
	// KindText is a text node ("text")
	KindText
	// KindSlot is a slot placeholder ("slot")
	KindSlot
	// KindComponent is any other tag: a reference to a registered component
	KindComponent
)

// Intrinsic type tags. Every other tag names a component.
const (
	TagElement = "node"
	TagText    = "text"
	TagSlot    = "slot"
)

// KindOf resolves a type tag to its variant.
func KindOf(tag string) Kind {
	switch tag {
	case TagElement:
		return KindElement
	case TagText:
		return KindText
	case TagSlot:
		return KindSlot
	default:
		return KindComponent
	}
}

// String returns the tag spelling for intrinsic kinds.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return TagElement
	case KindText:
		return TagText
	case KindSlot:
		return TagSlot
	default:
		return "component"
	}
}

// Attr is a single attribute occurrence: raw name (markers included) and raw
// string value, exactly as parsed.
type Attr struct {
	Name  string
	Value string
}

// Attrs preserves attribute order. Effect emission order depends on it, so
// attributes are never stored in a map.
type Attrs []Attr

// Node is one element of the compiler's input tree.
// The type tag and child order are immutable once produced by the parser.
type Node struct {
	// Type is the node's type tag: "node", "text", "slot", or a component name.
	Type string

	// Attrs is the ordered attribute list.
	Attrs Attrs

	// Children holds child nodes in source order.
	Children []*Node
}

// New creates a node with the given type tag and attributes.
func New(typeTag string, attrs Attrs, children ...*Node) *Node {
	return &Node{Type: typeTag, Attrs: attrs, Children: children}
}

// Element creates a generic primitive element node.
func Element(attrs Attrs, children ...*Node) *Node {
	return New(TagElement, attrs, children...)
}

// Text creates a text node carrying static content.
func Text(content string) *Node {
	return New(TagText, Attrs{{Name: "text", Value: content}})
}

// Slot creates a slot placeholder. An empty name declares the default slot.
func Slot(name string, children ...*Node) *Node {
	var attrs Attrs
	if name != "" {
		attrs = Attrs{{Name: "name", Value: name}}
	}
	return New(TagSlot, attrs, children...)
}

// Kind resolves the node's type tag.
func (n *Node) Kind() Kind {
	return KindOf(n.Type)
}

// Attr returns the raw value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// HasAttr reports whether the named attribute is present.
func (n *Node) HasAttr(name string) bool {
	_, ok := n.Attr(name)
	return ok
}

// Append adds children in order and returns the node for chaining.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Count returns the number of nodes in the subtree rooted at n, including n.
func (n *Node) Count() int {
	c := 1
	for _, child := range n.Children {
		c += child.Count()
	}
	return c
}

// Walk visits n and its descendants depth-first, pre-order, in child order.
// Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Fingerprint returns a stable content hash of the subtree. Two trees with
// identical shape, tags, attribute order and values hash to the same value;
// the CLI build cache keys compiled artifacts by it.
func Fingerprint(n *Node) string {
	h := sha256.New()
	writeCanonical(h, n, 0)
	return hex.EncodeToString(h.Sum(nil))
}

func writeCanonical(w interface{ Write([]byte) (int, error) }, n *Node, depth int) {
	fmt.Fprintf(w, "%d<%s", depth, n.Type)
	for _, a := range n.Attrs {
		fmt.Fprintf(w, "|%s=%s", a.Name, a.Value)
	}
	fmt.Fprint(w, ">")
	for _, child := range n.Children {
		writeCanonical(w, child, depth+1)
	}
}

// Sketch renders an indented one-line-per-node outline of the tree, used by
// the CLI report output.
func Sketch(n *Node) string {
	var b strings.Builder
	sketchInto(&b, n, 0)
	return b.String()
}

func sketchInto(b *strings.Builder, n *Node, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.Type)
	for _, a := range n.Attrs {
		fmt.Fprintf(b, " %s=%q", a.Name, a.Value)
	}
	b.WriteString("\n")
	for _, child := range n.Children {
		sketchInto(b, child, depth+1)
	}
}
