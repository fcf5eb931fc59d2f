// Package markup parses component markup text into the template tree
// the compiler consumes. The syntax is small: intrinsic tags (node,
// text, slot), component tags (anything else), quoted and bare
// attributes with the compiler's marker prefixes, ${...} interpolation
// in text content, and comments.
package markup

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/arborui/arbor/pkg/arbor/template"
)

// ParseError is a syntax failure located in the source text.
type ParseError struct {
	File string
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Col, e.Msg)
}

// Parse parses a markup document. A document with one root element
// yields that element; several roots are wrapped in a plain element so
// the result is always a single tree.
func Parse(name, src string) (*template.Node, error) {
	p := &parser{input: src, line: 1, col: 1, filename: name}
	nodes, err := p.parseNodes()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if p.pos < len(p.input) {
		return nil, p.errorf("unexpected %q", rune(p.input[p.pos]))
	}
	switch len(nodes) {
	case 0:
		return nil, p.errorf("empty document")
	case 1:
		return nodes[0], nil
	default:
		return template.Element(nil, nodes...), nil
	}
}

// parser is a recursive descent parser over the raw source.
type parser struct {
	input    string
	pos      int
	line     int
	col      int
	filename string
}

// parseNodes parses siblings until a closing tag or end of input.
func (p *parser) parseNodes() ([]*template.Node, error) {
	var nodes []*template.Node

	for p.pos < len(p.input) {
		if p.peek("</") {
			break
		}
		if p.peek("<!--") {
			if err := p.skipComment(); err != nil {
				return nil, err
			}
			continue
		}
		if p.peek("<") {
			node, err := p.parseElement()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
			continue
		}
		if node := p.parseText(); node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes, nil
}

// parseElement parses one tag, its attributes, and its children.
func (p *parser) parseElement() (*template.Node, error) {
	if !p.consume("<") {
		return nil, p.errorf("expected '<'")
	}

	tag := p.parseTagName()
	if tag == "" {
		return nil, p.errorf("expected tag name")
	}

	attrs, err := p.parseAttributes()
	if err != nil {
		return nil, err
	}

	p.skipWhitespace()
	if p.consume("/>") {
		return template.New(tag, attrs), nil
	}
	if !p.consume(">") {
		return nil, p.errorf("expected '>' to close <%s>", tag)
	}

	children, err := p.parseNodes()
	if err != nil {
		return nil, err
	}

	if !p.consume("</") {
		return nil, p.errorf("missing closing tag for <%s>", tag)
	}
	closing := p.parseTagName()
	if closing != tag {
		return nil, p.errorf("mismatched tags: <%s> and </%s>", tag, closing)
	}
	p.skipWhitespace()
	if !p.consume(">") {
		return nil, p.errorf("expected '>' after </%s", closing)
	}

	return template.New(tag, attrs, children...), nil
}

// parseAttributes parses the attribute list up to '>' or '/>'. Names
// keep their marker prefixes; a bare name is the boolean shorthand.
func (p *parser) parseAttributes() (template.Attrs, error) {
	var attrs template.Attrs

	for {
		p.skipWhitespace()
		if p.peek(">") || p.peek("/>") || p.pos >= len(p.input) {
			return attrs, nil
		}

		name := p.parseAttributeName()
		if name == "" {
			return nil, p.errorf("expected attribute name")
		}

		p.skipWhitespace()
		if !p.consume("=") {
			attrs = append(attrs, template.Attr{Name: name, Value: "true"})
			continue
		}
		p.skipWhitespace()

		if !p.consume(`"`) {
			return nil, p.errorf("attribute %q: expected quoted value", name)
		}
		value := p.parseUntil(`"`)
		if !p.consume(`"`) {
			return nil, p.errorf("attribute %q: unterminated value", name)
		}
		attrs = append(attrs, template.Attr{Name: name, Value: value})
	}
}

// parseText consumes plain text up to the next tag. Whitespace-only
// runs between tags disappear; interior whitespace stays. The content
// lands in a text node verbatim, ${...} spans included, so the compiler
// decides whether it is static or a binding.
func (p *parser) parseText() *template.Node {
	start := p.pos
	for p.pos < len(p.input) && !p.peek("<") {
		p.advance()
	}
	content := p.input[start:p.pos]
	if strings.TrimSpace(content) == "" {
		return nil
	}
	return template.Text(strings.TrimSpace(content))
}

func (p *parser) skipComment() error {
	p.consume("<!--")
	for p.pos < len(p.input) {
		if p.consume("-->") {
			return nil
		}
		p.advance()
	}
	return p.errorf("unterminated comment")
}

// Helper methods.

func (p *parser) peek(s string) bool {
	if p.pos+len(s) > len(p.input) {
		return false
	}
	return p.input[p.pos:p.pos+len(s)] == s
}

func (p *parser) consume(s string) bool {
	if !p.peek(s) {
		return false
	}
	for i := 0; i < len(s); i++ {
		p.advance()
	}
	return true
}

func (p *parser) advance() {
	if p.pos < len(p.input) {
		if p.input[p.pos] == '\n' {
			p.line++
			p.col = 1
		} else {
			p.col++
		}
		p.pos++
	}
}

func (p *parser) skipWhitespace() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.advance()
	}
}

func (p *parser) parseUntil(delimiter string) string {
	start := p.pos
	for p.pos < len(p.input) && !p.peek(delimiter) {
		p.advance()
	}
	return p.input[start:p.pos]
}

func (p *parser) parseTagName() string {
	start := p.pos
	for p.pos < len(p.input) {
		ch := rune(p.input[p.pos])
		if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != '_' {
			break
		}
		p.advance()
	}
	return p.input[start:p.pos]
}

// parseAttributeName accepts the marker prefixes and dashed or
// irregularly cased names, which pass through to the tree untouched.
func (p *parser) parseAttributeName() string {
	start := p.pos
	if p.pos < len(p.input) {
		if ch := p.input[p.pos]; ch == ':' || ch == '@' {
			p.advance()
		}
	}
	for p.pos < len(p.input) {
		ch := rune(p.input[p.pos])
		if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != '_' && ch != '-' {
			break
		}
		p.advance()
	}
	return p.input[start:p.pos]
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &ParseError{
		File: p.filename,
		Line: p.line,
		Col:  p.col,
		Msg:  fmt.Sprintf(format, args...),
	}
}
