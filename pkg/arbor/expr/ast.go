package expr

import (
	"strconv"
	"strings"
)

// Node is one vertex of a parsed expression tree.
type Node interface {
	// Source renders the node back to expression syntax.
	Source() string
}

// Literal is a constant: float64, string, bool, or nil.
type Literal struct {
	Value any
}

// Placeholder is a not-yet-translated state reference ($name).
type Placeholder struct {
	Name string
}

// Ident is a bare identifier. After translation the only idents a program
// normally contains are scope roots such as the state object or the parent
// extent view.
type Ident struct {
	Name string
}

// Member is a property access (x.name).
type Member struct {
	X    Node
	Name string
}

// Index is a computed access (x[key]).
type Index struct {
	X   Node
	Key Node
}

// Call invokes a function or method value.
type Call struct {
	Fn   Node
	Args []Node
}

// Unary is a prefix operation: ! or -.
type Unary struct {
	Op string
	X  Node
}

// Binary is an infix operation.
type Binary struct {
	Op   string
	X, Y Node
}

// Cond is a ternary conditional.
type Cond struct {
	If, Then, Else Node
}

// Interp is a string template: literal chunks interleaved with embedded
// expressions. It evaluates to the concatenation of all stringified parts.
type Interp struct {
	Parts []Node
}

func (n *Literal) Source() string {
	switch v := n.Value.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return quote(v)
	default:
		return quote(Format(v))
	}
}

func (n *Placeholder) Source() string { return "$" + n.Name }

func (n *Ident) Source() string { return n.Name }

func (n *Member) Source() string { return wrap(n.X, precPrimary) + "." + n.Name }

func (n *Index) Source() string { return wrap(n.X, precPrimary) + "[" + n.Key.Source() + "]" }

func (n *Call) Source() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.Source()
	}
	return wrap(n.Fn, precPrimary) + "(" + strings.Join(args, ", ") + ")"
}

func (n *Unary) Source() string { return n.Op + wrap(n.X, precUnary) }

func (n *Binary) Source() string {
	p := binaryPrec(n.Op)
	// Left-associative: the right operand needs parens at equal precedence.
	return wrap(n.X, p) + " " + n.Op + " " + wrap(n.Y, p+1)
}

func (n *Cond) Source() string {
	return wrap(n.If, precCond+1) + " ? " + n.Then.Source() + " : " + n.Else.Source()
}

func (n *Interp) Source() string {
	parts := make([]string, len(n.Parts))
	for i, p := range n.Parts {
		if lit, ok := p.(*Literal); ok {
			if _, isStr := lit.Value.(string); isStr {
				parts[i] = lit.Source()
				continue
			}
		}
		parts[i] = "(" + p.Source() + ")"
	}
	return strings.Join(parts, " + ")
}

// Operator precedence, lowest first.
const (
	precCond    = 0
	precOr      = 1
	precAnd     = 2
	precEq      = 3
	precRel     = 4
	precAdd     = 5
	precMul     = 6
	precUnary   = 7
	precPrimary = 8
)

func binaryPrec(op string) int {
	switch op {
	case "||":
		return precOr
	case "&&":
		return precAnd
	case "==", "!=":
		return precEq
	case "<", "<=", ">", ">=":
		return precRel
	case "+", "-":
		return precAdd
	case "*", "/", "%":
		return precMul
	}
	return precPrimary
}

func nodePrec(n Node) int {
	switch v := n.(type) {
	case *Cond:
		return precCond
	case *Binary:
		return binaryPrec(v.Op)
	case *Unary:
		return precUnary
	default:
		return precPrimary
	}
}

// wrap parenthesizes a child whose precedence is too low for its context.
func wrap(n Node, min int) string {
	if nodePrec(n) < min {
		return "(" + n.Source() + ")"
	}
	return n.Source()
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			b.WriteString(`\'`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
