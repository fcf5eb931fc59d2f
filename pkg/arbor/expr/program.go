// Package expr implements the expression language used in template
// attribute values: parsing, placeholder translation, re-serialization,
// and evaluation against a component scope.
//
// A raw value like "$count + 1" parses to a tree holding a Placeholder
// node. Translation rewrites every placeholder into a property access on
// the state identifier, so the tree serializes as "state.count + 1" and
// evaluates by resolving "state" through the scope it is given.
package expr

// StateIdent is the scope root that placeholder references translate to.
const StateIdent = "state"

// ParentIdent is the scope root percentage sizing resolves against.
const ParentIdent = "parent"

// Translate rewrites placeholder references into property accesses on the
// state identifier. All other nodes pass through untouched; in particular
// string literal contents are never rewritten.
func Translate(n Node) Node {
	switch v := n.(type) {
	case *Placeholder:
		return &Member{X: &Ident{Name: StateIdent}, Name: v.Name}
	case *Member:
		return &Member{X: Translate(v.X), Name: v.Name}
	case *Index:
		return &Index{X: Translate(v.X), Key: Translate(v.Key)}
	case *Call:
		args := make([]Node, len(v.Args))
		for i, a := range v.Args {
			args[i] = Translate(a)
		}
		return &Call{Fn: Translate(v.Fn), Args: args}
	case *Unary:
		return &Unary{Op: v.Op, X: Translate(v.X)}
	case *Binary:
		return &Binary{Op: v.Op, X: Translate(v.X), Y: Translate(v.Y)}
	case *Cond:
		return &Cond{If: Translate(v.If), Then: Translate(v.Then), Else: Translate(v.Else)}
	case *Interp:
		parts := make([]Node, len(v.Parts))
		for i, p := range v.Parts {
			parts[i] = Translate(p)
		}
		return &Interp{Parts: parts}
	default:
		return n
	}
}

// Program is a translated, evaluable expression.
type Program struct {
	root Node
	src  string
}

// Compile parses raw marker syntax and translates it.
func Compile(src string) (*Program, error) {
	n, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return &Program{root: Translate(n), src: src}, nil
}

// CompileTemplate parses a value with optional ${...} spans and
// translates it. The program evaluates to a string.
func CompileTemplate(src string) (*Program, error) {
	n, err := ParseTemplate(src)
	if err != nil {
		return nil, err
	}
	return &Program{root: Translate(n), src: src}, nil
}

// FromNode wraps an already-built tree in a program.
func FromNode(n Node) *Program {
	return &Program{root: Translate(n), src: n.Source()}
}

// Root returns the translated tree.
func (p *Program) Root() Node { return p.root }

// Raw returns the original source text the program was compiled from.
func (p *Program) Raw() string { return p.src }

// Source renders the translated tree back to expression syntax.
func (p *Program) Source() string { return p.root.Source() }

// Refs returns the state members the program reads, in first-use order.
// Only the root segment of a path counts: state.user.name depends on
// "user".
func (p *Program) Refs() []string {
	var refs []string
	seen := make(map[string]bool)
	var walk func(Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case *Member:
			if id, ok := v.X.(*Ident); ok && id.Name == StateIdent {
				if !seen[v.Name] {
					seen[v.Name] = true
					refs = append(refs, v.Name)
				}
				return
			}
			walk(v.X)
		case *Index:
			walk(v.X)
			walk(v.Key)
		case *Call:
			walk(v.Fn)
			for _, a := range v.Args {
				walk(a)
			}
		case *Unary:
			walk(v.X)
		case *Binary:
			walk(v.X)
			walk(v.Y)
		case *Cond:
			walk(v.If)
			walk(v.Then)
			walk(v.Else)
		case *Interp:
			for _, part := range v.Parts {
				walk(part)
			}
		}
	}
	walk(p.root)
	return refs
}
