package expr

import (
	"fmt"
	"strconv"
)

// parser is a Pratt parser over the lexer's token stream.
type parser struct {
	input string
	lex   *lexer
	tok   token
}

func newParser(input string) (*parser, error) {
	p := &parser{input: input, lex: newLexer(input)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

// Parse parses a complete expression in raw marker syntax.
func Parse(input string) (Node, error) {
	p, err := newParser(input)
	if err != nil {
		return nil, err
	}
	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("unexpected %q after expression", p.tok.lit)
	}
	return n, nil
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) at(op string) bool {
	return p.tok.kind == tokOp && p.tok.lit == op
}

func (p *parser) expect(op string) error {
	if !p.at(op) {
		return p.errorf("expected %q, found %q", op, p.tok.lit)
	}
	return p.advance()
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Src: p.input, Pos: p.tok.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseExpr() (Node, error) {
	return p.parseCond()
}

// parseCond handles the ternary, which binds loosest and associates right.
func (p *parser) parseCond() (Node, error) {
	cond, err := p.parseBinary(precOr)
	if err != nil {
		return nil, err
	}
	if !p.at("?") {
		return cond, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	then, err := p.parseCond()
	if err != nil {
		return nil, err
	}
	if err := p.expect(":"); err != nil {
		return nil, err
	}
	els, err := p.parseCond()
	if err != nil {
		return nil, err
	}
	return &Cond{If: cond, Then: then, Else: els}, nil
}

func isBinaryOp(lit string) bool {
	switch lit {
	case "||", "&&", "==", "!=", "<", "<=", ">", ">=", "+", "-", "*", "/", "%":
		return true
	}
	return false
}

func (p *parser) parseBinary(min int) (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOp && isBinaryOp(p.tok.lit) {
		op := p.tok.lit
		prec := binaryPrec(op)
		if prec < min {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, X: left, Y: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	if p.at("!") || p.at("-") {
		op := p.tok.lit
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		// Fold a negated number so -1 round-trips as a literal.
		if op == "-" {
			if lit, ok := x.(*Literal); ok {
				if f, ok := lit.Value.(float64); ok {
					return &Literal{Value: -f}, nil
				}
			}
		}
		return &Unary{Op: op, X: x}, nil
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary followed by any chain of member accesses,
// index accesses, and calls.
func (p *parser) parsePostfix() (Node, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.at("."):
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.tok.kind != tokIdent {
				return nil, p.errorf("expected property name after '.'")
			}
			x = &Member{X: x, Name: p.tok.lit}
			if err := p.advance(); err != nil {
				return nil, err
			}
		case p.at("["):
			if err := p.advance(); err != nil {
				return nil, err
			}
			key, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			x = &Index{X: x, Key: key}
		case p.at("("):
			if err := p.advance(); err != nil {
				return nil, err
			}
			var args []Node
			for !p.at(")") {
				if len(args) > 0 {
					if err := p.expect(","); err != nil {
						return nil, err
					}
				}
				arg, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			x = &Call{Fn: x, Args: args}
		default:
			return x, nil
		}
	}
}

func (p *parser) parsePrimary() (Node, error) {
	switch p.tok.kind {
	case tokNumber:
		f, err := strconv.ParseFloat(p.tok.lit, 64)
		if err != nil {
			return nil, p.errorf("bad number %q", p.tok.lit)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Literal{Value: f}, nil

	case tokString:
		s := p.tok.lit
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Literal{Value: s}, nil

	case tokPlaceholder:
		name := p.tok.lit
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Placeholder{Name: name}, nil

	case tokIdent:
		name := p.tok.lit
		if err := p.advance(); err != nil {
			return nil, err
		}
		switch name {
		case "true":
			return &Literal{Value: true}, nil
		case "false":
			return &Literal{Value: false}, nil
		case "null":
			return &Literal{Value: nil}, nil
		}
		return &Ident{Name: name}, nil
	}

	if p.at("(") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return x, nil
	}

	if p.tok.kind == tokEOF {
		return nil, p.errorf("unexpected end of expression")
	}
	return nil, p.errorf("unexpected %q", p.tok.lit)
}
