package expr

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokPlaceholder // $name
	tokOp          // operator or punctuation, spelling in lit
)

type token struct {
	kind tokenKind
	lit  string
	pos  int
}

// lexer scans a single expression. Expressions are one attribute value
// long, so positions are byte offsets rather than line and column pairs.
type lexer struct {
	input string
	pos   int
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

func (l *lexer) errorf(pos int, msg string) error {
	return &SyntaxError{Src: l.input, Pos: pos, Msg: msg}
}

// next returns the next token, skipping whitespace.
func (l *lexer) next() (token, error) {
	l.skipWhitespace()
	start := l.pos
	if l.pos >= len(l.input) {
		return token{kind: tokEOF, pos: start}, nil
	}

	c := l.input[l.pos]
	switch {
	case c >= '0' && c <= '9':
		return l.scanNumber()
	case c == '\'' || c == '"':
		return l.scanString(rune(c))
	case c == '$':
		l.pos++
		name := l.scanIdentifier()
		if name == "" {
			return token{}, l.errorf(start, "expected identifier after $")
		}
		return token{kind: tokPlaceholder, lit: name, pos: start}, nil
	case isIdentStart(rune(c)):
		return token{kind: tokIdent, lit: l.scanIdentifier(), pos: start}, nil
	}

	// Two-character operators first.
	if l.pos+1 < len(l.input) {
		two := l.input[l.pos : l.pos+2]
		switch two {
		case "==", "!=", "<=", ">=", "&&", "||":
			l.pos += 2
			return token{kind: tokOp, lit: two, pos: start}, nil
		}
	}

	switch c {
	case '+', '-', '*', '/', '%', '<', '>', '!', '?', ':', '.', ',', '(', ')', '[', ']':
		l.pos++
		return token{kind: tokOp, lit: string(c), pos: start}, nil
	}

	return token{}, l.errorf(start, "unexpected character "+string(c))
}

func (l *lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			break
		}
		l.pos++
	}
}

func (l *lexer) scanNumber() (token, error) {
	start := l.pos
	for l.pos < len(l.input) && l.input[l.pos] >= '0' && l.input[l.pos] <= '9' {
		l.pos++
	}
	if l.pos < len(l.input) && l.input[l.pos] == '.' &&
		l.pos+1 < len(l.input) && l.input[l.pos+1] >= '0' && l.input[l.pos+1] <= '9' {
		l.pos++
		for l.pos < len(l.input) && l.input[l.pos] >= '0' && l.input[l.pos] <= '9' {
			l.pos++
		}
	}
	return token{kind: tokNumber, lit: l.input[start:l.pos], pos: start}, nil
}

// scanString consumes a quoted literal. Both quote styles are accepted
// since expressions usually live inside double-quoted attribute values.
func (l *lexer) scanString(quote rune) (token, error) {
	start := l.pos
	l.pos++ // opening quote
	var b strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if rune(c) == quote {
			l.pos++
			return token{kind: tokString, lit: b.String(), pos: start}, nil
		}
		if c == '\\' {
			if l.pos+1 >= len(l.input) {
				break
			}
			l.pos++
			switch e := l.input[l.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(e)
			}
			l.pos++
			continue
		}
		b.WriteByte(c)
		l.pos++
	}
	return token{}, l.errorf(start, "unterminated string")
}

func (l *lexer) scanIdentifier() string {
	start := l.pos
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !isIdentPart(r) {
			break
		}
		l.pos += size
	}
	return l.input[start:l.pos]
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
