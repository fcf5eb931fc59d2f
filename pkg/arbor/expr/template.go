package expr

import "strings"

// ParseTemplate parses an attribute value that may contain ${...}
// interpolation spans. A value with no spans parses to a plain string
// literal; otherwise the result is an Interp whose parts alternate
// between literal chunks and embedded expressions. Placeholders inside
// quoted strings within a span are left to the expression parser, and a
// literal dollar sign can be written as \$.
func ParseTemplate(input string) (Node, error) {
	var parts []Node
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			parts = append(parts, &Literal{Value: lit.String()})
			lit.Reset()
		}
	}

	i := 0
	for i < len(input) {
		c := input[i]
		if c == '\\' && i+1 < len(input) && input[i+1] == '$' {
			lit.WriteByte('$')
			i += 2
			continue
		}
		if c == '$' && i+1 < len(input) && input[i+1] == '{' {
			src, end, err := templateSpan(input, i+2)
			if err != nil {
				return nil, err
			}
			inner, err := Parse(src)
			if err != nil {
				// Rebase the inner offset onto the full value.
				if se, ok := err.(*SyntaxError); ok {
					return nil, &SyntaxError{Src: input, Pos: i + 2 + se.Pos, Msg: se.Msg}
				}
				return nil, err
			}
			flush()
			parts = append(parts, inner)
			i = end
			continue
		}
		lit.WriteByte(c)
		i++
	}
	flush()

	if len(parts) == 0 {
		return &Literal{Value: ""}, nil
	}
	if len(parts) == 1 {
		if l, ok := parts[0].(*Literal); ok {
			if _, isStr := l.Value.(string); isStr {
				return l, nil
			}
		}
	}
	return &Interp{Parts: parts}, nil
}

// HasInterp reports whether a raw value contains an unescaped ${...} span.
func HasInterp(input string) bool {
	for i := 0; i+1 < len(input); i++ {
		if input[i] == '\\' && input[i+1] == '$' {
			i++
			continue
		}
		if input[i] == '$' && input[i+1] == '{' {
			return true
		}
	}
	return false
}

// templateSpan finds the expression between ${ and its matching close
// brace, starting just past the opening brace. Braces inside quoted
// strings do not count.
func templateSpan(input string, from int) (string, int, error) {
	depth := 1
	i := from
	for i < len(input) {
		c := input[i]
		switch c {
		case '\'', '"':
			j, ok := skipQuoted(input, i)
			if !ok {
				return "", 0, &SyntaxError{Src: input, Pos: i, Msg: "unterminated string in interpolation"}
			}
			i = j
			continue
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return input[from:i], i + 1, nil
			}
		}
		i++
	}
	return "", 0, &SyntaxError{Src: input, Pos: from - 2, Msg: "unterminated ${ interpolation"}
}

// skipQuoted returns the index just past a quoted literal beginning at i.
func skipQuoted(input string, i int) (int, bool) {
	quote := input[i]
	i++
	for i < len(input) {
		if input[i] == '\\' {
			i += 2
			continue
		}
		if input[i] == quote {
			return i + 1, true
		}
		i++
	}
	return 0, false
}
