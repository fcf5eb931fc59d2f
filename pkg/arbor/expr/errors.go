package expr

import "fmt"

// SyntaxError reports a malformed expression. Pos is a byte offset into Src.
type SyntaxError struct {
	Src string
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("expr: %s at offset %d in %q", e.Msg, e.Pos, e.Src)
}

// EvalError reports a failure while evaluating a compiled expression.
type EvalError struct {
	Expr  string
	Msg   string
	Cause error
}

func (e *EvalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("expr: eval %q: %s: %v", e.Expr, e.Msg, e.Cause)
	}
	return fmt.Sprintf("expr: eval %q: %s", e.Expr, e.Msg)
}

func (e *EvalError) Unwrap() error {
	return e.Cause
}
