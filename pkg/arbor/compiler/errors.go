package compiler

import "fmt"

// Error is a compilation failure, located by the path of type tags from
// the template root to the offending node.
type Error struct {
	Path  string
	Attr  string
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	s := "compile: " + e.Path
	if e.Attr != "" {
		s += fmt.Sprintf(": attr %q", e.Attr)
	}
	s += ": " + e.Msg
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Cause
}

var debugLog func(format string, args ...interface{})

// SetDebugLog sets a debug logging function (used by the dev server).
func SetDebugLog(fn func(format string, args ...interface{})) {
	debugLog = fn
}

func logf(format string, args ...interface{}) {
	if debugLog != nil {
		debugLog(format, args...)
	}
}
