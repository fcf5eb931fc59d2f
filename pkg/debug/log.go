// Package debug fans a single log function out to every package that
// exposes a debug hook. The preview server enables it under --verbose.
package debug

import (
	"github.com/arborui/arbor/pkg/arbor"
	"github.com/arborui/arbor/pkg/arbor/compiler"
	"github.com/arborui/arbor/pkg/arbor/component"
	"github.com/arborui/arbor/pkg/reactive"
)

// LogFunc receives printf-style debug lines.
type LogFunc func(format string, args ...interface{})

// EnableLogging routes compiler, component, reactive, and facade debug
// output through fn. Passing nil disables it again.
func EnableLogging(fn LogFunc) {
	compiler.SetDebugLog(fn)
	component.SetDebugLog(fn)
	reactive.SetDebugLog(fn)
	arbor.SetDebugLog(fn)
}
