// Package components ships the built-in component library. Each
// component is defined in the same markup end users write, so the
// library doubles as a reference for the component contract: declared
// props route into the prop bag, everything else lands on the wrapper
// node, and slots mark where caller content mounts.
package components

import (
	"github.com/arborui/arbor/pkg/arbor"
	"github.com/arborui/arbor/pkg/arbor/component"
	"github.com/arborui/arbor/pkg/arbor/scene"
)

// builtin pairs a component definition with its declared props.
type builtin struct {
	name  string
	src   string
	props []string
}

var builtins = []builtin{
	{"Badge", badgeSource, []string{"label", "tone"}},
	{"Card", cardSource, []string{"title"}},
	{"Progress", progressSource, []string{"value", "max"}},
}

// Register defines every built-in component in reg against backend.
func Register(reg *component.Registry, backend scene.Creator) error {
	for _, b := range builtins {
		if err := arbor.DefineComponent(reg, backend, b.name, b.src, b.props...); err != nil {
			return err
		}
	}
	return nil
}

// Names lists the built-in component names in registration order.
func Names() []string {
	out := make([]string, len(builtins))
	for i, b := range builtins {
		out[i] = b.name
	}
	return out
}
