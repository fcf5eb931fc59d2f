// Package arbor ties the framework together: parse markup, compile it,
// register components, and mount the result against a scene backend
// under a reactive store. The CLI and most embedders only need this
// surface; the subpackages stay available for finer control.
package arbor

import (
	"fmt"

	"github.com/arborui/arbor/pkg/arbor/compiler"
	"github.com/arborui/arbor/pkg/arbor/component"
	"github.com/arborui/arbor/pkg/arbor/scene"
	"github.com/arborui/arbor/pkg/markup"
	"github.com/arborui/arbor/pkg/reactive"
)

// Version is the framework version.
const Version = "0.1.0"

// App is a backend plus a component registry: everything needed to turn
// markup into live trees.
type App struct {
	Backend    scene.Creator
	Components *component.Registry
}

// New creates an app over a scene backend.
func New(backend scene.Creator) *App {
	return &App{
		Backend:    backend,
		Components: component.NewRegistry(),
	}
}

// Compile parses markup and compiles it against the app's registry.
// The returned program is bound to the app's backend.
func (a *App) Compile(name, src string) (*compiler.Program, error) {
	tree, err := markup.Parse(name, src)
	if err != nil {
		return nil, err
	}
	prog, err := compiler.Compile(tree, a.Components)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	prog.Context.Backend = a.Backend
	return prog, nil
}

// Define compiles markup into a component factory and registers it.
// The declared prop names route call-site attributes into the prop bag
// instead of the wrapper node.
func (a *App) Define(name, src string, props ...string) error {
	return DefineComponent(a.Components, a.Backend, name, src, props...)
}

// Mount compiles markup and mounts it under parent, driven by store.
// The store may already hold initial state; a nil store gets created
// empty.
func (a *App) Mount(name, src string, parent scene.Node, store *reactive.Store) (*reactive.Runtime, error) {
	prog, err := a.Compile(name, src)
	if err != nil {
		return nil, err
	}
	if store == nil {
		store = reactive.NewStore()
	}
	rt := reactive.Bind(prog, component.New(name), store)
	if err := rt.Mount(parent); err != nil {
		return nil, err
	}
	return rt, nil
}

// DefineComponent compiles markup into a factory and registers it in
// reg. Compilation happens once; each factory invocation constructs the
// component's template into the fresh instance's own mount container,
// so instances never share nodes.
func DefineComponent(reg *component.Registry, backend scene.Creator, name, src string, props ...string) error {
	tree, err := markup.Parse(name, src)
	if err != nil {
		return err
	}
	prog, err := compiler.Compile(tree, reg)
	if err != nil {
		return fmt.Errorf("component %s: %w", name, err)
	}
	prog.Context.Backend = backend

	factory := func(bag *component.Props, wrapper scene.Node, owner *component.Instance) *component.Instance {
		inst := component.New(name)
		inst.AdoptProps(bag)
		m := prog.Construct(wrapper, inst, prog.Context)
		run := func() {
			for i, eff := range prog.Effects {
				if err := eff(inst, m, prog.Context); err != nil {
					logFactoryError(name, i, err)
				}
			}
		}
		run()
		// Later prop writes land in the live bag; the refresh hook
		// pushes them through the instance's own template.
		inst.SetRefresh(run)
		return inst
	}
	reg.Register(name, component.Entry{Factory: factory, Props: props})
	return nil
}

var factoryErrLog func(format string, args ...interface{})

// SetDebugLog sets a debug logging function (used by the dev server).
func SetDebugLog(fn func(format string, args ...interface{})) {
	factoryErrLog = fn
}

func logFactoryError(name string, effect int, err error) {
	if factoryErrLog != nil {
		factoryErrLog("component %s: effect %d: %v", name, effect, err)
	}
}
