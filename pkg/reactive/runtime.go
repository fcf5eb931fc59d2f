package reactive

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/arborui/arbor/pkg/arbor/compiler"
	"github.com/arborui/arbor/pkg/arbor/component"
	"github.com/arborui/arbor/pkg/arbor/scene"
)

// ErrorHandler decides what happens when an effect fails or panics.
// Returning true keeps the runner alive; false stops the flush.
type ErrorHandler func(effect int, err error) bool

// Runtime drives one compiled program against one owning instance. It
// maps store names to the effects that read them, keeps a dirty set,
// and flushes it in effect-list order, which is traversal order.
type Runtime struct {
	mu      sync.Mutex
	prog    *compiler.Program
	owner   *component.Instance
	store   *Store
	byDep   map[string][]int
	dirty   map[int]bool
	mounted bool
	onError ErrorHandler
}

// Bind wires a program, its owning instance, and a store together. The
// store becomes the instance's state source: every write is mirrored
// into the instance before dependent effects run.
func Bind(prog *compiler.Program, owner *component.Instance, store *Store) *Runtime {
	r := &Runtime{
		prog:  prog,
		owner: owner,
		store: store,
		byDep: make(map[string][]int),
		dirty: make(map[int]bool),
	}
	for i, deps := range prog.Deps {
		for _, name := range deps {
			r.byDep[name] = append(r.byDep[name], i)
		}
	}
	store.Subscribe(r.onChange)
	return r
}

// SetErrorHandler installs the failure policy. The default logs and
// keeps going.
func (r *Runtime) SetErrorHandler(h ErrorHandler) {
	r.mu.Lock()
	r.onError = h
	r.mu.Unlock()
}

// Owner returns the bound instance.
func (r *Runtime) Owner() *component.Instance { return r.owner }

// Mount constructs the program under parent and runs every effect once,
// in order. Mounting twice re-runs the guards, not the construction.
func (r *Runtime) Mount(parent scene.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, v := range r.store.All() {
		r.owner.SetState(name, v)
	}
	r.prog.Construct(parent, r.owner, r.prog.Context)
	r.mounted = true

	for i := range r.prog.Effects {
		r.dirty[i] = true
	}
	return r.flushLocked()
}

// Flush runs the dirty effects now. It is a no-op before Mount and when
// nothing is dirty.
func (r *Runtime) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked()
}

// onChange mirrors changed names into the instance, marks dependents
// dirty, and flushes.
func (r *Runtime) onChange(changed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range changed {
		if v, ok := r.store.Get(name); ok {
			r.owner.SetState(name, v)
		}
		for _, i := range r.byDep[name] {
			r.dirty[i] = true
		}
		logf("store %q changed, %d dependent effects", name, len(r.byDep[name]))
	}
	if err := r.flushLocked(); err != nil {
		logf("flush: %v", err)
	}
}

func (r *Runtime) flushLocked() error {
	if !r.mounted || len(r.dirty) == 0 {
		return nil
	}
	order := make([]int, 0, len(r.dirty))
	for i := range r.dirty {
		order = append(order, i)
	}
	sort.Ints(order)
	r.dirty = make(map[int]bool)

	m := r.owner.Mounts()
	for _, i := range order {
		err := r.runEffect(i, m)
		if err == nil {
			continue
		}
		if !r.handle(i, err) {
			return err
		}
	}
	return nil
}

// runEffect invokes one effect, converting a panic into an error so a
// bad effect cannot take the runner down.
func (r *Runtime) runEffect(i int, m *component.Mounts) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("effect %d panicked: %v", i, rec)
		}
	}()
	return r.prog.Effects[i](r.owner, m, r.prog.Context)
}

func (r *Runtime) handle(i int, err error) bool {
	if r.onError != nil {
		return r.onError(i, err)
	}
	log.Printf("reactive: effect %d: %v", i, err)
	return true
}
