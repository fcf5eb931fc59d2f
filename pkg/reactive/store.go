// Package reactive is the host runtime compiled programs re-run under.
// A Store holds one component's reactive state by name; a Runtime binds
// a compiled program to a store and re-invokes the effects whose
// dependencies changed, in effect-list order. Execution is cooperative:
// one flush runs to completion before the next starts.
package reactive

import "sync"

// debugLog is set by the host when it wants store/runtime tracing.
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

// Store is string-keyed reactive state. Writes notify subscribers with
// the set of changed names; Batch coalesces any number of writes into
// one notification.
type Store struct {
	mu       sync.Mutex
	vals     map[string]any
	subs     []func(changed []string)
	batching int
	pending  []string
	queued   map[string]bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		vals:   make(map[string]any),
		queued: make(map[string]bool),
	}
}

// Get reads a value.
func (s *Store) Get(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vals[name]
	return v, ok
}

// All returns a copy of the current state.
func (s *Store) All() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.vals))
	for k, v := range s.vals {
		out[k] = v
	}
	return out
}

// Set writes a value and notifies subscribers, or queues the name when
// a batch is open.
func (s *Store) Set(name string, v any) {
	s.mu.Lock()
	s.vals[name] = v
	subs, changed := s.noteLocked(name)
	s.mu.Unlock()
	notify(subs, changed)
}

// Update atomically reads, modifies, and writes a value.
func (s *Store) Update(name string, fn func(any) any) {
	s.mu.Lock()
	s.vals[name] = fn(s.vals[name])
	subs, changed := s.noteLocked(name)
	s.mu.Unlock()
	notify(subs, changed)
}

// Batch runs fn with notification deferred: however many names fn
// writes, subscribers hear about all of them exactly once, after fn
// returns. Batches nest.
func (s *Store) Batch(fn func()) {
	s.mu.Lock()
	s.batching++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.batching--
		var subs []func([]string)
		var changed []string
		if s.batching == 0 && len(s.pending) > 0 {
			changed = s.pending
			s.pending = nil
			s.queued = make(map[string]bool)
			subs = s.subs
		}
		s.mu.Unlock()
		notify(subs, changed)
	}()

	fn()
}

// Subscribe registers a change listener. Listeners run on the writing
// goroutine, after the store's own lock is released.
func (s *Store) Subscribe(fn func(changed []string)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// noteLocked records one changed name and returns what to notify, which
// is nothing while a batch is open.
func (s *Store) noteLocked(name string) ([]func([]string), []string) {
	if s.batching > 0 {
		if !s.queued[name] {
			s.queued[name] = true
			s.pending = append(s.pending, name)
		}
		return nil, nil
	}
	return s.subs, []string{name}
}

func notify(subs []func([]string), changed []string) {
	if len(changed) == 0 {
		return
	}
	for _, fn := range subs {
		fn(changed)
	}
}
