package component

import (
	"sort"
	"sync"
)

// Props is a component's live prop bag. Reactive prop effects write into
// it directly, so reads must tolerate concurrent writers.
type Props struct {
	mu   sync.RWMutex
	vals map[string]any
}

// NewProps creates an empty prop bag.
func NewProps() *Props {
	return &Props{vals: make(map[string]any)}
}

// Set stores a prop value.
func (p *Props) Set(name string, v any) {
	p.mu.Lock()
	p.vals[name] = v
	p.mu.Unlock()
}

// Get reads a prop value.
func (p *Props) Get(name string) (any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.vals[name]
	return v, ok
}

// Field satisfies the property protocol expressions resolve through.
func (p *Props) Field(name string) (any, bool) {
	return p.Get(name)
}

// Names returns the prop names in sorted order.
func (p *Props) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.vals))
	for name := range p.vals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of props.
func (p *Props) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.vals)
}
