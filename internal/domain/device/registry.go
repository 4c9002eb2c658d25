package device

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is the table of live devices keyed by device number.
type Registry struct {
	mu   sync.RWMutex
	devs map[Dev]*Device
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{devs: make(map[Dev]*Device)}
}

// Add makes d reachable under its device number.
func (r *Registry) Add(d *Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devs[d.Dev()]; exists {
		return fmt.Errorf("%w: %s", ErrDeviceExists, d.Dev())
	}
	r.devs[d.Dev()] = d
	return nil
}

// Del removes the device registered under dev.
func (r *Registry) Del(dev Dev) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devs[dev]; !exists {
		return fmt.Errorf("%w: %s", ErrNotRegistered, dev)
	}
	delete(r.devs, dev)
	return nil
}

// Lookup finds the device registered under dev.
func (r *Registry) Lookup(dev Dev) (*Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devs[dev]
	return d, ok
}

// List returns all registered devices ordered by device number.
func (r *Registry) List() []*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Device, 0, len(r.devs))
	for _, d := range r.devs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Dev() < out[j].Dev() })
	return out
}
