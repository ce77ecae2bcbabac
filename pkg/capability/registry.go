package capability

import "sync"

// Entry pairs a descriptor with its handler.
type Entry struct {
	Descriptor *Descriptor
	Handler    Handler
}

// Registry maps capability names to their descriptors and handlers.
// Registration happens during startup; after that the registry is
// read-only, but access is still guarded for concurrent dispatch.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string
}

// NewRegistry creates an empty capability registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
	}
}

// Register adds a capability under its descriptor name. A nil descriptor
// or handler and a duplicate name are rejected, leaving the registry
// unchanged.
func (r *Registry) Register(desc *Descriptor, handler Handler) error {
	if desc == nil || desc.Name == "" {
		return &DescriptorError{Reason: "capability name must not be empty"}
	}
	if handler == nil {
		return &DescriptorError{Name: desc.Name, Reason: "handler must not be nil"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[desc.Name]; exists {
		return &DuplicateError{Name: desc.Name}
	}

	r.entries[desc.Name] = &Entry{Descriptor: desc, Handler: handler}
	r.order = append(r.order, desc.Name)
	return nil
}

// Resolve returns the entry registered under name, or NotFoundError.
func (r *Registry) Resolve(name string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return entry, nil
}

// List returns all registered descriptors in registration order.
func (r *Registry) List() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]*Descriptor, 0, len(r.order))
	for _, name := range r.order {
		descriptors = append(descriptors, r.entries[name].Descriptor)
	}
	return descriptors
}

// Count returns the number of registered capabilities.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
