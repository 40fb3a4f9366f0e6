package namespace

import "sync"

type entry[T any] struct {
	ns    Namespace
	value T
}

// Registry maps namespaces to values and resolves URLs to the value of the
// matching namespace. It is safe for concurrent use.
//
// URL resolution scans entries in registration order and returns the first
// namespace whose root URL prefixes the URL.
type Registry[T any] struct {
	mu      sync.RWMutex
	entries []entry[T]
	index   map[string]int
}

// NewRegistry returns an empty Registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{index: make(map[string]int)}
}

// Get returns the value registered for ns.
func (r *Registry[T]) Get(ns Namespace) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i, ok := r.index[ns.Name]; ok {
		return r.entries[i].value, true
	}

	var zero T

	return zero, false
}

// Put registers value for ns, replacing any previous value.
func (r *Registry[T]) Put(ns Namespace, value T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.putLocked(ns, value)
}

// Update runs fn under the write lock with the current value for ns. When fn
// returns store=true the returned value is registered. The error from fn is
// returned as is.
func (r *Registry[T]) Update(ns Namespace, fn func(current T, exists bool) (next T, store bool, err error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		current T
		exists  bool
	)

	if i, ok := r.index[ns.Name]; ok {
		current, exists = r.entries[i].value, true
	}

	next, store, err := fn(current, exists)
	if err != nil {
		return err
	}

	if store {
		r.putLocked(ns, next)
	}

	return nil
}

func (r *Registry[T]) putLocked(ns Namespace, value T) {
	if i, ok := r.index[ns.Name]; ok {
		r.entries[i] = entry[T]{ns: ns, value: value}
		return
	}

	r.index[ns.Name] = len(r.entries)
	r.entries = append(r.entries, entry[T]{ns: ns, value: value})
}

// Lookup returns the value of the first registered namespace matching
// rawURL.
func (r *Registry[T]) Lookup(rawURL string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.ns.Matches(rawURL) {
			return e.value, true
		}
	}

	var zero T

	return zero, false
}

// Len returns the number of registered namespaces.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// Clear drops all entries.
func (r *Registry[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
	r.index = make(map[string]int)
}
