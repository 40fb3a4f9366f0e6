package namespace

import (
	"fmt"
	"slices"
)

// Set is an immutable, ordered catalog of namespaces.
type Set struct {
	items []Namespace
}

// NewSet builds a Set from the given namespaces. Every namespace must be
// valid and names must be unique.
func NewSet(items ...Namespace) (*Set, error) {
	seen := make(map[string]struct{}, len(items))

	for _, ns := range items {
		if err := ns.Validate(); err != nil {
			return nil, err
		}

		if _, ok := seen[ns.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNamespace, ns.Name)
		}

		seen[ns.Name] = struct{}{}
	}

	return &Set{items: slices.Clone(items)}, nil
}

// MustSet is like NewSet but panics on error.
func MustSet(items ...Namespace) *Set {
	s, err := NewSet(items...)
	if err != nil {
		panic(err)
	}

	return s
}

// Default returns the built-in COP namespaces.
func Default() *Set {
	return MustSet(PublicPP, PublicProd, InternalPP, InternalProd)
}

// With returns a new Set holding the receiver's namespaces followed by
// extra.
func (s *Set) With(extra ...Namespace) (*Set, error) {
	return NewSet(append(s.All(), extra...)...)
}

// All returns a copy of the namespaces in registration order.
func (s *Set) All() []Namespace {
	if s == nil {
		return nil
	}

	return slices.Clone(s.items)
}

// Len returns the number of namespaces.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}

	return len(s.items)
}

// Lookup returns the namespace with the given name.
func (s *Set) Lookup(name string) (Namespace, bool) {
	if s == nil {
		return Namespace{}, false
	}

	for _, ns := range s.items {
		if ns.Name == name {
			return ns, true
		}
	}

	return Namespace{}, false
}

// Match returns the first namespace, in registration order, whose root URL
// is a case-insensitive prefix of rawURL.
func (s *Set) Match(rawURL string) (Namespace, bool) {
	if s == nil {
		return Namespace{}, false
	}

	for _, ns := range s.items {
		if ns.Matches(rawURL) {
			return ns, true
		}
	}

	return Namespace{}, false
}

// Contains reports whether rawURL belongs to any namespace of the set.
func (s *Set) Contains(rawURL string) bool {
	_, ok := s.Match(rawURL)
	return ok
}
