package parcel

import "github.com/cockroachdb/errors"

// Resolver supplies values for struct fields marked with an inject tag.
// It is consulted only during decoding and only for marked fields.
//
// Implementations must be safe for concurrent use when the Serializer is
// shared across goroutines.
type Resolver interface {
	Resolve(name string) (any, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(name string) (any, error)

// Resolve calls f(name).
func (f ResolverFunc) Resolve(name string) (any, error) {
	return f(name)
}

// MapResolver resolves names from a fixed map.
type MapResolver map[string]any

// Resolve returns the value bound to name.
func (m MapResolver) Resolve(name string) (any, error) {
	v, ok := m[name]
	if !ok {
		return nil, errors.Newf("no value bound to %q", name)
	}
	return v, nil
}
