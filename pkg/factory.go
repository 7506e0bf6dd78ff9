package store

// factory.go defines the public SubstituteFactory contract and the default
// identity implementation every Store uses for its heap tier.
//
// SubstituteFactory embeds internal/segment.Factory (the narrow subset a
// Segment calls on the hot path) and adds the two store-lifecycle hooks,
// Bind and Unbind, that only make sense one layer up where a *Store handle
// exists — e.g. a disk-backed factory opening its database in Bind and
// flushing it in Unbind.
//
// © 2025 arena-cache authors. MIT License.

import (
    "github.com/muthumcapec31/ehcache2/internal/segment"
)

// SubstituteFactory produces and reclaims one representation ("substitute")
// of an element. A Store is always configured with an identity factory for
// its heap tier, and optionally a second factory for a proxy tier (e.g.
// disk-backed) that Fault and TryFault install in place of the identity
// substitute.
type SubstituteFactory[K comparable, V any] interface {
    segment.Factory[K, V]

    // Bind is called once, when the factory is attached to a Store via
    // WithFactory/WithIdentityFactory, before any other method. It may
    // open backing resources (a database handle, a connection pool).
    Bind(s *Store[K, V]) error

    // Unbind is called once, from Dispose, after the store has stopped
    // accepting new operations. It should release whatever Bind acquired.
    Unbind(s *Store[K, V]) error
}

// identityFactory keeps an element in the heap as its own substitute: Create
// wraps the element in a freshly allocated *identityBox, Decode/Retrieve
// unwrap it, and Free is a no-op since there is nothing to reclaim beyond
// what the garbage collector already owns.
type identityFactory[K comparable, V any] struct {
    marker *int // distinguishes this factory's substitutes via pointer identity of the marker, not the boxed value, so two stores don't cross-recognize each other's entries
}

// NewIdentityFactory returns the default SubstituteFactory used for a
// store's heap tier.
func NewIdentityFactory[K comparable, V any]() SubstituteFactory[K, V] {
    return &identityFactory[K, V]{marker: new(int)}
}

func (f *identityFactory[K, V]) Create(_ K, element V) (segment.Substitute, error) {
    return &identityBox[V]{marker: f.marker, value: element}, nil
}

func (f *identityFactory[K, V]) Decode(_ K, sub segment.Substitute) (V, error) {
    return f.unbox(sub)
}

func (f *identityFactory[K, V]) Retrieve(key K, sub segment.Substitute) (V, error) {
    return f.unbox(sub)
}

func (f *identityFactory[K, V]) unbox(sub segment.Substitute) (V, error) {
    var zero V
    box, ok := sub.(*identityBox[V])
    if !ok || box.marker != f.marker {
        return zero, errWrongFactory
    }
    return box.value, nil
}

func (f *identityFactory[K, V]) Free(segment.Substitute) {}

func (f *identityFactory[K, V]) Created(sub segment.Substitute) bool {
    box, ok := sub.(*identityBox[V])
    return ok && box.marker == f.marker
}

func (f *identityFactory[K, V]) Bind(*Store[K, V]) error   { return nil }
func (f *identityFactory[K, V]) Unbind(*Store[K, V]) error { return nil }

// identityBox is the concrete type identity substitutes are boxed as. Every
// Create allocates a fresh *identityBox, so == comparison over the boxed
// segment.Substitute (used by Evict's referential-equality check and
// Fault's CAS) is always pointer identity. This matters because V itself
// may not be comparable (a []byte value, or a struct containing a slice or
// map): boxing by value would make the store's core fault path panic on
// otherwise valid input the moment the interface comparison reached into a
// non-comparable V.
type identityBox[V any] struct {
    marker *int
    value  V
}

var errWrongFactory = errUnexpectedSubstitute{}

type errUnexpectedSubstitute struct{}

func (errUnexpectedSubstitute) Error() string {
    return "store: substitute was not produced by this factory"
}
