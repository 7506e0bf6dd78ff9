package segment

// Factory is the narrow subset of the store's SubstituteFactory that a
// Segment calls directly on the hot path. The store-level lifecycle hooks
// (Bind/Unbind, which need a handle to the *Store) live one layer up in
// pkg.SubstituteFactory so that this package never has to import pkg (which
// would be an import cycle, since pkg imports internal/segment).
type Factory[K comparable, V any] interface {
    // Create encodes a freshly installed element into a substitute.
    Create(key K, element V) (Substitute, error)
    // Decode materializes the logical element from a substitute, without
    // recording a hit.
    Decode(key K, sub Substitute) (V, error)
    // Retrieve is the Decode variant used on the Get hot path; the segment
    // records the hit or miss against the substitute's tier (heap vs disk)
    // from its result.
    Retrieve(key K, sub Substitute) (V, error)
    // Free reclaims resources held by a displaced substitute. Called
    // exactly once per installed substitute over its lifetime.
    Free(sub Substitute)
    // Created reports whether this factory produced the given substitute.
    Created(sub Substitute) bool
}
