// Package store is a segmented, concurrent key/value store whose entries
// can be transparently "faulted" between representations — most commonly
// an in-heap element and an on-disk proxy — without ever blocking a reader
// on a writer working in a different lock stripe.
package store

// config.go defines the internal configuration object and the set of
// functional options that can be passed to New[K,V]. A generic Option is
// used so that callbacks retain full type-safety with respect to the
// concrete key type K and element type V chosen by the caller.
//
// Design notes
// ------------
// • All fields are initialised with sensible defaults in defaultConfig().
// • Options never allocate unless strictly necessary — they just capture
//   pointers to external objects (registry, logger, factories …).
// • The struct itself is unexported: callers can only influence behaviour
//   via Option[K,V], which keeps the field set free to grow.
//
// © 2025 arena-cache authors. MIT License.

import (
    "errors"

    "github.com/prometheus/client_golang/prometheus"
    "go.uber.org/zap"

    "github.com/muthumcapec31/ehcache2/internal/keyhash"
)

const (
    defaultSegments        = 64
    defaultInitialCapacity = 16
    defaultLoadFactor      = 0.75
)

// Option is the functional option passed to New. It is generic because
// several options (WithFactory, WithListener, WithWriterManager) refer to
// concrete K/V types.
type Option[K comparable, V any] func(*config[K, V])

// config bundles every knob that influences store behaviour. All fields are
// immutable once the Store is constructed; there is no hot-reload of
// segment count or load factor, since either would require a full rehash
// of every segment under every write lock at once.
type config[K comparable, V any] struct {
    segments        int
    initialCapacity int
    loadFactor      float64

    hashFunc func(K) uint32

    identityFactory SubstituteFactory[K, V]
    factory         SubstituteFactory[K, V] // nil is legal: heap-only store

    listeners     []Listener[K, V]
    writerManager WriterManager[K, V]

    registry *prometheus.Registry
    logger   *zap.Logger

    rejectZeroKey bool
}

func defaultConfig[K comparable, V any]() *config[K, V] {
    return &config[K, V]{
        segments:        defaultSegments,
        initialCapacity: defaultInitialCapacity,
        loadFactor:      defaultLoadFactor,
        hashFunc:        keyhash.Default[K](),
        identityFactory: NewIdentityFactory[K, V](),
        logger:          zap.NewNop(),
        registry:        nil, // caller must opt in to metrics
    }
}

// WithSegments overrides the number of lock stripes (rounded up to a power
// of two). More segments reduce write contention between unrelated keys at
// the cost of per-segment memory overhead; the default of 64 suits most
// concurrent workloads without tuning. A non-positive n makes New fail.
func WithSegments[K comparable, V any](n int) Option[K, V] {
    return func(c *config[K, V]) {
        c.segments = n
    }
}

// WithInitialCapacity sets each segment's starting table size (rounded up
// to a power of two).
func WithInitialCapacity[K comparable, V any](n int) Option[K, V] {
    return func(c *config[K, V]) {
        if n > 0 {
            c.initialCapacity = n
        }
    }
}

// WithLoadFactor overrides the fraction of a segment's table that may be
// occupied before it rehashes to double its size.
func WithLoadFactor[K comparable, V any](f float64) Option[K, V] {
    return func(c *config[K, V]) {
        if f > 0 {
            c.loadFactor = f
        }
    }
}

// WithHashFunc overrides the key-hashing strategy. The returned hash need
// not be pre-spread: the store applies its own bit-mixing step before using
// it for segment and bucket selection.
func WithHashFunc[K comparable, V any](fn func(K) uint32) Option[K, V] {
    return func(c *config[K, V]) {
        if fn != nil {
            c.hashFunc = fn
        }
    }
}

// WithFactory installs a SubstituteFactory used for proxy substitutes — the
// representation Fault and TryFault install in place of an identity
// element (typically a disk- or network-backed encoding). On a store with no
// factory, Fault and TryFault return ErrUnsupported.
func WithFactory[K comparable, V any](f SubstituteFactory[K, V]) Option[K, V] {
    return func(c *config[K, V]) {
        c.factory = f
    }
}

// WithIdentityFactory overrides the default identity substitute factory,
// which simply boxes the element itself. Implementers rarely need this; it
// exists mainly for tests that want to observe Create/Free traffic for
// heap-resident entries too.
func WithIdentityFactory[K comparable, V any](f SubstituteFactory[K, V]) Option[K, V] {
    return func(c *config[K, V]) {
        if f != nil {
            c.identityFactory = f
        }
    }
}

// WithListener registers a Listener for key-level mutation notifications.
// Listeners fire in registration order, synchronously on the mutating
// goroutine, after the segment has already committed the change.
func WithListener[K comparable, V any](l Listener[K, V]) Option[K, V] {
    return func(c *config[K, V]) {
        if l != nil {
            c.listeners = append(c.listeners, l)
        }
    }
}

// WithWriterManager installs a write-through WriterManager: every Put and
// Remove is mirrored to it before the in-memory mutation is considered
// successful.
func WithWriterManager[K comparable, V any](w WriterManager[K, V]) Option[K, V] {
    return func(c *config[K, V]) {
        c.writerManager = w
    }
}

// WithMetrics enables Prometheus metrics collection for the store. Passing
// nil disables metrics (the default).
func WithMetrics[K comparable, V any](reg *prometheus.Registry) Option[K, V] {
    return func(c *config[K, V]) {
        c.registry = reg
    }
}

// WithLogger plugs an external zap.Logger. The store never logs on the hot
// path; the only events it logs are writer-manager failures.
func WithLogger[K comparable, V any](l *zap.Logger) Option[K, V] {
    return func(c *config[K, V]) {
        if l != nil {
            c.logger = l
        }
    }
}

// WithRejectZeroKey makes every key-accepting operation return ErrNilKey
// when given K's zero value. Off by default, since a comparable K's zero
// value hashes and compares like any other key; callers for whom the zero
// value is never a meaningful key (e.g. a string key where "" signals a
// missing field upstream) can opt in to catch that class of bug early.
func WithRejectZeroKey[K comparable, V any](reject bool) Option[K, V] {
    return func(c *config[K, V]) {
        c.rejectZeroKey = reject
    }
}

func applyOptions[K comparable, V any](cfg *config[K, V], opts []Option[K, V]) error {
    for _, opt := range opts {
        opt(cfg)
    }

    if cfg.segments <= 0 {
        return errInvalidSegments
    }
    if cfg.loadFactor <= 0 || cfg.loadFactor >= 1 {
        return errInvalidLoadFactor
    }
    if cfg.identityFactory == nil {
        return errNilIdentityFactory
    }
    return nil
}

var (
    errInvalidSegments    = errors.New("store: segments must be > 0")
    errInvalidLoadFactor  = errors.New("store: load factor must be in (0, 1)")
    errNilIdentityFactory = errors.New("store: identity factory must not be nil")
)
