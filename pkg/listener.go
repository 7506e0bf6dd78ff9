package store

// listener.go implements the store's mutation notification bus: a
// synchronous, ordered, append-only slice of Listener values (no dedup, no
// removal), invoked from the mutating goroutine after the owning segment
// has already committed the change and released its write lock. Listeners
// are still not reentrant-safe: calling back into the same Store for the
// same key from within a callback can observe a different segment state
// than the mutation that triggered it, and the core does not guard
// against it.
//
// © 2025 arena-cache authors. MIT License.

import "github.com/muthumcapec31/ehcache2/internal/segment"

// Listener receives notifications for key-level mutations on a Store.
type Listener[K comparable, V any] interface {
    // OnUpdate fires after Replace/ReplaceIfEqual, or a Put that overwrote
    // an already-present key, installs newElement in place of the
    // substitute it displaced. A Put that inserts a brand-new key does not
    // fire OnUpdate, since there is nothing it displaced.
    OnUpdate(displaced segment.Substitute, newElement V)
    // OnRemove fires after Remove/RemoveIfEqual deletes a key, with the
    // substitute it displaced and the element that had been stored there.
    OnRemove(displaced segment.Substitute, removedElement V)
    // OnEvict fires after Evict removes a key outside of a direct caller
    // request (e.g. driven by an external eviction policy sampling via
    // GetRandomSample).
    OnEvict(key K, evictedElement V)
    // OnFault fires after a successful Fault/TryFault substitute swap.
    OnFault(key K, expect, fault segment.Substitute)
}

// listenerBus fans a mutation out to every registered Listener in order.
type listenerBus[K comparable, V any] struct {
    listeners []Listener[K, V]
}

func newListenerBus[K comparable, V any](ls []Listener[K, V]) *listenerBus[K, V] {
    return &listenerBus[K, V]{listeners: ls}
}

func (b *listenerBus[K, V]) fireUpdate(displaced segment.Substitute, newElement V) {
    for _, l := range b.listeners {
        l.OnUpdate(displaced, newElement)
    }
}

func (b *listenerBus[K, V]) fireRemove(displaced segment.Substitute, removedElement V) {
    for _, l := range b.listeners {
        l.OnRemove(displaced, removedElement)
    }
}

func (b *listenerBus[K, V]) fireEvict(key K, evictedElement V) {
    for _, l := range b.listeners {
        l.OnEvict(key, evictedElement)
    }
}

func (b *listenerBus[K, V]) fireFault(key K, expect, fault segment.Substitute) {
    for _, l := range b.listeners {
        l.OnFault(key, expect, fault)
    }
}
