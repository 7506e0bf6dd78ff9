package store

// views.go implements the Set-like collection views returned by
// Store.KeySet and Store.ElementSet — Java ConcurrentHashMap's keySet()/
// values() idiom, generalized to the store's substitute model. Both views
// are thin wrappers over Store: they hold no state of their own beyond the
// store reference, so two concurrent callers racing to build the lazily
// cached view (see store.go's KeySet/ElementSet) can safely discard one.

import "context"

// KeyView is a live, mutable view of a Store's keys.
type KeyView[K comparable, V any] struct {
    store *Store[K, V]
}

// Contains reports whether key is present in the backing store.
func (v *KeyView[K, V]) Contains(key K) bool { return v.store.ContainsKey(key) }

// Remove deletes key from the backing store.
func (v *KeyView[K, V]) Remove(key K) error {
    _, _, err := v.store.Remove(context.Background(), key)
    return err
}

// Range calls fn once per key in the view's traversal order, stopping early
// if fn returns false.
func (v *KeyView[K, V]) Range(fn func(key K) bool) {
    it := v.store.Keys()
    for it.HasNext() {
        k, ok := it.Next()
        if !ok || !fn(k) {
            return
        }
    }
}

// Clear removes every entry from the backing store.
func (v *KeyView[K, V]) Clear() { v.store.RemoveAll() }

// Len returns the backing store's size.
func (v *KeyView[K, V]) Len() int { return v.store.Size() }

// Add is unsupported: a key view cannot fabricate an element to store.
func (v *KeyView[K, V]) Add(K) error { return ErrUnsupported }

// AddAll is unsupported for the same reason as Add.
func (v *KeyView[K, V]) AddAll([]K) error { return ErrUnsupported }

// ElementView is a read-mostly view of a Store's decoded elements.
type ElementView[K comparable, V any] struct {
    store *Store[K, V]
}

// Range calls fn once per (key, element) pair in the view's traversal
// order, stopping early if fn returns false. A decode failure for a given
// entry is skipped rather than passed to fn, since ElementView's Range has
// no error return; callers that need decode errors should use
// Store.Elements directly.
func (v *ElementView[K, V]) Range(fn func(key K, element V) bool) {
    it := v.store.Elements()
    for it.HasNext() {
        k, elem, ok, err := it.Next()
        if !ok {
            return
        }
        if err != nil {
            continue
        }
        if !fn(k, elem) {
            return
        }
    }
}

// Clear removes every entry from the backing store.
func (v *ElementView[K, V]) Clear() { v.store.RemoveAll() }

// Len returns the backing store's size.
func (v *ElementView[K, V]) Len() int { return v.store.Size() }

// Contains is unsupported: testing element membership would require a
// linear scan with a caller-supplied equality function the view doesn't
// have, and the store has no by-value index.
func (v *ElementView[K, V]) Contains(V) (bool, error) { return false, ErrUnsupported }

// Add is unsupported: an element view has no key to install under.
func (v *ElementView[K, V]) Add(V) error { return ErrUnsupported }

// Remove is unsupported for the same reason as Contains.
func (v *ElementView[K, V]) Remove(V) (bool, error) { return false, ErrUnsupported }
