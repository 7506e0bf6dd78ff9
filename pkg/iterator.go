package store

// iterator.go implements stateful iteration over a Store's entries:
// segments descending, then within each segment's table, buckets
// descending, then each bucket's chain head-to-tail.
//
// An iterator reflects a point-in-time walk: it snapshots each segment's
// table as it arrives at that segment, so structural changes (Put, Remove,
// rehash) on segments not yet visited are picked up, but segments already
// passed are not revisited and in-flight mutations to the current bucket's
// chain are not retroactively observed mid-chain.
//
// © 2025 arena-cache authors. MIT License.

import (
    "unsafe"

    "github.com/muthumcapec31/ehcache2/internal/segment"
)

type segmentView[K comparable, V any] interface {
    Snapshot() []unsafe.Pointer
    Count() int32
}

// keyWalker is the low-level segment/bucket/chain walker shared by
// KeyIterator and ElementIterator.
type keyWalker[K comparable, V any] struct {
    segs []segmentView[K, V]

    nextSegmentIndex int
    nextTableIndex   int
    currentTable     []unsafe.Pointer
    nextEntry        *segment.HashEntry[K, V]
}

func newKeyWalker[K comparable, V any](segs []segmentView[K, V]) *keyWalker[K, V] {
    w := &keyWalker[K, V]{
        segs:             segs,
        nextSegmentIndex: len(segs) - 1,
        nextTableIndex:   -1,
    }
    w.advance()
    return w
}

func (w *keyWalker[K, V]) advance() {
    if w.nextEntry != nil {
        w.nextEntry = w.nextEntry.Next()
        if w.nextEntry != nil {
            return
        }
    }

    for w.nextTableIndex >= 0 {
        w.nextEntry = segment.HeadAt[K, V](w.currentTable, w.nextTableIndex)
        w.nextTableIndex--
        if w.nextEntry != nil {
            return
        }
    }

    for w.nextSegmentIndex >= 0 {
        seg := w.segs[w.nextSegmentIndex]
        w.nextSegmentIndex--
        if seg.Count() == 0 {
            continue
        }
        w.currentTable = seg.Snapshot()
        for j := len(w.currentTable) - 1; j >= 0; j-- {
            w.nextEntry = segment.HeadAt[K, V](w.currentTable, j)
            if w.nextEntry != nil {
                w.nextTableIndex = j - 1
                return
            }
        }
    }
}

func (w *keyWalker[K, V]) hasNext() bool { return w.nextEntry != nil }

func (w *keyWalker[K, V]) next() (K, bool) {
    if w.nextEntry == nil {
        var zero K
        return zero, false
    }
    e := w.nextEntry
    w.advance()
    return e.Key(), true
}

// KeyIterator is a stateful, single-pass walk over a Store's keys, in the
// segment-descending/bucket-descending/chain order described above.
type KeyIterator[K comparable, V any] struct {
    w *keyWalker[K, V]
}

// HasNext reports whether Next has another key to return.
func (it *KeyIterator[K, V]) HasNext() bool { return it.w.hasNext() }

// Next returns the next key and advances the iterator. ok is false once
// iteration is exhausted.
func (it *KeyIterator[K, V]) Next() (key K, ok bool) { return it.w.next() }

// ElementIterator is a stateful walk over a Store's (key, element) pairs,
// decoding each entry's current substitute as it is visited.
type ElementIterator[K comparable, V any] struct {
    w     *keyWalker[K, V]
    store *Store[K, V]
}

// HasNext reports whether Next has another pair to return.
func (it *ElementIterator[K, V]) HasNext() bool { return it.w.hasNext() }

// Next returns the next (key, element) pair and advances the iterator. If
// the entry's substitute fails to decode, err is non-nil; iteration may
// still continue with a further Next call.
func (it *ElementIterator[K, V]) Next() (key K, element V, ok bool, err error) {
    k, has := it.w.next()
    if !has {
        var zero V
        return k, zero, false, nil
    }
    elem, found, derr := it.store.Get(k)
    if derr != nil {
        var zero V
        return k, zero, true, derr
    }
    if !found {
        var zero V
        return k, zero, true, nil
    }
    return k, elem, true, nil
}
