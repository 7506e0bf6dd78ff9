package store

// lockprovider.go exposes each segment's read/write lock to callers that
// need to hold a key's stripe across several otherwise-independent Store
// calls (read-modify-write sequences a single atomic Store method can't
// express). SyncFor resolves a key to the same lock a concurrent Store
// operation on that key would contend on, so external and internal locking
// compose correctly.
//
// © 2025 arena-cache authors. MIT License.

import (
    "sync"
    "time"

    "github.com/muthumcapec31/ehcache2/internal/goid"
)

// LockType selects which of a segment's two lock modes a SyncHandle call
// acts on.
type LockType int

const (
    LockRead LockType = iota
    LockWrite
)

// segmentLocker is the subset of *segment.Segment[K,V] the lock provider
// needs; kept narrow so SyncHandle doesn't otherwise depend on the
// concrete segment type parameters.
type segmentLocker interface {
    LockWrite(goroutineID uint64)
    UnlockWrite()
    TryLockWrite(goroutineID uint64, timeout time.Duration) bool
    TryRLock(timeout time.Duration) bool
    WriteHolder() uint64
    RLocker() sync.Locker
}

// SyncHandle grants external access to one segment's lock, resolved from a
// specific key via Store.SyncFor.
type SyncHandle[K comparable, V any] struct {
    seg segmentLocker
}

// Lock acquires the segment's lock in the given mode, blocking until
// available. An unrecognized mode panics with ErrInvalidArgument, since
// Lock has no error return to report it through.
func (h SyncHandle[K, V]) Lock(mode LockType) {
    switch mode {
    case LockWrite:
        h.seg.LockWrite(goid.Current())
    case LockRead:
        h.seg.RLocker().Lock()
    default:
        panic(ErrInvalidArgument)
    }
}

// Unlock releases the lock previously acquired with Lock in the same mode.
func (h SyncHandle[K, V]) Unlock(mode LockType) {
    switch mode {
    case LockWrite:
        h.seg.UnlockWrite()
    case LockRead:
        h.seg.RLocker().Unlock()
    default:
        panic(ErrInvalidArgument)
    }
}

// TryLock is Lock's bounded-wait variant: it tries to acquire the segment's
// lock in the given mode for up to timeout, returning false rather than
// blocking indefinitely on failure. A zero or negative timeout tries
// exactly once, non-blocking.
func (h SyncHandle[K, V]) TryLock(mode LockType, timeout time.Duration) (bool, error) {
    switch mode {
    case LockWrite:
        return h.seg.TryLockWrite(goid.Current(), timeout), nil
    case LockRead:
        return h.seg.TryRLock(timeout), nil
    default:
        return false, ErrInvalidArgument
    }
}

// IsHeldByCurrentThread reports whether the calling goroutine currently
// holds this handle's write lock. There is no equivalent query for the
// read lock — sync.RWMutex exposes no reader identity, and multiple
// readers may legitimately hold it at once — so LockRead reports
// ErrUnsupported.
func (h SyncHandle[K, V]) IsHeldByCurrentThread(mode LockType) (bool, error) {
    switch mode {
    case LockWrite:
        return h.seg.WriteHolder() == goid.Current(), nil
    case LockRead:
        return false, ErrUnsupported
    default:
        return false, ErrInvalidArgument
    }
}
