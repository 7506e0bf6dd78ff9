package store

import "errors"

// Sentinel errors returned by Store operations. Callers should compare with
// errors.Is, not ==, since wrapping (e.g. ErrStoreUpdate) is common.
var (
    // ErrNilKey is returned for a key that is K's zero value, when the
    // store was constructed with WithRejectZeroKey(true). Off by default:
    // a comparable K's zero value is otherwise an ordinary key.
    ErrNilKey = errors.New("store: nil key")

    // ErrNilElement is returned by Put/Replace when given a nil element
    // for a pointer-shaped V.
    ErrNilElement = errors.New("store: nil element")

    // ErrUnsupported is returned by Fault and TryFault when the store was
    // constructed without a SubstituteFactory, by the view operations that
    // KeyView and ElementView do not support, and by
    // SyncHandle.IsHeldByCurrentThread(LockRead).
    ErrUnsupported = errors.New("store: unsupported operation")

    // ErrInvalidArgument is returned for malformed caller input, such as a
    // non-positive sample size.
    ErrInvalidArgument = errors.New("store: invalid argument")

    // ErrClosed is returned by operations attempted after Dispose.
    ErrClosed = errors.New("store: disposed")
)

// ErrStoreUpdate wraps a WriterManager failure. MutationSucceeded reports
// whether the in-memory mutation had already been applied when the writer
// call failed — true means the store and the external system of record
// have diverged and the caller may need to reconcile; false means the
// in-memory store was left untouched.
type ErrStoreUpdate struct {
    Err               error
    MutationSucceeded bool
}

func (e *ErrStoreUpdate) Error() string {
    if e.MutationSucceeded {
        return "store: writer manager failed after mutation: " + e.Err.Error()
    }
    return "store: writer manager failed: " + e.Err.Error()
}

func (e *ErrStoreUpdate) Unwrap() error { return e.Err }
