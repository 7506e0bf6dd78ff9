package store_test

import (
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/muthumcapec31/ehcache2/internal/segment"
    store "github.com/muthumcapec31/ehcache2/pkg"
)

func newTestStore[V any](t *testing.T, opts ...store.Option[string, V]) *store.Store[string, V] {
    t.Helper()
    s, err := store.New[string, V](append([]store.Option[string, V]{store.WithSegments[string, V](4)}, opts...)...)
    require.NoError(t, err)
    t.Cleanup(func() { _ = s.Dispose() })
    return s
}

func Test_New_Rejects_Invalid_Options(t *testing.T) {
    t.Parallel()

    _, err := store.New[string, int](store.WithSegments[string, int](0))
    assert.Error(t, err)

    _, err = store.New[string, int](store.WithLoadFactor[string, int](1.5))
    assert.Error(t, err)
}

func Test_Put_Then_Get(t *testing.T) {
    t.Parallel()
    s := newTestStore[string](t)

    _, hadOld, err := s.Put(context.Background(), "a", "alpha")
    require.NoError(t, err)
    assert.False(t, hadOld)

    v, ok, err := s.Get("a")
    require.NoError(t, err)
    require.True(t, ok)
    assert.Equal(t, "alpha", v)
}

func Test_PutIfAbsent_Does_Not_Overwrite(t *testing.T) {
    t.Parallel()
    s := newTestStore[string](t)

    _, _, err := s.Put(context.Background(), "a", "first")
    require.NoError(t, err)

    old, hadOld, err := s.PutIfAbsent(context.Background(), "a", "second")
    require.NoError(t, err)
    assert.True(t, hadOld)
    assert.Equal(t, "first", old)

    v, _, _ := s.Get("a")
    assert.Equal(t, "first", v)
}

func Test_Replace_Requires_Existing_Key(t *testing.T) {
    t.Parallel()
    s := newTestStore[string](t)

    _, hadOld, err := s.Replace(context.Background(), "missing", "x")
    require.NoError(t, err)
    assert.False(t, hadOld)

    _, _, err = s.Put(context.Background(), "a", "alpha")
    require.NoError(t, err)

    old, hadOld, err := s.Replace(context.Background(), "a", "beta")
    require.NoError(t, err)
    assert.True(t, hadOld)
    assert.Equal(t, "alpha", old)

    v, _, _ := s.Get("a")
    assert.Equal(t, "beta", v)
}

func Test_ReplaceIfEqual(t *testing.T) {
    t.Parallel()
    s := newTestStore[string](t)
    eq := func(existing, old string) bool { return existing == old }

    _, _, err := s.Put(context.Background(), "a", "alpha")
    require.NoError(t, err)

    replaced, err := s.ReplaceIfEqual(context.Background(), "a", "wrong", "beta", eq)
    require.NoError(t, err)
    assert.False(t, replaced)

    replaced, err = s.ReplaceIfEqual(context.Background(), "a", "alpha", "beta", eq)
    require.NoError(t, err)
    assert.True(t, replaced)

    v, _, _ := s.Get("a")
    assert.Equal(t, "beta", v)
}

func Test_Remove(t *testing.T) {
    t.Parallel()
    s := newTestStore[string](t)

    _, _, err := s.Put(context.Background(), "a", "alpha")
    require.NoError(t, err)

    removed, hadRemoved, err := s.Remove(context.Background(), "a")
    require.NoError(t, err)
    assert.True(t, hadRemoved)
    assert.Equal(t, "alpha", removed)
    assert.False(t, s.ContainsKey("a"))
}

func Test_RemoveIfEqual(t *testing.T) {
    t.Parallel()
    s := newTestStore[string](t)
    eq := func(existing, expected string) bool { return existing == expected }

    _, _, err := s.Put(context.Background(), "a", "alpha")
    require.NoError(t, err)

    removed, err := s.RemoveIfEqual(context.Background(), "a", "beta", eq)
    require.NoError(t, err)
    assert.False(t, removed)
    assert.True(t, s.ContainsKey("a"))

    removed, err = s.RemoveIfEqual(context.Background(), "a", "alpha", eq)
    require.NoError(t, err)
    assert.True(t, removed)
    assert.False(t, s.ContainsKey("a"))
}

func Test_RemoveAll(t *testing.T) {
    t.Parallel()
    s := newTestStore[string](t)

    for i := 0; i < 20; i++ {
        _, _, err := s.Put(context.Background(), string(rune('a'+i)), "v")
        require.NoError(t, err)
    }
    require.Equal(t, 20, s.Size())

    s.RemoveAll()
    assert.Equal(t, 0, s.Size())
}

func Test_Fault_Requires_A_Configured_Factory(t *testing.T) {
    t.Parallel()
    s := newTestStore[string](t)

    _, err := s.Fault("a", nil, nil)
    assert.ErrorIs(t, err, store.ErrUnsupported)
}

func Test_Fault_Swaps_Representation_Through_The_Store(t *testing.T) {
    t.Parallel()

    disk := newMemoryFactory[string, string]()
    s := newTestStore[string](t, store.WithFactory[string, string](disk))

    _, _, err := s.Put(context.Background(), "a", "alpha")
    require.NoError(t, err)

    heapSub, ok := s.UnretrievedGet("a")
    require.True(t, ok)

    diskSub, err := disk.Create("a", "alpha")
    require.NoError(t, err)

    ok, err = s.Fault("a", heapSub, diskSub)
    require.NoError(t, err)
    assert.True(t, ok)

    v, ok, err := s.Get("a")
    require.NoError(t, err)
    require.True(t, ok)
    assert.Equal(t, "alpha", v)
}

func Test_Evict_Fires_OnEvict_Not_OnRemove(t *testing.T) {
    t.Parallel()
    listener := &recordingListener[string, string]{}
    s := newTestStore[string](t, store.WithListener[string, string](listener))

    _, _, err := s.Put(context.Background(), "a", "alpha")
    require.NoError(t, err)
    listener.reset()

    v, ok, err := s.Evict("a", nil)
    require.NoError(t, err)
    assert.True(t, ok)
    assert.Equal(t, "alpha", v)

    assert.Equal(t, 1, listener.evictCalls)
    assert.Equal(t, 0, listener.removeCalls)
}

func Test_Listener_Fires_OnUpdate_And_OnRemove(t *testing.T) {
    t.Parallel()
    listener := &recordingListener[string, string]{}
    s := newTestStore[string](t, store.WithListener[string, string](listener))

    _, _, err := s.Put(context.Background(), "a", "alpha")
    require.NoError(t, err)
    assert.Equal(t, 0, listener.updateCalls, "a fresh insert displaces nothing")

    _, _, err = s.Put(context.Background(), "a", "beta")
    require.NoError(t, err)
    assert.Equal(t, 1, listener.updateCalls)

    _, _, err = s.Remove(context.Background(), "a")
    require.NoError(t, err)
    assert.Equal(t, 1, listener.removeCalls)
}

func Test_WriterManager_Failure_Surfaces_As_ErrStoreUpdate(t *testing.T) {
    t.Parallel()
    writer := &failingWriterManager[string, string]{putErr: errors.New("downstream unavailable")}
    s := newTestStore[string](t, store.WithWriterManager[string, string](writer))

    _, _, err := s.Put(context.Background(), "a", "alpha")
    require.Error(t, err)

    var storeErr *store.ErrStoreUpdate
    require.ErrorAs(t, err, &storeErr)
    assert.True(t, storeErr.MutationSucceeded)

    // The in-memory mutation committed despite the writer failure.
    v, ok, getErr := s.Get("a")
    require.NoError(t, getErr)
    require.True(t, ok)
    assert.Equal(t, "alpha", v)
}

func Test_Size_Reflects_Puts_And_Removes(t *testing.T) {
    t.Parallel()
    s := newTestStore[string](t)

    for i := 0; i < 50; i++ {
        _, _, err := s.Put(context.Background(), string(rune(i))+"-key", "v")
        require.NoError(t, err)
    }
    assert.Equal(t, 50, s.Size())

    _, _, err := s.Remove(context.Background(), string(rune(0))+"-key")
    require.NoError(t, err)
    assert.Equal(t, 49, s.Size())
}

func Test_GetRandomSample_Respects_Target_Size(t *testing.T) {
    t.Parallel()
    s := newTestStore[string](t)

    for i := 0; i < 100; i++ {
        _, _, err := s.Put(context.Background(), string(rune(i))+"-key", "v")
        require.NoError(t, err)
    }

    samples, err := s.GetRandomSample(segment.AcceptAll, 10, 0)
    require.NoError(t, err)
    assert.Len(t, samples, 10)
}

func Test_GetRandomSample_Rejects_Non_Positive_Target(t *testing.T) {
    t.Parallel()
    s := newTestStore[string](t)

    _, err := s.GetRandomSample(segment.AcceptAll, 0, 0)
    assert.ErrorIs(t, err, store.ErrInvalidArgument)
}

func Test_Keys_And_Elements_Cover_Every_Entry(t *testing.T) {
    t.Parallel()
    s := newTestStore[string](t)

    want := map[string]string{}
    for i := 0; i < 30; i++ {
        k := string(rune(i)) + "-key"
        want[k] = "v" + k
        _, _, err := s.Put(context.Background(), k, want[k])
        require.NoError(t, err)
    }

    seenKeys := map[string]bool{}
    it := s.Keys()
    for it.HasNext() {
        k, ok := it.Next()
        require.True(t, ok)
        seenKeys[k] = true
    }
    assert.Len(t, seenKeys, len(want))

    seenElements := map[string]string{}
    eit := s.Elements()
    for eit.HasNext() {
        k, v, ok, err := eit.Next()
        require.NoError(t, err)
        require.True(t, ok)
        seenElements[k] = v
    }
    assert.Equal(t, want, seenElements)
}

func Test_KeySet_View(t *testing.T) {
    t.Parallel()
    s := newTestStore[string](t)

    _, _, err := s.Put(context.Background(), "a", "alpha")
    require.NoError(t, err)

    ks := s.KeySet()
    assert.True(t, ks.Contains("a"))
    assert.False(t, ks.Contains("z"))
    assert.Equal(t, 1, ks.Len())

    require.NoError(t, ks.Remove("a"))
    assert.False(t, s.ContainsKey("a"))

    assert.ErrorIs(t, ks.Add("x"), store.ErrUnsupported)
    assert.ErrorIs(t, ks.AddAll([]string{"x"}), store.ErrUnsupported)

    // Same object on repeated calls (lazily cached).
    assert.Same(t, ks, s.KeySet())
}

func Test_ElementSet_View(t *testing.T) {
    t.Parallel()
    s := newTestStore[string](t)

    _, _, err := s.Put(context.Background(), "a", "alpha")
    require.NoError(t, err)

    es := s.ElementSet()
    seen := map[string]string{}
    es.Range(func(k, v string) bool {
        seen[k] = v
        return true
    })
    assert.Equal(t, map[string]string{"a": "alpha"}, seen)

    _, err = es.Contains("alpha")
    assert.ErrorIs(t, err, store.ErrUnsupported)

    assert.Same(t, es, s.ElementSet())
}

func Test_SyncFor_Grants_A_Lock_Over_A_Keys_Segment(t *testing.T) {
    t.Parallel()
    s := newTestStore[string](t)

    handle := s.SyncFor("a")
    handle.Lock(store.LockWrite)
    held, err := handle.IsHeldByCurrentThread(store.LockWrite)
    require.NoError(t, err)
    assert.True(t, held)
    handle.Unlock(store.LockWrite)

    held, err = handle.IsHeldByCurrentThread(store.LockWrite)
    require.NoError(t, err)
    assert.False(t, held)

    _, err = handle.IsHeldByCurrentThread(store.LockRead)
    assert.ErrorIs(t, err, store.ErrUnsupported)
}

func Test_SyncProvider_Resolves_The_Same_Lock_As_SyncFor(t *testing.T) {
    t.Parallel()
    s := newTestStore[string](t)

    p := s.SyncProvider()
    handle := p.For("a")
    ok, err := handle.TryLock(store.LockWrite, 20*time.Millisecond)
    require.NoError(t, err)
    assert.True(t, ok)
    handle.Unlock(store.LockWrite)

    assert.Same(t, p, s.SyncProvider())
}

func Test_SyncHandle_TryLock_Times_Out_Under_Contention(t *testing.T) {
    t.Parallel()
    s := newTestStore[string](t)

    holder := s.SyncFor("a")
    holder.Lock(store.LockWrite)
    defer holder.Unlock(store.LockWrite)

    contender := s.SyncFor("a")
    ok, err := contender.TryLock(store.LockWrite, 20*time.Millisecond)
    require.NoError(t, err)
    assert.False(t, ok, "write lock is already held by another handle over the same segment")

    okRead, err := contender.TryLock(store.LockRead, 20*time.Millisecond)
    require.NoError(t, err)
    assert.False(t, okRead, "read lock must not be grantable while the write lock is held")
}

func Test_Status_Transitions_On_Dispose(t *testing.T) {
    t.Parallel()
    s, err := store.New[string, string](store.WithSegments[string, string](2))
    require.NoError(t, err)
    assert.Equal(t, store.StatusAlive, s.Status())

    require.NoError(t, s.Dispose())
    assert.Equal(t, store.StatusShutdown, s.Status())

    // Disposing twice is safe and a no-op the second time.
    require.NoError(t, s.Dispose())
}

func Test_Operations_Return_ErrClosed_After_Dispose(t *testing.T) {
    t.Parallel()
    s, err := store.New[string, string](store.WithSegments[string, string](2))
    require.NoError(t, err)

    _, _, err = s.Put(context.Background(), "a", "1")
    require.NoError(t, err)
    require.NoError(t, s.Dispose())

    _, _, err = s.Put(context.Background(), "a", "2")
    assert.ErrorIs(t, err, store.ErrClosed)

    _, _, err = s.Get("a")
    assert.ErrorIs(t, err, store.ErrClosed)

    _, _, err = s.Remove(context.Background(), "a")
    assert.ErrorIs(t, err, store.ErrClosed)

    _, _, err = s.Replace(context.Background(), "a", "3")
    assert.ErrorIs(t, err, store.ErrClosed)
}

func Test_Put_Rejects_A_Nil_Pointer_Element(t *testing.T) {
    t.Parallel()
    s, err := store.New[string, *string](store.WithSegments[string, *string](2))
    require.NoError(t, err)
    t.Cleanup(func() { _ = s.Dispose() })

    _, _, err = s.Put(context.Background(), "a", nil)
    assert.ErrorIs(t, err, store.ErrNilElement)

    v := "real"
    _, _, err = s.Put(context.Background(), "a", &v)
    assert.NoError(t, err)
}

func Test_ApproximateHitRates_Start_At_Zero_With_No_Samples(t *testing.T) {
    t.Parallel()
    s := newTestStore[string](t)

    assert.Equal(t, 0.0, s.ApproximateHeapHitRate())
    assert.Equal(t, 0.0, s.ApproximateDiskHitRate())
}

func Test_ApproximateHeapHitRate_Reflects_Hits_And_Misses(t *testing.T) {
    t.Parallel()
    s := newTestStore[string](t)

    _, _, err := s.Put(context.Background(), "a", "alpha")
    require.NoError(t, err)

    _, _, _ = s.Get("a")       // hit
    _, _, _ = s.Get("missing") // no entry found at all: not a factory hit/miss

    rate := s.ApproximateHeapHitRate()
    assert.Equal(t, 1.0, rate)
}

func Test_Concurrent_Mutations_Are_Safe(t *testing.T) {
    s := newTestStore[int](t, store.WithSegments[string, int](8))

    var wg sync.WaitGroup
    for w := 0; w < 16; w++ {
        wg.Add(1)
        go func(worker int) {
            defer wg.Done()
            for i := 0; i < 100; i++ {
                key := string(rune('a'+worker)) + string(rune(i))
                _, _, err := s.Put(context.Background(), key, worker*1000+i)
                assert.NoError(t, err)
                _, _, _ = s.Get(key)
            }
        }(w)
    }
    wg.Wait()
}

// --- test fixtures -----------------------------------------------------

type recordingListener[K comparable, V any] struct {
    mu                                                sync.Mutex
    updateCalls, removeCalls, evictCalls, faultCalls int
}

func (l *recordingListener[K, V]) reset() {
    l.mu.Lock()
    defer l.mu.Unlock()
    l.updateCalls, l.removeCalls, l.evictCalls, l.faultCalls = 0, 0, 0, 0
}

func (l *recordingListener[K, V]) OnUpdate(segment.Substitute, V) {
    l.mu.Lock()
    defer l.mu.Unlock()
    l.updateCalls++
}

func (l *recordingListener[K, V]) OnRemove(segment.Substitute, V) {
    l.mu.Lock()
    defer l.mu.Unlock()
    l.removeCalls++
}

func (l *recordingListener[K, V]) OnEvict(K, V) {
    l.mu.Lock()
    defer l.mu.Unlock()
    l.evictCalls++
}

func (l *recordingListener[K, V]) OnFault(K, segment.Substitute, segment.Substitute) {
    l.mu.Lock()
    defer l.mu.Unlock()
    l.faultCalls++
}

type failingWriterManager[K comparable, V any] struct {
    putErr, removeErr error
}

func (w *failingWriterManager[K, V]) Put(context.Context, V) error { return w.putErr }
func (w *failingWriterManager[K, V]) Remove(context.Context, K) error {
    return w.removeErr
}

// memoryFactory is a minimal SubstituteFactory stand-in for a disk tier,
// used to exercise Fault end-to-end without a real Badger instance.
type memoryFactory[K comparable, V any] struct {
    mu   sync.Mutex
    data map[any]V
}

type memoryPointer struct{ id int }

func newMemoryFactory[K comparable, V any]() *memoryFactory[K, V] {
    return &memoryFactory[K, V]{data: make(map[any]V)}
}

func (f *memoryFactory[K, V]) Create(_ K, element V) (segment.Substitute, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    ptr := &memoryPointer{id: len(f.data)}
    f.data[ptr] = element
    return ptr, nil
}

func (f *memoryFactory[K, V]) Decode(_ K, sub segment.Substitute) (V, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    v, ok := f.data[sub]
    if !ok {
        var zero V
        return zero, errors.New("not found")
    }
    return v, nil
}

func (f *memoryFactory[K, V]) Retrieve(key K, sub segment.Substitute) (V, error) {
    return f.Decode(key, sub)
}

func (f *memoryFactory[K, V]) Free(sub segment.Substitute) {
    f.mu.Lock()
    defer f.mu.Unlock()
    delete(f.data, sub)
}

func (f *memoryFactory[K, V]) Created(sub segment.Substitute) bool {
    _, ok := sub.(*memoryPointer)
    return ok
}

func (f *memoryFactory[K, V]) Bind(*store.Store[K, V]) error   { return nil }
func (f *memoryFactory[K, V]) Unbind(*store.Store[K, V]) error { return nil }
