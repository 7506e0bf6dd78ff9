package store

// store.go ties the segments together into the public Store[K,V] type: hash
// dispatch, the listener/writer fan-out that follows a committed mutation,
// lifecycle (Status/Dispose), and the handful of whole-store aggregates
// (Size, the approximate hit rates, random sampling) that need to see
// across every segment rather than just the one a key hashes to.
//
// © 2025 arena-cache authors. MIT License.

import (
    "context"
    "math"
    "math/rand/v2"
    "reflect"
    "sync"
    "sync/atomic"
    "time"

    "go.uber.org/zap"

    "github.com/muthumcapec31/ehcache2/internal/segment"
    "github.com/muthumcapec31/ehcache2/internal/spreadhash"
)

// Status reports a Store's lifecycle phase.
type Status int32

const (
    StatusUninitialised Status = iota
    StatusAlive
    StatusShutdown
)

func (s Status) String() string {
    switch s {
    case StatusUninitialised:
        return "uninitialised"
    case StatusAlive:
        return "alive"
    case StatusShutdown:
        return "shutdown"
    default:
        return "unknown"
    }
}

// Store is a segmented, concurrent key/value store whose entries can be
// transparently faulted between representations without a reader ever
// blocking on a writer working a different lock stripe.
type Store[K comparable, V any] struct {
    segments     []*segment.Segment[K, V]
    segmentShift uint

    hashFunc        func(K) uint32
    identityFactory SubstituteFactory[K, V]
    factory         SubstituteFactory[K, V] // nil: heap-only store

    listeners     *listenerBus[K, V]
    writerManager WriterManager[K, V]

    metrics metricsSink
    logger  *zap.Logger

    rejectZeroKey bool

    status      atomic.Int32
    disposeOnce sync.Once

    keySetView     atomic.Pointer[KeyView[K, V]]
    elementSetView atomic.Pointer[ElementView[K, V]]
    syncProvider   atomic.Pointer[SyncProvider[K, V]]
}

// New constructs a Store with the given options applied over sensible
// defaults (64 segments, initial per-segment capacity of 16, 0.75 load
// factor, an identity-only heap tier, metrics and logging disabled).
func New[K comparable, V any](opts ...Option[K, V]) (*Store[K, V], error) {
    cfg := defaultConfig[K, V]()
    if err := applyOptions(cfg, opts); err != nil {
        return nil, err
    }

    numSegments := spreadhash.NextPowerOfTwo(cfg.segments)
    st := &Store[K, V]{
        segmentShift:    spreadhash.SegmentShift(numSegments),
        hashFunc:        cfg.hashFunc,
        identityFactory: cfg.identityFactory,
        factory:         cfg.factory,
        listeners:       newListenerBus(cfg.listeners),
        writerManager:   cfg.writerManager,
        metrics:         newMetricsSink(cfg.registry),
        logger:          cfg.logger,
        rejectZeroKey:   cfg.rejectZeroKey,
    }

    if err := st.identityFactory.Bind(st); err != nil {
        return nil, err
    }
    if st.factory != nil {
        if err := st.factory.Bind(st); err != nil {
            return nil, err
        }
    }

    st.segments = make([]*segment.Segment[K, V], numSegments)
    for i := range st.segments {
        st.segments[i] = segment.New[K, V](i, cfg.initialCapacity, cfg.loadFactor, st.factory, st.identityFactory, st.metrics)
    }
    st.metrics.SetSegmentCount(numSegments)
    st.status.Store(int32(StatusAlive))
    return st, nil
}

func (s *Store[K, V]) spread(key K) uint32 {
    return spreadhash.Spread(s.hashFunc(key))
}

func (s *Store[K, V]) segmentFor(spread uint32) *segment.Segment[K, V] {
    idx := spreadhash.SegmentIndex(spread, s.segmentShift, len(s.segments))
    return s.segments[idx]
}

// checkKey returns ErrNilKey if the store was configured with
// WithRejectZeroKey and key is K's zero value. A comparable K's zero value
// is otherwise a perfectly ordinary key.
func (s *Store[K, V]) checkKey(key K) error {
    if !s.rejectZeroKey {
        return nil
    }
    var zero K
    if key == zero {
        return ErrNilKey
    }
    return nil
}

// checkElement returns ErrNilElement if element is nil — only meaningful
// when V's kind permits nil (pointer, interface, map, slice, chan, func);
// any other kind can never be nil and is accepted unconditionally.
func checkElement[V any](element V) error {
    v := reflect.ValueOf(element)
    switch v.Kind() {
    case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
        if v.IsNil() {
            return ErrNilElement
        }
    }
    return nil
}

// checkOpen returns ErrClosed once the store has been disposed.
func (s *Store[K, V]) checkOpen() error {
    if Status(s.status.Load()) != StatusAlive {
        return ErrClosed
    }
    return nil
}

// freeSubstitute reclaims sub via whichever configured factory produced it.
// Called once per displaced substitute, after listeners have observed it.
func (s *Store[K, V]) freeSubstitute(sub segment.Substitute) {
    if sub == nil {
        return
    }
    if s.identityFactory.Created(sub) {
        s.identityFactory.Free(sub)
        return
    }
    if s.factory != nil && s.factory.Created(sub) {
        s.factory.Free(sub)
    }
}

// Get decodes and returns the element stored under key, if present.
func (s *Store[K, V]) Get(key K) (V, bool, error) {
    var zero V
    if err := s.checkOpen(); err != nil {
        return zero, false, err
    }
    if err := s.checkKey(key); err != nil {
        return zero, false, err
    }
    spread := s.spread(key)
    return s.segmentFor(spread).Get(key, spread)
}

// UnretrievedGet returns the raw substitute occupying key's slot, without
// decoding it through a factory — the building block Fault callers use to
// read the current substitute they intend to compare-and-swap against.
func (s *Store[K, V]) UnretrievedGet(key K) (segment.Substitute, bool) {
    spread := s.spread(key)
    return s.segmentFor(spread).UnretrievedGet(key, spread)
}

// ContainsKey reports whether key is present, without decoding it.
func (s *Store[K, V]) ContainsKey(key K) bool {
    spread := s.spread(key)
    return s.segmentFor(spread).Contains(key, spread)
}

// Put installs element under key, overwriting any existing entry, and
// returns whatever element was previously stored.
func (s *Store[K, V]) Put(ctx context.Context, key K, element V) (old V, hadOld bool, err error) {
    return s.put(ctx, key, element, false)
}

// PutIfAbsent installs element under key only if key is not already
// present.
func (s *Store[K, V]) PutIfAbsent(ctx context.Context, key K, element V) (old V, hadOld bool, err error) {
    return s.put(ctx, key, element, true)
}

func (s *Store[K, V]) put(ctx context.Context, key K, element V, onlyIfAbsent bool) (old V, hadOld bool, err error) {
    if err := s.checkOpen(); err != nil {
        return old, false, err
    }
    if err := s.checkKey(key); err != nil {
        return old, false, err
    }
    if err := checkElement(element); err != nil {
        return old, false, err
    }
    spread := s.spread(key)
    seg := s.segmentFor(spread)
    old, hadOld, displaced, err := seg.Put(key, spread, element, onlyIfAbsent)
    if err != nil || (onlyIfAbsent && hadOld) {
        return old, hadOld, err
    }
    werr := s.commitWrite(ctx, key, element, displaced, hadOld)
    return old, hadOld, werr
}

// Replace installs newElement under key only if key is already present.
func (s *Store[K, V]) Replace(ctx context.Context, key K, newElement V) (old V, hadOld bool, err error) {
    if err := s.checkOpen(); err != nil {
        return old, false, err
    }
    if err := s.checkKey(key); err != nil {
        return old, false, err
    }
    if err := checkElement(newElement); err != nil {
        return old, false, err
    }
    spread := s.spread(key)
    seg := s.segmentFor(spread)
    old, hadOld, displaced, err := seg.Replace(key, spread, newElement)
    if err != nil || !hadOld {
        return old, hadOld, err
    }
    werr := s.commitWrite(ctx, key, newElement, displaced, true)
    return old, hadOld, werr
}

// ReplaceIfEqual installs newElement only if key is present and eq reports
// the existing element equals oldElement.
func (s *Store[K, V]) ReplaceIfEqual(ctx context.Context, key K, oldElement, newElement V, eq func(existing, old V) bool) (replaced bool, err error) {
    if err := s.checkOpen(); err != nil {
        return false, err
    }
    if err := s.checkKey(key); err != nil {
        return false, err
    }
    if err := checkElement(newElement); err != nil {
        return false, err
    }
    spread := s.spread(key)
    seg := s.segmentFor(spread)
    _, replaced, displaced, err := seg.ReplaceIfEqual(key, spread, oldElement, newElement, eq)
    if err != nil || !replaced {
        return replaced, err
    }
    werr := s.commitWrite(ctx, key, newElement, displaced, true)
    return true, werr
}

// commitWrite runs the post-mutation fan-out common to Put/Replace/
// ReplaceIfEqual: OnUpdate fires only when notifyUpdate is set (replace or
// put-of-an-existing-key; a fresh insert has no displaced element to
// report), the displaced substitute is always freed, and any configured
// WriterManager is always mirrored regardless of whether this was an
// insert or an overwrite.
func (s *Store[K, V]) commitWrite(ctx context.Context, key K, element V, displaced segment.Substitute, notifyUpdate bool) error {
    if notifyUpdate {
        s.listeners.fireUpdate(displaced, element)
    }
    s.freeSubstitute(displaced)
    if s.writerManager != nil {
        if err := s.writerManager.Put(ctx, element); err != nil {
            s.logger.Warn("writer manager put failed", zap.Error(err))
            return &ErrStoreUpdate{Err: err, MutationSucceeded: true}
        }
    }
    return nil
}

// Remove deletes key unconditionally and returns whatever element had been
// stored there.
func (s *Store[K, V]) Remove(ctx context.Context, key K) (removed V, hadRemoved bool, err error) {
    return s.remove(ctx, key, nil)
}

// RemoveIfEqual deletes key only if eq reports the existing element equals
// expected.
func (s *Store[K, V]) RemoveIfEqual(ctx context.Context, key K, expected V, eq func(existing, expected V) bool) (removed bool, err error) {
    _, hadRemoved, rerr := s.remove(ctx, key, func(existing V) bool { return eq(existing, expected) })
    return hadRemoved, rerr
}

func (s *Store[K, V]) remove(ctx context.Context, key K, matcher func(V) bool) (removed V, hadRemoved bool, err error) {
    if err := s.checkOpen(); err != nil {
        return removed, false, err
    }
    if err := s.checkKey(key); err != nil {
        return removed, false, err
    }
    spread := s.spread(key)
    seg := s.segmentFor(spread)
    removed, hadRemoved, displaced, err := seg.Remove(key, spread, matcher)
    if err != nil || !hadRemoved {
        return removed, hadRemoved, err
    }
    s.listeners.fireRemove(displaced, removed)
    s.freeSubstitute(displaced)
    if s.writerManager != nil {
        if werr := s.writerManager.Remove(ctx, key); werr != nil {
            s.logger.Warn("writer manager remove failed", zap.Error(werr))
            return removed, true, &ErrStoreUpdate{Err: werr, MutationSucceeded: true}
        }
    }
    return removed, true, nil
}

// RemoveAll deletes every entry in the store.
func (s *Store[K, V]) RemoveAll() {
    for _, seg := range s.segments {
        seg.Clear()
    }
}

// Fault atomically replaces key's substitute from expect to fault, freeing
// whichever one it displaces. Requires the store to have been configured
// with WithFactory, since fault is meaningless for a heap-only store.
func (s *Store[K, V]) Fault(key K, expect, fault segment.Substitute) (bool, error) {
    if err := s.checkOpen(); err != nil {
        return false, err
    }
    if s.factory == nil {
        return false, ErrUnsupported
    }
    if err := s.checkKey(key); err != nil {
        return false, err
    }
    spread := s.spread(key)
    ok := s.segmentFor(spread).Fault(key, spread, expect, fault)
    if ok {
        s.listeners.fireFault(key, expect, fault)
    }
    return ok, nil
}

// TryFault is Fault's bounded-wait variant.
func (s *Store[K, V]) TryFault(key K, expect, fault segment.Substitute, timeout time.Duration) (bool, error) {
    if err := s.checkOpen(); err != nil {
        return false, err
    }
    if s.factory == nil {
        return false, ErrUnsupported
    }
    if err := s.checkKey(key); err != nil {
        return false, err
    }
    spread := s.spread(key)
    ok := s.segmentFor(spread).TryFault(key, spread, expect, fault, timeout)
    if ok {
        s.listeners.fireFault(key, expect, fault)
    }
    return ok, nil
}

// Evict removes key if its current substitute is referentially equal to
// maybeSubstitute (or unconditionally if maybeSubstitute is nil), notifying
// OnEvict rather than OnRemove.
func (s *Store[K, V]) Evict(key K, maybeSubstitute segment.Substitute) (V, bool, error) {
    var zero V
    if err := s.checkOpen(); err != nil {
        return zero, false, err
    }
    if err := s.checkKey(key); err != nil {
        return zero, false, err
    }
    spread := s.spread(key)
    evicted, ok, err := s.segmentFor(spread).Evict(key, spread, maybeSubstitute)
    if err != nil || !ok {
        return evicted, ok, err
    }
    s.listeners.fireEvict(key, evicted)
    return evicted, true, nil
}

// Size returns the number of entries in the store. It first attempts a
// lock-free two-pass estimate (snapshot count+modCount per segment, then
// re-check modCount stability); on continued churn across several retries
// it falls back to acquiring every segment's read lock, ascending by
// index, and summing Count() directly. The result saturates at
// math.MaxInt32.
func (s *Store[K, V]) Size() int {
    const retries = 2
    for attempt := 0; attempt <= retries; attempt++ {
        var sum int64
        modsBefore := make([]uint32, len(s.segments))
        for i, seg := range s.segments {
            modsBefore[i] = seg.ModCount()
        }
        for _, seg := range s.segments {
            sum += int64(seg.Count())
        }
        stable := true
        for i, seg := range s.segments {
            if seg.ModCount() != modsBefore[i] {
                stable = false
                break
            }
        }
        if stable {
            return saturateInt32(sum)
        }
    }

    for _, seg := range s.segments {
        seg.RLocker().Lock()
    }
    var sum int64
    for _, seg := range s.segments {
        sum += int64(seg.Count())
    }
    for i := len(s.segments) - 1; i >= 0; i-- {
        s.segments[i].RLocker().Unlock()
    }
    return saturateInt32(sum)
}

func saturateInt32(n int64) int {
    if n > math.MaxInt32 {
        return math.MaxInt32
    }
    return int(n)
}

// GetRandomSample collects up to targetSize substitutes satisfying filter,
// ring-scanning segments starting from the one hintHash maps to (or a
// fresh random hash, if hintHash is zero and no specific starting point is
// needed).
func (s *Store[K, V]) GetRandomSample(filter segment.SampleFilter, targetSize int, hintHash uint32) ([]segment.Sample[K, V], error) {
    if err := s.checkOpen(); err != nil {
        return nil, err
    }
    if targetSize <= 0 {
        return nil, ErrInvalidArgument
    }
    seed := hintHash
    if seed == 0 {
        seed = rand.Uint32()
    }
    spread := spreadhash.Spread(seed)
    start := spreadhash.SegmentIndex(spread, s.segmentShift, len(s.segments))

    out := make([]segment.Sample[K, V], 0, targetSize)
    n := len(s.segments)
    for i := 0; i < n && len(out) < targetSize; i++ {
        idx := (start + i) % n
        s.segments[idx].AddRandomSample(filter, targetSize, &out, spread)
    }
    return out, nil
}

// Keys returns a stateful iterator over every key in the store.
func (s *Store[K, V]) Keys() *KeyIterator[K, V] {
    return &KeyIterator[K, V]{w: newKeyWalker(s.segmentViews())}
}

// Elements returns a stateful iterator over every (key, element) pair in
// the store.
func (s *Store[K, V]) Elements() *ElementIterator[K, V] {
    return &ElementIterator[K, V]{w: newKeyWalker(s.segmentViews()), store: s}
}

func (s *Store[K, V]) segmentViews() []segmentView[K, V] {
    views := make([]segmentView[K, V], len(s.segments))
    for i, seg := range s.segments {
        views[i] = seg
    }
    return views
}

// KeySet returns a lazily constructed, cached KeyView over the store. Two
// concurrent first callers may each build a view; whichever wins the CAS
// is the one returned and retained, the other is discarded — safe, since
// views hold no state of their own beyond the store reference.
func (s *Store[K, V]) KeySet() *KeyView[K, V] {
    if v := s.keySetView.Load(); v != nil {
        return v
    }
    v := &KeyView[K, V]{store: s}
    if !s.keySetView.CompareAndSwap(nil, v) {
        return s.keySetView.Load()
    }
    return v
}

// ElementSet returns a lazily constructed, cached ElementView over the
// store, with the same racy-but-idempotent construction as KeySet.
func (s *Store[K, V]) ElementSet() *ElementView[K, V] {
    if v := s.elementSetView.Load(); v != nil {
        return v
    }
    v := &ElementView[K, V]{store: s}
    if !s.elementSetView.CompareAndSwap(nil, v) {
        return s.elementSetView.Load()
    }
    return v
}

// SyncFor returns a handle over the lock of the segment key hashes to. The
// lock is per-segment, not per-key, matching every other key hashing to
// the same segment.
func (s *Store[K, V]) SyncFor(key K) SyncHandle[K, V] {
    spread := s.spread(key)
    return SyncHandle[K, V]{seg: s.segmentFor(spread)}
}

// SyncProvider is a lazily constructed, cached wrapper around SyncFor, with
// the same racy-but-idempotent construction as KeySet/ElementSet.
type SyncProvider[K comparable, V any] struct {
    store *Store[K, V]
}

// For returns a handle over the lock of the segment key hashes to.
func (p *SyncProvider[K, V]) For(key K) SyncHandle[K, V] { return p.store.SyncFor(key) }

// SyncProvider returns the store's lazily constructed SyncProvider.
func (s *Store[K, V]) SyncProvider() *SyncProvider[K, V] {
    if v := s.syncProvider.Load(); v != nil {
        return v
    }
    v := &SyncProvider[K, V]{store: s}
    if !s.syncProvider.CompareAndSwap(nil, v) {
        return s.syncProvider.Load()
    }
    return v
}

// Status reports the store's lifecycle phase.
func (s *Store[K, V]) Status() Status { return Status(s.status.Load()) }

// Dispose tears the store down: it transitions Status to StatusShutdown and
// unbinds every configured factory, exactly once regardless of how many
// goroutines call it concurrently.
func (s *Store[K, V]) Dispose() error {
    var err error
    s.disposeOnce.Do(func() {
        s.status.Store(int32(StatusShutdown))
        if uerr := s.identityFactory.Unbind(s); uerr != nil {
            err = uerr
            return
        }
        if s.factory != nil {
            if uerr := s.factory.Unbind(s); uerr != nil {
                err = uerr
            }
        }
    })
    return err
}

// ApproximateHeapHitRate returns the mean of each segment's local heap hit
// rate (hits/(hits+misses)), excluding segments with no samples from the
// average.
func (s *Store[K, V]) ApproximateHeapHitRate() float64 {
    var sum float64
    var n int
    for _, seg := range s.segments {
        rate, hasSamples, _, _ := seg.HitRates()
        if hasSamples {
            sum += rate
            n++
        }
    }
    if n == 0 {
        return 0
    }
    return sum / float64(n)
}

// ApproximateDiskHitRate is ApproximateHeapHitRate's disk-tier counterpart.
func (s *Store[K, V]) ApproximateDiskHitRate() float64 {
    var sum float64
    var n int
    for _, seg := range s.segments {
        _, _, rate, hasSamples := seg.HitRates()
        if hasSamples {
            sum += rate
            n++
        }
    }
    if n == 0 {
        return 0
    }
    return sum / float64(n)
}
