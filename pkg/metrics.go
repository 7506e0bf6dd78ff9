package store

// metrics.go contains a thin abstraction over Prometheus so that the store
// can be used with or without metrics. When the caller passes a
// *prometheus.Registry to New via WithMetrics, unlabeled store-wide
// collectors are created and registered; otherwise a no-op sink is used.
//
// All per-tier counters are segment-scoped on the way in but aggregated
// across the whole store before being exported — a single store typically
// has dozens of segments and per-segment labels would make dashboards
// unreadable for little benefit, since segment assignment is an
// implementation detail of hashing, not a property callers reason about.
//
// Method names are exported (IncHeapHit, not incHeapHit) so that this type
// satisfies internal/segment.MetricsSink directly — each Segment reports
// straight into it on every hit and miss.
//
// ┌────────────────────────────────────┐
// │ Metric                  │ Type     │
// ├──────────────────────────┼─────────┤
// │ store_heap_hits_total    │ Counter │
// │ store_heap_misses_total  │ Counter │
// │ store_disk_hits_total    │ Counter │
// │ store_disk_misses_total  │ Counter │
// │ store_faults_total       │ Counter │
// │ store_evictions_total    │ Counter │
// │ store_rehashes_total     │ Counter │
// │ store_segments           │ Gauge   │
// └────────────────────────────────────┘
//
// © 2025 arena-cache authors. MIT License.

import (
    "github.com/prometheus/client_golang/prometheus"

    "github.com/muthumcapec31/ehcache2/internal/segment"
)

// metricsSink is an internal interface abstracting away the concrete
// backend (Prometheus vs noop). It is not exposed outside the package;
// Store only knows about the methods here.
type metricsSink interface {
    segment.MetricsSink
    SetSegmentCount(n int)
}

type noopMetrics struct{}

func (noopMetrics) IncHeapHit()        {}
func (noopMetrics) IncHeapMiss()       {}
func (noopMetrics) IncDiskHit()        {}
func (noopMetrics) IncDiskMiss()       {}
func (noopMetrics) IncFault()          {}
func (noopMetrics) IncEviction()       {}
func (noopMetrics) IncRehash()         {}
func (noopMetrics) SetSegmentCount(int) {}

type promMetrics struct {
    heapHits   prometheus.Counter
    heapMisses prometheus.Counter
    diskHits   prometheus.Counter
    diskMisses prometheus.Counter
    faults     prometheus.Counter
    evictions  prometheus.Counter
    rehashes   prometheus.Counter
    segments   prometheus.Gauge
}

func newPromMetrics(reg *prometheus.Registry) *promMetrics {
    pm := &promMetrics{
        heapHits: prometheus.NewCounter(prometheus.CounterOpts{
            Namespace: "store", Name: "heap_hits_total",
            Help: "Number of Get calls resolved against a heap-resident substitute.",
        }),
        heapMisses: prometheus.NewCounter(prometheus.CounterOpts{
            Namespace: "store", Name: "heap_misses_total",
            Help: "Number of Get calls whose heap-resident substitute could not be decoded.",
        }),
        diskHits: prometheus.NewCounter(prometheus.CounterOpts{
            Namespace: "store", Name: "disk_hits_total",
            Help: "Number of Get calls resolved against a disk-backed proxy substitute.",
        }),
        diskMisses: prometheus.NewCounter(prometheus.CounterOpts{
            Namespace: "store", Name: "disk_misses_total",
            Help: "Number of Get calls whose disk-backed proxy substitute could not be decoded.",
        }),
        faults: prometheus.NewCounter(prometheus.CounterOpts{
            Namespace: "store", Name: "faults_total",
            Help: "Number of successful Fault/TryFault substitute swaps.",
        }),
        evictions: prometheus.NewCounter(prometheus.CounterOpts{
            Namespace: "store", Name: "evictions_total",
            Help: "Number of entries removed via Evict.",
        }),
        rehashes: prometheus.NewCounter(prometheus.CounterOpts{
            Namespace: "store", Name: "rehashes_total",
            Help: "Number of segment table doublings across the store.",
        }),
        segments: prometheus.NewGauge(prometheus.GaugeOpts{
            Namespace: "store", Name: "segments",
            Help: "Number of lock stripes configured for this store.",
        }),
    }
    reg.MustRegister(pm.heapHits, pm.heapMisses, pm.diskHits, pm.diskMisses,
        pm.faults, pm.evictions, pm.rehashes, pm.segments)
    return pm
}

func (m *promMetrics) IncHeapHit()          { m.heapHits.Inc() }
func (m *promMetrics) IncHeapMiss()         { m.heapMisses.Inc() }
func (m *promMetrics) IncDiskHit()          { m.diskHits.Inc() }
func (m *promMetrics) IncDiskMiss()         { m.diskMisses.Inc() }
func (m *promMetrics) IncFault()            { m.faults.Inc() }
func (m *promMetrics) IncEviction()         { m.evictions.Inc() }
func (m *promMetrics) IncRehash()           { m.rehashes.Inc() }
func (m *promMetrics) SetSegmentCount(n int) { m.segments.Set(float64(n)) }

// newMetricsSink decides which implementation to use. reg may be nil, in
// which case metrics collection is disabled entirely.
func newMetricsSink(reg *prometheus.Registry) metricsSink {
    if reg == nil {
        return noopMetrics{}
    }
    return newPromMetrics(reg)
}
