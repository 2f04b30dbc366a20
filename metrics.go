package storefront

import (
	"sync/atomic"
	"time"
)

// MetricID names one in-process counter or histogram.
type MetricID uint16

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricLoginRateLimited
	MetricLogout
	MetricSessionValid
	MetricSessionRejected
	MetricSessionRefreshed
	MetricSessionRefreshFailed
	MetricRegisterSuccess
	MetricRegisterFailure
	MetricRegisterRateLimited
	MetricContactSent
	MetricContactSimulated
	MetricContactFailure
	MetricContactRateLimited
	MetricBookingSent
	MetricCheckoutSuccess
	MetricCheckoutFailure
	MetricCacheHit
	MetricCacheMiss
	MetricUpstreamError
	MetricAuthenticateLatency
	MetricUpstreamLatency
	metricIDCount
)

// latencyMetrics are the histogram-backed IDs; every other ID is a counter.
var latencyMetrics = [...]MetricID{MetricAuthenticateLatency, MetricUpstreamLatency}

// latencyBounds are the inclusive upper bounds of the first seven buckets.
// The eighth bucket takes everything slower.
var latencyBounds = [...]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

const (
	histBucketCount = len(latencyBounds) + 1
	cacheLineSize   = 64
)

// slot is one counter padded to its own cache line.
type slot struct {
	n atomic.Uint64
	_ [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters and fixed-bucket latency histograms.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]slot
	histograms    [len(latencyMetrics)][histBucketCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of all metrics. Histogram slices
// hold per-bucket (non-cumulative) counts.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc bumps a counter. Latency IDs are ignored.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount || latencySlot(id) >= 0 {
		return
	}
	m.counters[id].n.Add(1)
}

// Observe records d in the histogram for id. Only latency metrics accept
// observations.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency {
		return
	}
	if h := latencySlot(id); h >= 0 {
		m.histograms[h][bucketIndex(d)].Add(1)
	}
}

// ObserveSince records the time elapsed since start.
func (m *Metrics) ObserveSince(id MetricID, start time.Time) {
	m.Observe(id, time.Since(start))
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return m.counters[id].n.Load()
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
	if m == nil || !m.enabled {
		return s
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if latencySlot(id) < 0 {
			s.Counters[id] = m.counters[id].n.Load()
		}
	}
	if m.enableLatency {
		for h, id := range latencyMetrics {
			buckets := make([]uint64, histBucketCount)
			for i := range buckets {
				buckets[i] = m.histograms[h][i].Load()
			}
			s.Histograms[id] = buckets
		}
	}
	return s
}

func latencySlot(id MetricID) int {
	for i, l := range latencyMetrics {
		if l == id {
			return i
		}
	}
	return -1
}

func bucketIndex(d time.Duration) int {
	d = d.Truncate(time.Millisecond)
	for i, bound := range latencyBounds {
		if d <= bound {
			return i
		}
	}
	return len(latencyBounds)
}
