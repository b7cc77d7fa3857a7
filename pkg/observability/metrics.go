package observability

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Metrics records router metrics. Timings are observed in seconds.
type Metrics interface {
	Counter(name string, value int64, tags ...Tag)
	Gauge(name string, value float64, tags ...Tag)
	Histogram(name string, value float64, tags ...Tag)
	Timing(name string, duration time.Duration, tags ...Tag)
}

// Tag is a metric label.
type Tag struct {
	Key   string
	Value string
}

// T creates a Tag.
func T(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) Counter(string, int64, ...Tag)        {}
func (NoopMetrics) Gauge(string, float64, ...Tag)        {}
func (NoopMetrics) Histogram(string, float64, ...Tag)    {}
func (NoopMetrics) Timing(string, time.Duration, ...Tag) {}

// InMemoryMetrics keeps every series in memory. The memory backend and tests
// use it.
type InMemoryMetrics struct {
	mu           sync.RWMutex
	counters     map[string]int64
	gauges       map[string]float64
	observations map[string][]float64
}

func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters:     make(map[string]int64),
		gauges:       make(map[string]float64),
		observations: make(map[string][]float64),
	}
}

func (m *InMemoryMetrics) Counter(name string, value int64, tags ...Tag) {
	m.mu.Lock()
	m.counters[seriesKey(name, tags)] += value
	m.mu.Unlock()
}

func (m *InMemoryMetrics) Gauge(name string, value float64, tags ...Tag) {
	m.mu.Lock()
	m.gauges[seriesKey(name, tags)] = value
	m.mu.Unlock()
}

func (m *InMemoryMetrics) Histogram(name string, value float64, tags ...Tag) {
	key := seriesKey(name, tags)
	m.mu.Lock()
	m.observations[key] = append(m.observations[key], value)
	m.mu.Unlock()
}

func (m *InMemoryMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	m.Histogram(name, duration.Seconds(), tags...)
}

// GetCounter returns a counter's total; tag order does not matter.
func (m *InMemoryMetrics) GetCounter(name string, tags ...Tag) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[seriesKey(name, tags)]
}

func (m *InMemoryMetrics) GetGauge(name string, tags ...Tag) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gauges[seriesKey(name, tags)]
}

// Observations returns a copy of the values recorded by Histogram and Timing.
func (m *InMemoryMetrics) Observations(name string, tags ...Tag) []float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]float64(nil), m.observations[seriesKey(name, tags)]...)
}

// seriesKey renders name{k=v,...} with keys sorted.
func seriesKey(name string, tags []Tag) string {
	if len(tags) == 0 {
		return name
	}
	pairs := make([]string, len(tags))
	for i, t := range tags {
		pairs[i] = t.Key + "=" + t.Value
	}
	sort.Strings(pairs)
	return name + "{" + strings.Join(pairs, ",") + "}"
}

// Metric names. Prometheus exports them with dots replaced by underscores.
const (
	MetricOperationTotal    = "beaver.operation.total"
	MetricOperationDuration = "beaver.operation.duration"
	MetricOperationErrors   = "beaver.operation.errors"

	MetricProductsCreated      = "beaver.products.created"
	MetricSubscriptionsStarted = "beaver.subscriptions.started"
	MetricSubscriptionsEnded   = "beaver.subscriptions.terminated"
	MetricPaymentsCollected    = "beaver.payments.collected"
	MetricPaymentsRejected     = "beaver.payments.rejected"

	MetricKeeperScans    = "beaver.keeper.scans"
	MetricKeeperAttempts = "beaver.keeper.attempts"

	MetricCacheHits   = "beaver.cache.hits"
	MetricCacheMisses = "beaver.cache.misses"

	MetricEventsPublished = "beaver.events.published"
	MetricEventsFailed    = "beaver.events.failed"
	MetricOutboxLag       = "beaver.outbox.lag_seconds"
)
