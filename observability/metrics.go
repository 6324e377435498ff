package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type storeMetrics struct {
	commits   *prometheus.CounterVec
	latency   prometheus.Histogram
	records   prometheus.Histogram
	conflicts prometheus.Counter
}

var (
	storeMetricsOnce sync.Once
	storeRegistry    *storeMetrics
)

// StoreMetrics returns the lazily-initialised registry tracking record store
// commits.
func StoreMetrics() *storeMetrics {
	storeMetricsOnce.Do(func() {
		storeRegistry = &storeMetrics{
			commits: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "neobots",
				Subsystem: "store",
				Name:      "commits_total",
				Help:      "Record store commits segmented by outcome.",
			}, []string{"outcome"}),
			latency: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "neobots",
				Subsystem: "store",
				Name:      "commit_duration_seconds",
				Help:      "Time spent validating and writing a commit batch.",
				Buckets:   prometheus.DefBuckets,
			}),
			records: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "neobots",
				Subsystem: "store",
				Name:      "commit_records",
				Help:      "Number of records written per commit.",
				Buckets:   []float64{1, 2, 4, 8, 16, 32, 64},
			}),
			conflicts: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "neobots",
				Subsystem: "store",
				Name:      "conflicts_total",
				Help:      "Commits rejected because a read record changed concurrently.",
			}),
		}
		prometheus.MustRegister(storeRegistry.commits, storeRegistry.latency, storeRegistry.records, storeRegistry.conflicts)
	})
	return storeRegistry
}

// ObserveCommit records a commit attempt.
func (m *storeMetrics) ObserveCommit(outcome string, records int, duration time.Duration) {
	if m == nil {
		return
	}
	outcome = strings.TrimSpace(outcome)
	if outcome == "" {
		outcome = "unknown"
	}
	m.commits.WithLabelValues(outcome).Inc()
	m.latency.Observe(duration.Seconds())
	if records > 0 {
		m.records.Observe(float64(records))
	}
}

// RecordConflict increments the optimistic conflict counter.
func (m *storeMetrics) RecordConflict() {
	if m == nil {
		return
	}
	m.conflicts.Inc()
}
