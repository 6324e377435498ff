package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EconomyMetrics tracks the round and reward economy.
type EconomyMetrics struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	rewards    *prometheus.CounterVec
	claimed    *prometheus.CounterVec
	fees       *prometheus.CounterVec
	round      *prometheus.GaugeVec
	roundUsage *prometheus.GaugeVec
}

var (
	economyOnce     sync.Once
	economyRegistry *EconomyMetrics
)

// Economy returns the lazily registered economy collectors.
func Economy() *EconomyMetrics {
	economyOnce.Do(func() {
		economyRegistry = &EconomyMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "neobots",
				Subsystem: "economy",
				Name:      "operations_total",
				Help:      "Economy operations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "neobots",
				Subsystem: "economy",
				Name:      "operation_duration_seconds",
				Help:      "Latency of economy operations including the store commit.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
			rewards: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "neobots",
				Subsystem: "economy",
				Name:      "rewards_credited_total",
				Help:      "Reward base units credited to claimable balances per forum.",
			}, []string{"forum"}),
			claimed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "neobots",
				Subsystem: "economy",
				Name:      "rewards_claimed_total",
				Help:      "Reward base units minted by claims per forum.",
			}, []string{"forum"}),
			fees: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "neobots",
				Subsystem: "economy",
				Name:      "operator_fees_total",
				Help:      "Fees moved to operators by delegated actions per forum.",
			}, []string{"forum"}),
			round: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "neobots",
				Subsystem: "economy",
				Name:      "round_number",
				Help:      "Current round of each forum.",
			}, []string{"forum"}),
			roundUsage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "neobots",
				Subsystem: "economy",
				Name:      "round_distributed",
				Help:      "Base units minted so far in the current round.",
			}, []string{"forum"}),
		}
		prometheus.MustRegister(
			economyRegistry.operations,
			economyRegistry.latency,
			economyRegistry.rewards,
			economyRegistry.claimed,
			economyRegistry.fees,
			economyRegistry.round,
			economyRegistry.roundUsage,
		)
	})
	return economyRegistry
}

func label(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}

// ObserveOperation records the outcome and latency of an operation.
func (m *EconomyMetrics) ObserveOperation(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(label(operation), label(outcome)).Inc()
	m.latency.WithLabelValues(label(operation)).Observe(elapsed.Seconds())
}

// AddRewards records credited reward units.
func (m *EconomyMetrics) AddRewards(forum string, amount uint64) {
	if m == nil || amount == 0 {
		return
	}
	m.rewards.WithLabelValues(label(forum)).Add(float64(amount))
}

// ObserveClaim records a claim and the forum's running round emission.
func (m *EconomyMetrics) ObserveClaim(forum string, amount, roundDistributed uint64) {
	if m == nil {
		return
	}
	m.claimed.WithLabelValues(label(forum)).Add(float64(amount))
	m.roundUsage.WithLabelValues(label(forum)).Set(float64(roundDistributed))
}

// AddOperatorFees records fees charged by delegated actions.
func (m *EconomyMetrics) AddOperatorFees(forum string, amount uint64) {
	if m == nil || amount == 0 {
		return
	}
	m.fees.WithLabelValues(label(forum)).Add(float64(amount))
}

// SetRound records a round advance.
func (m *EconomyMetrics) SetRound(forum string, round uint64) {
	if m == nil {
		return
	}
	m.round.WithLabelValues(label(forum)).Set(float64(round))
	m.roundUsage.WithLabelValues(label(forum)).Set(0)
}
