package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the store counters.
const (
	OutcomeCommitted  = "committed"
	OutcomeRolledBack = "rolled_back"
	OutcomeRejected   = "rejected"
	OutcomeSucceeded  = "succeeded"
	OutcomeFailed     = "failed"
	OutcomeSuperseded = "superseded"
	OutcomeApplied    = "applied"
	OutcomeDiscarded  = "discarded"
)

// StoreMetrics records reconciliation activity per collection.
type StoreMetrics struct {
	mutations     *prometheus.CounterVec
	loads         *prometheus.CounterVec
	snapshots     *prometheus.CounterVec
	subscriptions *prometheus.GaugeVec
}

// NewStoreMetrics registers the store metrics on the provided registerer.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_mutations_total",
		Help: "Optimistic mutations by collection, kind and outcome.",
	}, []string{"collection", "kind", "outcome"})
	loads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_loads_total",
		Help: "Authoritative fetches by collection and outcome.",
	}, []string{"collection", "outcome"})
	snapshots := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_snapshots_total",
		Help: "Subscription snapshots applied or discarded as stale.",
	}, []string{"collection", "outcome"})
	subscriptions := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "store_live_subscriptions",
		Help: "Subscriptions currently open per collection.",
	}, []string{"collection"})
	reg.MustRegister(mutations, loads, snapshots, subscriptions)
	return &StoreMetrics{
		mutations:     mutations,
		loads:         loads,
		snapshots:     snapshots,
		subscriptions: subscriptions,
	}
}

func (m *StoreMetrics) IncMutation(collection, kind, outcome string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(collection), normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}

func (m *StoreMetrics) IncLoad(collection, outcome string) {
	if m == nil || m.loads == nil {
		return
	}
	m.loads.WithLabelValues(normalizeLabel(collection), normalizeLabel(outcome)).Inc()
}

func (m *StoreMetrics) IncSnapshot(collection, outcome string) {
	if m == nil || m.snapshots == nil {
		return
	}
	m.snapshots.WithLabelValues(normalizeLabel(collection), normalizeLabel(outcome)).Inc()
}

// SubscriptionOpened and SubscriptionClosed must be called in pairs.
func (m *StoreMetrics) SubscriptionOpened(collection string) {
	if m == nil || m.subscriptions == nil {
		return
	}
	m.subscriptions.WithLabelValues(normalizeLabel(collection)).Inc()
}

func (m *StoreMetrics) SubscriptionClosed(collection string) {
	if m == nil || m.subscriptions == nil {
		return
	}
	m.subscriptions.WithLabelValues(normalizeLabel(collection)).Dec()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
