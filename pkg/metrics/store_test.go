package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStoreMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStoreMetrics(reg)

	m.IncMutation("cart", "insert", OutcomeCommitted)
	m.IncMutation("cart", "insert", OutcomeCommitted)
	m.IncMutation("cart", "remove", OutcomeRolledBack)
	m.IncLoad("wishlist", OutcomeFailed)
	m.IncSnapshot("cart", OutcomeDiscarded)
	m.SubscriptionOpened("cart")
	m.SubscriptionOpened("cart")
	m.SubscriptionClosed("cart")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchValue(mfs, "store_mutations_total", map[string]string{"collection": "cart", "kind": "insert", "outcome": OutcomeCommitted}); err != nil {
		t.Fatalf("fetch mutations: %v", err)
	} else if got != 2 {
		t.Fatalf("expected 2 committed inserts, got %f", got)
	}

	if got, err := fetchValue(mfs, "store_mutations_total", map[string]string{"kind": "remove", "outcome": OutcomeRolledBack}); err != nil {
		t.Fatalf("fetch rollbacks: %v", err)
	} else if got != 1 {
		t.Fatalf("expected 1 rollback, got %f", got)
	}

	if got, err := fetchValue(mfs, "store_loads_total", map[string]string{"collection": "wishlist", "outcome": OutcomeFailed}); err != nil {
		t.Fatalf("fetch loads: %v", err)
	} else if got != 1 {
		t.Fatalf("expected 1 failed load, got %f", got)
	}

	if got, err := fetchValue(mfs, "store_snapshots_total", map[string]string{"outcome": OutcomeDiscarded}); err != nil {
		t.Fatalf("fetch snapshots: %v", err)
	} else if got != 1 {
		t.Fatalf("expected 1 discarded snapshot, got %f", got)
	}

	if got, err := fetchValue(mfs, "store_live_subscriptions", map[string]string{"collection": "cart"}); err != nil {
		t.Fatalf("fetch gauge: %v", err)
	} else if got != 1 {
		t.Fatalf("expected 1 live subscription, got %f", got)
	}
}

func TestStoreMetricsNilSafe(t *testing.T) {
	var m *StoreMetrics
	m.IncMutation("cart", "insert", OutcomeCommitted)
	m.SubscriptionOpened("cart")

	empty := NewStoreMetrics(nil)
	empty.IncLoad("cart", OutcomeSucceeded)
}

func fetchValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if !matchesLabels(metric.GetLabel(), labels) {
			continue
		}
		if c := metric.GetCounter(); c != nil {
			return c.GetValue(), nil
		}
		if g := metric.GetGauge(); g != nil {
			return g.GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	for name, value := range want {
		found := false
		for _, pair := range pairs {
			if pair.GetName() == name && pair.GetValue() == value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
