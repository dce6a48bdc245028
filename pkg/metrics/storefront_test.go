package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStorefrontMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewStorefrontMetrics(reg)

	metrics.IncCartMutation("add", "user")
	metrics.IncCartMutation("add", "user")
	metrics.IncCartMerge("merged")
	metrics.IncOrderPlaced("guest")
	metrics.IncRemoteWriteFailure()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "cart_mutations_total", "op", "add"); err != nil {
		t.Fatalf("fetch cart mutations: %v", err)
	} else if got != 2 {
		t.Fatalf("expected cart_mutations_total=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "cart_merges_total", "outcome", "merged"); err != nil {
		t.Fatalf("fetch cart merges: %v", err)
	} else if got != 1 {
		t.Fatalf("expected cart_merges_total=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "orders_placed_total", "owner", "guest"); err != nil {
		t.Fatalf("fetch orders placed: %v", err)
	} else if got != 1 {
		t.Fatalf("expected orders_placed_total=1, got %f", got)
	}
}

func TestStorefrontMetricsNilRegisterer(t *testing.T) {
	metrics := NewStorefrontMetrics(nil)
	// Must be safe no-ops.
	metrics.IncCartMutation("add", "user")
	metrics.IncCartMerge("skipped")
	metrics.IncOrderPlaced("user")
	metrics.IncRemoteWriteFailure()
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
