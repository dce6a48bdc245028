package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics records the counters the storefront emits: cart
// mutations, merge outcomes, and orders placed.
type StorefrontMetrics struct {
	cartMutations  *prometheus.CounterVec
	cartMerges     *prometheus.CounterVec
	ordersPlaced   *prometheus.CounterVec
	remoteWriteErr prometheus.Counter
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation and owner kind.",
	}, []string{"op", "owner"})
	cartMerges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_merges_total",
		Help: "Guest cart merge attempts by outcome.",
	}, []string{"outcome"})
	ordersPlaced := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders placed by owner kind.",
	}, []string{"owner"})
	remoteWriteErr := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_remote_write_failures_total",
		Help: "Cart writes absorbed after exhausting remote store retries.",
	})
	reg.MustRegister(cartMutations, cartMerges, ordersPlaced, remoteWriteErr)
	return &StorefrontMetrics{
		cartMutations:  cartMutations,
		cartMerges:     cartMerges,
		ordersPlaced:   ordersPlaced,
		remoteWriteErr: remoteWriteErr,
	}
}

// IncCartMutation counts one cart mutation for the given operation.
func (m *StorefrontMetrics) IncCartMutation(op, owner string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op), normalizeLabel(owner)).Inc()
}

// IncCartMerge counts one merge attempt with its outcome.
func (m *StorefrontMetrics) IncCartMerge(outcome string) {
	if m == nil || m.cartMerges == nil {
		return
	}
	m.cartMerges.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncOrderPlaced counts one placed order.
func (m *StorefrontMetrics) IncOrderPlaced(owner string) {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.WithLabelValues(normalizeLabel(owner)).Inc()
}

// IncRemoteWriteFailure counts one absorbed remote cart write failure.
func (m *StorefrontMetrics) IncRemoteWriteFailure() {
	if m == nil || m.remoteWriteErr == nil {
		return
	}
	m.remoteWriteErr.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
