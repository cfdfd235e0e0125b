package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records storefront catalog and cart activity.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	catalogQueries  *prometheus.CounterVec
	catalogFetch    *prometheus.HistogramVec
	cartMutations   *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	cartEvents      *prometheus.CounterVec
}

// New registers the storefront metrics on the provided registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	catalogQueries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_catalog_queries_total",
		Help: "Catalog queries executed, by query mode.",
	}, []string{"mode"})
	catalogFetch := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_catalog_fetch_seconds",
		Help:    "Latency of catalog source fetches.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_mutations_total",
		Help: "Cart ledger mutations, by operation.",
	}, []string{"operation"})
	persistFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_persist_failures_total",
		Help: "Failed cart ledger saves, by operation.",
	}, []string{"operation"})
	cartEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_events_consumed_total",
		Help: "Cart events consumed from the event stream, by type.",
	}, []string{"type"})
	reg.MustRegister(catalogQueries, catalogFetch, cartMutations, persistFailures, cartEvents)
	return &Metrics{
		catalogQueries:  catalogQueries,
		catalogFetch:    catalogFetch,
		cartMutations:   cartMutations,
		persistFailures: persistFailures,
		cartEvents:      cartEvents,
	}
}

func (m *Metrics) IncCatalogQuery(mode string) {
	if m == nil || m.catalogQueries == nil {
		return
	}
	m.catalogQueries.WithLabelValues(normalizeLabel(mode)).Inc()
}

func (m *Metrics) ObserveCatalogFetch(operation string, d time.Duration, err error) {
	if m == nil || m.catalogFetch == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.catalogFetch.WithLabelValues(normalizeLabel(operation), outcome).Observe(d.Seconds())
}

func (m *Metrics) IncCartMutation(operation string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(operation)).Inc()
}

func (m *Metrics) IncPersistFailure(operation string) {
	if m == nil || m.persistFailures == nil {
		return
	}
	m.persistFailures.WithLabelValues(normalizeLabel(operation)).Inc()
}

func (m *Metrics) IncCartEvent(eventType string) {
	if m == nil || m.cartEvents == nil {
		return
	}
	m.cartEvents.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
