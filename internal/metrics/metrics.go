package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "oeo_pos"

type Metrics struct {
	Requests        *prometheus.CounterVec
	LatencyMS       *prometheus.HistogramVec
	Checkouts       *prometheus.CounterVec
	CheckoutRevenue *prometheus.CounterVec
	CartAdds        *prometheus.CounterVec
	CatalogCache    *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. Pass a fresh prometheus.NewRegistry()
// in tests to avoid duplicate registration panics.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status", "tenant"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkout attempts by tenant and outcome kind.",
		}, []string{"tenant", "outcome"}),
		CheckoutRevenue: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_revenue_total",
			Help:      "Sum of receipt totals by tenant and payment method.",
		}, []string{"tenant", "payment_method"}),
		CartAdds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_add_total",
			Help:      "Cart add attempts by tenant and outcome kind.",
		}, []string{"tenant", "outcome"}),
		CatalogCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_cache_lookups_total",
			Help:      "Catalog cache lookups by result.",
		}, []string{"result"}),
		gatherer: reg,
	}

	reg.MustRegister(m.Requests, m.LatencyMS, m.Checkouts, m.CheckoutRevenue, m.CartAdds, m.CatalogCache)
	return m
}

// NewDefault registers on a new registry that also exposes Go runtime and process collectors
func NewDefault() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return New(reg)
}

// Outcome labels a result by its error kind, "ok" on success
func Outcome(kind string) string {
	if kind == "" {
		return "ok"
	}
	return kind
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveCheckout records a checkout attempt. total is only added on success.
func (m *Metrics) ObserveCheckout(tenant, kind, paymentMethod string, total float64) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(tenant, Outcome(kind)).Inc()
	if kind == "" {
		m.CheckoutRevenue.WithLabelValues(tenant, paymentMethod).Add(total)
	}
}

func (m *Metrics) ObserveCartAdd(tenant, kind string) {
	if m == nil {
		return
	}
	m.CartAdds.WithLabelValues(tenant, Outcome(kind)).Inc()
}

func (m *Metrics) ObserveCatalogCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CatalogCache.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRequest(route, status, tenant string, elapsedMS float64) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(route, status, tenant).Inc()
	m.LatencyMS.WithLabelValues(route).Observe(elapsedMS)
}
