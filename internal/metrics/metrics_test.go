package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestCountersAreExposed(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Checkouts.WithLabelValues("oeo", Outcome("")).Inc()
	m.Checkouts.WithLabelValues("oeo", Outcome("empty_cart")).Inc()
	m.CheckoutRevenue.WithLabelValues("oeo", "cash").Add(300)

	body := scrape(t, m)
	assert.Contains(t, body, `oeo_pos_checkouts_total{outcome="ok",tenant="oeo"} 1`)
	assert.Contains(t, body, `oeo_pos_checkouts_total{outcome="empty_cart",tenant="oeo"} 1`)
	assert.Contains(t, body, `oeo_pos_checkout_revenue_total{payment_method="cash",tenant="oeo"} 300`)
}

func TestNewDefault_IncludesRuntimeCollectors(t *testing.T) {
	assert.Contains(t, scrape(t, NewDefault()), "go_goroutines")
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(""))
	assert.Equal(t, "out_of_stock", Outcome("out_of_stock"))
}

func TestObserve_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCheckout("oeo", "", "cash", 10)
		m.ObserveCartAdd("oeo", "out_of_stock")
		m.ObserveCatalogCache(true)
		m.ObserveRequest("/api/pos/cart", "200", "oeo", 3)
	})
}

func TestObserveCheckout_RevenueOnlyOnSuccess(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveCheckout("supermart", "", "card", 250)
	m.ObserveCheckout("supermart", "out_of_stock", "card", 999)
	m.ObserveCatalogCache(false)

	body := scrape(t, m)
	assert.Contains(t, body, `oeo_pos_checkout_revenue_total{payment_method="card",tenant="supermart"} 250`)
	assert.Contains(t, body, `oeo_pos_checkouts_total{outcome="out_of_stock",tenant="supermart"} 1`)
	assert.Contains(t, body, `oeo_pos_catalog_cache_lookups_total{result="miss"} 1`)
}
