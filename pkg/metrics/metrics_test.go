package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewServerMetrics(reg, "order")

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/"+id, nil))
	}

	assert.Equal(t, float64(3), testutil.ToFloat64(m.Requests.WithLabelValues("GET /api/orders/{id}", "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.LatencyMS))
}

func TestOrderMetrics(t *testing.T) {
	var nilMetrics *OrderMetrics
	nilMetrics.OrderCreated()
	nilMetrics.Lookup(LookupResolved)

	reg := prometheus.NewRegistry()
	m := NewOrderMetrics(reg)
	m.OrderCreated()
	m.Lookup(LookupResolved)
	m.Lookup(LookupResolved)
	m.Lookup(LookupNotFound)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.OrdersCreated))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CatalogLookups.WithLabelValues(LookupResolved)))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, strings.Contains(rec.Body.String(), "shopnow_order_orders_created_total 1"))
}
