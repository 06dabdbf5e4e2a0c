package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New("ordering")

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/products/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/"+id, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/products/{id}", "404")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.statusCategory.WithLabelValues("4xx")))
}

func TestObservers(t *testing.T) {
	m := New("ordering")

	m.ObserveCache("products", true)
	m.ObserveCache("products", false)
	m.ObserveCache("products", false)
	m.ObserveNotification("creating-order", "published")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.cache.WithLabelValues("products", "hit")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.cache.WithLabelValues("products", "miss")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.notifications.WithLabelValues("creating-order", "published")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New("ordering")
	m.ObserveCache("orders", true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `cache_requests_total{result="hit",service="ordering",tag="orders"} 1`)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveCache("orders", true)
		m.ObserveNotification("creating-order", "dropped")
	})

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	rec := httptest.NewRecorder()
	m.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
