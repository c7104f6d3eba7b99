// Package metrics holds the Prometheus collectors shelf exports.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is a set of collectors registered on one registry. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	Recommendations    *prometheus.CounterVec
	RecommendDuration  prometheus.Histogram
	RecommendCache     *prometheus.CounterVec
	CatalogProducts    prometheus.Gauge
	HTTPRequests       *prometheus.CounterVec
	HTTPRequestLatency *prometheus.HistogramVec
}

// New registers shelf's collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Recommendations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelf_recommendations_total",
				Help: "Recommendation requests by result mode (empty, default, similar)",
			},
			[]string{"mode"},
		),
		RecommendDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "shelf_recommendation_duration_seconds",
				Help:    "Time spent answering a recommendation request",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
		),
		RecommendCache: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelf_recommendation_cache_total",
				Help: "Recommendation memo lookups by result (hit, miss)",
			},
			[]string{"result"},
		),
		CatalogProducts: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "shelf_catalog_products",
				Help: "Number of products in the loaded catalog",
			},
		),
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelf_http_requests_total",
				Help: "HTTP requests by route pattern and status code",
			},
			[]string{"route", "status"},
		),
		HTTPRequestLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shelf_http_request_duration_seconds",
				Help:    "HTTP request latency by route pattern",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// RecordRecommendation records one answered request.
func (m *Metrics) RecordRecommendation(mode string, d time.Duration) {
	if m == nil {
		return
	}
	m.Recommendations.WithLabelValues(mode).Inc()
	m.RecommendDuration.Observe(d.Seconds())
}

// RecordCache records a memo lookup.
func (m *Metrics) RecordCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.RecommendCache.WithLabelValues(result).Inc()
}

// SetCatalogSize sets the catalog gauge.
func (m *Metrics) SetCatalogSize(n int) {
	if m == nil {
		return
	}
	m.CatalogProducts.Set(float64(n))
}

// RecordHTTP records a served request.
func (m *Metrics) RecordHTTP(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPRequestLatency.WithLabelValues(route).Observe(d.Seconds())
}

// Handler serves the exposition format for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
