package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns the process metrics. Each Registry has its own prometheus
// registry so tests can build as many as they like.
type Registry struct {
	reg *prometheus.Registry

	// Document store
	StoreLoads    *prometheus.CounterVec
	StoreSaves    *prometheus.CounterVec
	StoreLatency  *prometheus.HistogramVec
	DocumentBytes prometheus.Gauge
	FleetShips    prometheus.Gauge

	// Domain operations
	Mutations     *prometheus.CounterVec
	LoginAttempts *prometheus.CounterVec

	// HTTP
	Requests    *prometheus.CounterVec
	RateLimited prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	loads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_store_loads_total",
		Help: "Document loads by result (fetched, cached, empty, fallback).",
	}, []string{"result"})
	saves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_store_saves_total",
		Help: "Document saves by result (saved, oversize, error).",
	}, []string{"result"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fleet_store_latency_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	docBytes := prometheus.NewGauge(prometheus.GaugeOpts{Name: "fleet_document_bytes"})
	ships := prometheus.NewGauge(prometheus.GaugeOpts{Name: "fleet_ships"})

	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_mutations_total",
	}, []string{"op", "result"})
	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_login_attempts_total",
	}, []string{"result"})

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_http_requests_total",
	}, []string{"method", "route", "status"})
	limited := prometheus.NewCounter(prometheus.CounterOpts{Name: "fleet_http_rate_limited_total"})

	r.MustRegister(loads, saves, latency, docBytes, ships, mutations, logins, requests, limited)
	return &Registry{
		reg:           r,
		StoreLoads:    loads,
		StoreSaves:    saves,
		StoreLatency:  latency,
		DocumentBytes: docBytes,
		FleetShips:    ships,
		Mutations:     mutations,
		LoginAttempts: logins,
		Requests:      requests,
		RateLimited:   limited,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
