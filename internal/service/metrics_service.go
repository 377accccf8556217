package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opencivic/civicflow-api/internal/models"
)

// MetricsService owns the Prometheus registry: HTTP request metrics plus a
// counter per accepted workflow transition.
type MetricsService struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	transitionsTotal *prometheus.CounterVec
}

// NewMetricsService constructs the service and registers collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())

	requestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Count of HTTP requests by method, path, and status.",
	}, []string{"method", "path", "status"})
	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method and path.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
	transitionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_transitions_total",
		Help: "Count of accepted workflow transitions by entity and edge.",
	}, []string{"entity", "from", "to"})

	registry.MustRegister(requestsTotal, requestDuration, transitionsTotal)
	return &MetricsService{
		registry:         registry,
		requestsTotal:    requestsTotal,
		requestDuration:  requestDuration,
		transitionsTotal: transitionsTotal,
	}
}

// ObserveRequest records one handled HTTP request.
func (s *MetricsService) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	s.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	s.requestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObserveTransition records one accepted workflow transition.
func (s *MetricsService) ObserveTransition(entity models.EntityKind, from, to string) {
	s.transitionsTotal.WithLabelValues(string(entity), from, to).Inc()
}

// Handler exposes the registry for scraping.
func (s *MetricsService) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
