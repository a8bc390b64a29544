package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sofilmy",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sofilmy",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 20},
	}, []string{"method", "path"})

	SourceRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sofilmy",
		Name:      "source_requests_total",
		Help:      "Total requests to media sources by source name and result status.",
	}, []string{"source", "status"})

	SourceRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sofilmy",
		Name:      "source_request_duration_seconds",
		Help:      "Media source request duration in seconds.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"source"})

	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sofilmy",
		Name:      "cache_hits_total",
		Help:      "Total number of TTL cache hits by purpose prefix.",
	}, []string{"purpose"})

	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sofilmy",
		Name:      "cache_misses_total",
		Help:      "Total number of TTL cache misses by purpose prefix.",
	}, []string{"purpose"})

	ChatMessagesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sofilmy",
		Name:      "chat_messages_total",
		Help:      "Total chat messages persisted.",
	})

	ChatClientsConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sofilmy",
		Name:      "chat_clients_connected",
		Help:      "Currently connected realtime chat clients.",
	})

	ClassifierRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sofilmy",
		Name:      "classifier_requests_total",
		Help:      "Total mood classification calls by result status.",
	}, []string{"status"})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		SourceRequestsTotal,
		SourceRequestDuration,
		CacheHitsTotal,
		CacheMissesTotal,
		ChatMessagesTotal,
		ChatClientsConnected,
		ClassifierRequestsTotal,
	)
}
