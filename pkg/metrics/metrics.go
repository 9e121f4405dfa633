package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "athometyre"

type ServerMetrics struct {
	Requests        *prometheus.CounterVec
	LatencyMS       *prometheus.HistogramVec
	Checkouts       *prometheus.CounterVec
	OutboxPublished *prometheus.CounterVec
	StockAdjusted   *prometheus.CounterVec
}

// NewServerMetrics registers the collectors on reg, or on the default
// registry when reg is nil.
func NewServerMetrics(service string, reg prometheus.Registerer) *ServerMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "checkouts_total",
		Help:      "Checkout attempts by outcome code.",
	}, []string{"outcome"})
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "outbox_events_total",
		Help:      "Outbox events handled by result.",
	}, []string{"event_type", "result"})
	adjusted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "stock_adjustments_total",
		Help:      "Manual stock adjustments by type.",
	}, []string{"type", "clamped"})

	reg.MustRegister(requests, latency, checkouts, published, adjusted)
	return &ServerMetrics{
		Requests:        requests,
		LatencyMS:       latency,
		Checkouts:       checkouts,
		OutboxPublished: published,
		StockAdjusted:   adjusted,
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
