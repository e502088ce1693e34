package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Lookup outcomes recorded on LookupsTotal.
const (
	OutcomeSuccess  = "success"
	OutcomeEmpty    = "empty"
	OutcomeError    = "error"
	OutcomeTimeout  = "timeout"
	OutcomeCanceled = "canceled"
)

// Metrics holds the Prometheus collectors for the rate lookup service.
type Metrics struct {
	LookupsTotal   *prometheus.CounterVec // labels: outcome={success,empty,error,timeout,canceled}
	LookupDuration prometheus.Histogram
	ResolvedPorts  *prometheus.HistogramVec // labels: side={origin,destination}
	DaysReturned   prometheus.Histogram
	StoreUp        prometheus.Gauge

	// HTTP layer.
	HTTPRequests *prometheus.CounterVec // labels: route, code
	RateLimited  prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.LookupsTotal,
		m.LookupDuration,
		m.ResolvedPorts,
		m.DaysReturned,
		m.StoreUp,
		m.HTTPRequests,
		m.RateLimited,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		LookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "port_rates",
			Name:      "lookups_total",
			Help:      "Rate lookups by outcome.",
		}, []string{"outcome"}),
		LookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "port_rates",
			Name:      "lookup_duration_seconds",
			Help:      "Duration of a complete resolve-resolve-aggregate lookup.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		ResolvedPorts: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "port_rates",
			Name:      "resolved_ports",
			Help:      "Number of ports an origin or destination identifier expanded to.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500},
		}, []string{"side"}),
		DaysReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "port_rates",
			Name:      "days_returned",
			Help:      "Number of daily rates returned per lookup.",
			Buckets:   []float64{0, 1, 7, 14, 31, 62, 93, 183, 366},
		}),
		StoreUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "port_rates",
			Name:      "store_up",
			Help:      "1 when the last readiness ping of the data store succeeded, 0 otherwise.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "port_rates",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "port_rates",
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}
}
