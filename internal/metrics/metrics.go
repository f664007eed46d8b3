package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	backtestsTotal   *prometheus.CounterVec
	backtestDuration prometheus.Histogram
	runsInFlight     prometheus.Gauge
	authAttempts     *prometheus.CounterVec
	exportsTotal     *prometheus.CounterVec
	workspaces       prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strategylab_backtests_total",
			Help: "Total number of backtest runs by outcome",
		},
		[]string{"status"},
	)
	r.backtestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "strategylab_backtest_duration_seconds",
			Help:    "Round-trip time of backtest requests to the backend",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)
	r.runsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "strategylab_runs_in_flight",
			Help: "Number of backtest runs awaiting a backend response",
		},
	)
	r.authAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strategylab_auth_attempts_total",
			Help: "Login and signup attempts by outcome",
		},
		[]string{"kind", "status"},
	)
	r.exportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strategylab_exports_total",
			Help: "Trade history exports by format",
		},
		[]string{"format"},
	)
	r.workspaces = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "strategylab_workspaces",
			Help: "Number of live per-session workspaces",
		},
	)

	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)
	reg.MustRegister(r.runsInFlight)
	reg.MustRegister(r.authAttempts)
	reg.MustRegister(r.exportsTotal)
	reg.MustRegister(r.workspaces)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RunStarted marks a backtest run as awaiting the backend.
func (r *Registry) RunStarted() {
	r.runsInFlight.Inc()
}

// RecordBacktest records a finished run. Status is "success", "failed"
// or "discarded".
func (r *Registry) RecordBacktest(status string, duration float64) {
	r.runsInFlight.Dec()
	r.backtestsTotal.WithLabelValues(status).Inc()
	r.backtestDuration.Observe(duration)
}

// RecordAuth records a login or signup attempt.
func (r *Registry) RecordAuth(kind string, ok bool) {
	status := "success"
	if !ok {
		status = "failed"
	}
	r.authAttempts.WithLabelValues(kind, status).Inc()
}

// RecordExport records a trade history download.
func (r *Registry) RecordExport(format string) {
	r.exportsTotal.WithLabelValues(format).Inc()
}

// SetWorkspaces sets the number of live workspaces.
func (r *Registry) SetWorkspaces(count int) {
	r.workspaces.Set(float64(count))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
