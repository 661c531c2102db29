// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Run metrics
	RunsTotal          *prometheus.CounterVec
	RunDuration        prometheus.Histogram
	CandidatesFetched  prometheus.Counter
	CandidatesAdmitted *prometheus.CounterVec
	CandidatesSelected prometheus.Counter
	OrdersTotal        *prometheus.CounterVec
	RunInProgress      prometheus.Gauge

	// Registrar metrics
	RegistrarLatency *prometheus.HistogramVec
	RegistrarErrors  *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "domain_agent"
	}

	return &Metrics{
		// Run metrics
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "purchase",
			Name:      "runs_total",
			Help:      "Total number of purchase runs by trigger and status",
		}, []string{"trigger", "status"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "purchase",
			Name:      "run_duration_seconds",
			Help:      "Purchase run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		CandidatesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "droplist",
			Name:      "candidates_fetched_total",
			Help:      "Total number of drop-list entries fetched",
		}),
		CandidatesAdmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "droplist",
			Name:      "candidates_admitted_total",
			Help:      "Total number of newly seen domains by source",
		}, []string{"source"}),
		CandidatesSelected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "purchase",
			Name:      "candidates_selected_total",
			Help:      "Total number of candidates selected for purchase",
		}),
		OrdersTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "purchase",
			Name:      "orders_total",
			Help:      "Total number of order outcomes by result",
		}, []string{"result"}),
		RunInProgress: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "purchase",
			Name:      "run_in_progress",
			Help:      "1 while a purchase run is executing",
		}),

		// Registrar metrics
		RegistrarLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "registrar",
			Name:      "request_duration_seconds",
			Help:      "Registrar API request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "code"}),
		RegistrarErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registrar",
			Name:      "request_errors_total",
			Help:      "Total number of failed registrar requests",
		}, []string{"endpoint"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last completed purchase run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRun records a finished purchase run.
func RecordRun(trigger, status string, durationSeconds float64) {
	DefaultMetrics.RunsTotal.WithLabelValues(trigger, status).Inc()
	DefaultMetrics.RunDuration.Observe(durationSeconds)
}

// RecordCandidates records the funnel sizes of one run.
func RecordCandidates(fetched, admitted, selected int) {
	DefaultMetrics.CandidatesFetched.Add(float64(fetched))
	DefaultMetrics.CandidatesAdmitted.WithLabelValues("api").Add(float64(admitted))
	DefaultMetrics.CandidatesSelected.Add(float64(selected))
}

// RecordFileAdmitted records domains admitted from file ingestion.
func RecordFileAdmitted(n int) {
	DefaultMetrics.CandidatesAdmitted.WithLabelValues("file").Add(float64(n))
}

// RecordOrder records one order outcome.
func RecordOrder(success bool) {
	result := "failed"
	if success {
		result = "success"
	}
	DefaultMetrics.OrdersTotal.WithLabelValues(result).Inc()
}

// SetRunInProgress flips the run-in-progress gauge.
func SetRunInProgress(running bool) {
	if running {
		DefaultMetrics.RunInProgress.Set(1)
		return
	}
	DefaultMetrics.RunInProgress.Set(0)
}

// RecordRegistrarRequest records registrar request latency.
// status is the HTTP status code, or 0 when no response arrived.
func RecordRegistrarRequest(endpoint string, status int, seconds float64) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	DefaultMetrics.RegistrarLatency.WithLabelValues(endpoint, code).Observe(seconds)
	if status == 0 || status >= http.StatusInternalServerError {
		DefaultMetrics.RegistrarErrors.WithLabelValues(endpoint).Inc()
	}
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// SetLastSuccessfulRun records the completion time of a run.
func SetLastSuccessfulRun(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulRun.Set(float64(unixSeconds))
}
