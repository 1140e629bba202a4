// Package metrics exposes Prometheus collectors for the HTTP surface, the
// reminder job and the cancellation webhook.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Reminder job metrics
	remindersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_total",
			Help: "Total number of reminder SMS attempts by outcome",
		},
		[]string{"status"},
	)

	reminderRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_runs_total",
			Help: "Total number of reminder job runs by result",
		},
		[]string{"result"},
	)

	reminderRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reminder_run_duration_seconds",
			Help:    "Reminder job run duration in seconds",
			Buckets: []float64{.1, .5, 1, 5, 15, 30, 60, 120, 300},
		},
	)

	smsLogWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sms_log_write_failures_total",
			Help: "Total number of SMS log entries that could not be persisted",
		},
	)

	// Webhook metrics
	inboundMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbound_sms_total",
			Help: "Total number of inbound SMS webhook deliveries by outcome",
		},
		[]string{"outcome"},
	)

	// Diagnosis metrics
	diagnosesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "symptom_checks_total",
			Help: "Total number of symptom checks evaluated",
		},
	)

	diagnosisMatches = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "symptom_check_matches",
			Help:    "Number of matching conditions per symptom check",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		c.Next()

		// FullPath is the registered template, so IDs never become labels
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// --- Business metric helpers ---

// RecordReminder records one reminder send attempt ("sent" or "failed")
func RecordReminder(status string) {
	remindersTotal.WithLabelValues(status).Inc()
}

// RecordReminderRun records a finished reminder job run
func RecordReminderRun(result string, duration time.Duration) {
	reminderRunsTotal.WithLabelValues(result).Inc()
	reminderRunDuration.Observe(duration.Seconds())
}

// RecordSMSLogWriteFailure records an SMS log entry that could not be stored
func RecordSMSLogWriteFailure() {
	smsLogWriteFailures.Inc()
}

// RecordInboundMessage records the outcome of an inbound SMS
func RecordInboundMessage(outcome string) {
	inboundMessagesTotal.WithLabelValues(outcome).Inc()
}

// RecordDiagnosis records a symptom check and how many conditions matched
func RecordDiagnosis(matches int) {
	diagnosesTotal.Inc()
	diagnosisMatches.Observe(float64(matches))
}
