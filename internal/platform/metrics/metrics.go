package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cart_tracker"

// Job results recorded by RecordJob.
const (
	JobPersisted = "persisted"
	JobFailed    = "failed"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path"},
	)

	itemsAccepted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "items_accepted_total",
			Help:      "Items accepted and handed to the persistence queue.",
		},
		[]string{"new_cart"},
	)

	itemsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "items_rejected_total",
			Help:      "Items rejected before enqueue, by reason.",
		},
		[]string{"reason"},
	)

	enqueueFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "enqueue_failures_total",
			Help:      "Jobs the dispatcher could not hand to its transport.",
		},
		[]string{"transport"},
	)

	jobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "jobs_total",
			Help:      "Persistence jobs executed, by transport and result.",
		},
		[]string{"transport", "result"},
	)

	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "job_duration_seconds",
			Help:      "Duration of persistence jobs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"transport"},
	)

	deadLetters = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "dead_letters_total",
			Help:      "Jobs that failed permanently and were dead-lettered.",
		},
		[]string{"transport", "reason"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		itemsAccepted,
		itemsRejected,
		enqueueFailures,
		jobs,
		jobDuration,
		deadLetters,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
// Requests are labelled with the matched chi route pattern so that path
// cardinality stays bounded.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := routePattern(r)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

// RecordAccepted counts an item that was handed to the dispatcher.
func RecordAccepted(newCart bool) {
	itemsAccepted.WithLabelValues(strconv.FormatBool(newCart)).Inc()
}

// RecordRejected counts an item refused before enqueue.
func RecordRejected(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	itemsRejected.WithLabelValues(reason).Inc()
}

// RecordEnqueueFailure counts a dispatcher hand-off failure.
func RecordEnqueueFailure(transport string) {
	enqueueFailures.WithLabelValues(transport).Inc()
}

// RecordJob records the outcome and duration of one persistence job.
func RecordJob(transport string, duration time.Duration, err error) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	result := JobPersisted
	if err != nil {
		result = JobFailed
	}
	jobs.WithLabelValues(transport, result).Inc()
	jobDuration.WithLabelValues(transport).Observe(duration.Seconds())
}

// RecordDeadLetter counts a job that will not be retried.
func RecordDeadLetter(transport, reason string) {
	deadLetters.WithLabelValues(transport, reason).Inc()
}

// statusRecorder captures the response status. Handlers that never call
// WriteHeader keep the initial 200.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
