// Package metrics provides Prometheus metrics for the portfolio server.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes, used as the "outcome" label.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeInvalid   = "invalid"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
	// OutcomeAbandoned: the submitter went away before the relay answered.
	// The submission itself is still relayed.
	OutcomeAbandoned = "abandoned"
)

var knownOutcomes = map[string]struct{}{
	OutcomeSucceeded: {},
	OutcomeFailed:    {},
	OutcomeInvalid:   {},
	OutcomeDuplicate: {},
	OutcomeRejected:  {},
	OutcomeAbandoned: {},
}

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Contact form
	submissions        *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	duplicates         prometheus.Counter

	// Relay
	relayLatency  prometheus.Histogram
	relayErrors   prometheus.Counter
	relayStatuses *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueUtilization  prometheus.Gauge
	queueEnqueued     prometheus.Counter
	queueDequeued     prometheus.Counter
	queueEnqueueError prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerBusy              prometheus.Gauge
	workerProcessingLatency prometheus.Histogram

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the package-level recorders

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out of /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a Manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "portfolio",
		subsystem:        "site",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.submissions = auto.NewCounterVec(
		m.counterOpts("contact_submissions_total", "Contact form submissions by outcome"),
		[]string{"outcome"},
	)
	m.validationFailures = auto.NewCounterVec(
		m.counterOpts("contact_validation_failures_total", "Contact form validation failures by field"),
		[]string{"field"},
	)
	m.duplicates = auto.NewCounter(
		m.counterOpts("contact_duplicates_total", "Submissions skipped because their id was already relayed"),
	)

	m.relayLatency = auto.NewHistogram(
		m.histogramOpts("relay_dispatch_latency_milliseconds", "Time spent dispatching a submission to the relay endpoint", m.histogramBuckets),
	)
	m.relayErrors = auto.NewCounter(
		m.counterOpts("relay_dispatch_errors_total", "Dispatches that could not be sent at all"),
	)
	m.relayStatuses = auto.NewCounterVec(
		m.counterOpts("relay_responses_total", "Relay responses by status class; informational only"),
		[]string{"class"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("dispatch_queue_size", "Submissions waiting for a relay worker"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("dispatch_queue_capacity", "Maximum dispatch queue length"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("dispatch_queue_utilization_ratio", "Dispatch queue size divided by capacity"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("dispatch_queue_enqueued_total", "Jobs accepted by the dispatch queue"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("dispatch_queue_dequeued_total", "Jobs handed to relay workers"))
	m.queueEnqueueError = auto.NewCounter(m.counterOpts("dispatch_queue_enqueue_errors_total", "Jobs refused by the dispatch queue"))

	m.workerCount = auto.NewGauge(m.gaugeOpts("relay_workers", "Configured relay workers"))
	m.workerBusy = auto.NewGauge(m.gaugeOpts("relay_workers_busy", "Relay workers currently dispatching"))
	m.workerProcessingLatency = auto.NewHistogram(
		m.histogramOpts("relay_worker_job_latency_milliseconds", "Time a worker spends on one job", m.histogramBuckets),
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)
	m.errorsByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "HTTP errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100}),
	)
}

// RecordSubmission counts a submission outcome. Unknown outcomes are refused.
func RecordSubmission(outcome string) error {
	if _, ok := knownOutcomes[outcome]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownOutcome, outcome)
	}
	globalManager.submissions.WithLabelValues(outcome).Inc()
	return nil
}

// RecordValidationFailure counts one failing field.
func RecordValidationFailure(field string) {
	globalManager.validationFailures.WithLabelValues(field).Inc()
}

// RecordDuplicate counts a skipped duplicate submission.
func RecordDuplicate() {
	globalManager.duplicates.Inc()
}

// RecordRelayLatency records a dispatch duration in milliseconds.
func RecordRelayLatency(latencyMs float64) {
	globalManager.relayLatency.Observe(latencyMs)
}

// RecordRelayError counts a dispatch that could not be sent.
func RecordRelayError() {
	globalManager.relayErrors.Inc()
}

// RecordRelayStatus counts a relay response by status class (2xx, 4xx, ...).
func RecordRelayStatus(statusCode int) {
	globalManager.relayStatuses.WithLabelValues(fmt.Sprintf("%dxx", statusCode/100)).Inc()
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records an HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateQueueSize sets the current dispatch queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the dispatch queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets size/capacity.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue counts an accepted job.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue counts a job handed to a worker.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a refused job.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueError.Inc()
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// AddBusyWorkers adjusts the busy worker gauge by delta.
func AddBusyWorkers(delta int) {
	globalManager.workerBusy.Add(float64(delta))
}

// RecordWorkerProcessingLatency records a job duration in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordErrorByComponent counts an error raised inside a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint counts an HTTP error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap bytes in use.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records the average GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry served on /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
