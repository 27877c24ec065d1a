// Package metrics provides Prometheus metrics for the Robusta grading service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every metric of the service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	yieldBuckets   []float64
	registry       prometheus.Registerer

	// Grading
	assessmentsProcessed prometheus.Counter
	assessmentsDuplicate prometheus.Counter
	assessmentsRejected  prometheus.Counter
	gradesTotal          *prometheus.CounterVec
	gradingLatency       *prometheus.HistogramVec
	forecastsGenerated   prometheus.Counter
	forecastYield        prometheus.Histogram
	recommendations      *prometheus.CounterVec

	// Queue
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueDequeued    prometheus.Counter
	queueRejected    prometheus.Counter

	// Workers
	workerActiveCount       prometheus.Gauge
	workerMessagesPerSecond prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter
	workerRetries           prometheus.Counter

	// Repository
	repositoryRecords prometheus.Gauge
	repositoryLatency *prometheus.HistogramVec
	repositoryErrors  *prometheus.CounterVec
	breakerState      *prometheus.GaugeVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// Runtime
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // process-wide metrics

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out of /metrics

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a Manager and registers its metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "robusta",
		subsystem:      "grading",
		latencyBuckets: prometheus.DefBuckets,
		yieldBuckets:   []float64{100, 250, 500, 750, 1000, 1250, 1500, 2000, 2500},
		registry:       prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	if buckets == nil {
		buckets = m.latencyBuckets
	}
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.assessmentsProcessed = auto.NewCounter(m.counterOpts("assessments_processed_total",
		"Total number of assessments graded and stored"))
	m.assessmentsDuplicate = auto.NewCounter(m.counterOpts("assessments_duplicate_total",
		"Total number of resubmitted assessment IDs"))
	m.assessmentsRejected = auto.NewCounter(m.counterOpts("assessments_rejected_total",
		"Total number of assessments rejected by validation"))
	m.gradesTotal = auto.NewCounterVec(m.counterOpts("grades_total",
		"Grades issued by grade and call path"), []string{"grade", "path"})
	m.gradingLatency = auto.NewHistogramVec(m.histogramOpts("grading_latency_milliseconds",
		"Engine latency per operation in milliseconds", nil), []string{"operation"})
	m.forecastsGenerated = auto.NewCounter(m.counterOpts("forecasts_generated_total",
		"Total number of yield forecasts generated"))
	m.forecastYield = auto.NewHistogram(m.histogramOpts("forecast_avg_yield_kg_ha",
		"Average forecast yield per hectare", m.yieldBuckets))
	m.recommendations = auto.NewCounterVec(m.counterOpts("recommendations_total",
		"Recommendation messages issued by bucket"), []string{"bucket"})

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current number of queued assessments"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio",
		"Queue utilization ratio (current size / capacity)"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Total number of assessments enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Total number of assessments dequeued"))
	m.queueRejected = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total",
		"Total number of assessments refused by the queue"))

	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Number of running workers"))
	m.workerMessagesPerSecond = auto.NewGauge(m.gaugeOpts("worker_messages_per_second",
		"Assessments processed per second across the pool"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds",
		"Time from dequeue to stored assessment in milliseconds", nil))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Total number of failed assessments"))
	m.workerRetries = auto.NewCounter(m.counterOpts("worker_retries_total", "Total number of persistence retries"))

	m.repositoryRecords = auto.NewGauge(m.gaugeOpts("repository_records_total", "Number of stored assessments"))
	m.repositoryLatency = auto.NewHistogramVec(m.histogramOpts("repository_latency_milliseconds",
		"Repository operation latency in milliseconds", nil), []string{"store", "operation"})
	m.repositoryErrors = auto.NewCounterVec(m.counterOpts("repository_errors_total",
		"Repository errors by store and operation"), []string{"store", "operation"})
	m.breakerState = auto.NewGaugeVec(m.gaugeOpts("circuit_breaker_state",
		"Circuit breaker state (0 closed, 1 half-open, 2 open)"), []string{"name"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", nil), []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total",
		"Total number of errors by component"), []string{"component", "error_type"})
	m.errorsByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total",
		"Total number of errors by endpoint"), []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap memory in use in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds",
		"GC pause time in milliseconds", []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// RecordAssessmentProcessed counts a stored assessment.
func RecordAssessmentProcessed() { globalManager.assessmentsProcessed.Inc() }

// RecordAssessmentDuplicate counts a resubmitted assessment ID.
func RecordAssessmentDuplicate() { globalManager.assessmentsDuplicate.Inc() }

// RecordAssessmentRejected counts an assessment that failed validation.
func RecordAssessmentRejected() { globalManager.assessmentsRejected.Inc() }

// RecordGrade counts an issued grade on a call path.
func RecordGrade(grade, path string) {
	globalManager.gradesTotal.WithLabelValues(grade, path).Inc()
}

// RecordGradingLatency records engine latency for an operation.
func RecordGradingLatency(operation string, latencyMs float64) {
	globalManager.gradingLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordForecast counts a generated forecast and its average yield.
func RecordForecast(avgYieldKgHa float64) {
	globalManager.forecastsGenerated.Inc()
	globalManager.forecastYield.Observe(avgYieldKgHa)
}

// RecordRecommendations counts issued messages in a bucket.
func RecordRecommendations(bucket string, n int) {
	if n > 0 {
		globalManager.recommendations.WithLabelValues(bucket).Add(float64(n))
	}
}

// UpdateQueueSize sets the current queue size and utilization.
func UpdateQueueSize(size, capacity int) {
	globalManager.queueSize.Set(float64(size))
	if capacity > 0 {
		globalManager.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue counts an enqueued assessment.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue counts a dequeued assessment.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError counts a refused enqueue.
func RecordQueueEnqueueError() { globalManager.queueRejected.Inc() }

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) { globalManager.workerActiveCount.Set(float64(count)) }

// UpdateWorkerMessagesPerSecond sets the pool throughput.
func UpdateWorkerMessagesPerSecond(rate float64) { globalManager.workerMessagesPerSecond.Set(rate) }

// RecordWorkerProcessingLatency records end-to-end worker latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed assessment.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordWorkerRetry counts a persistence retry.
func RecordWorkerRetry() { globalManager.workerRetries.Inc() }

// UpdateRepositoryRecords sets the number of stored assessments.
func UpdateRepositoryRecords(count int) { globalManager.repositoryRecords.Set(float64(count)) }

// RecordRepositoryLatency records latency of a repository operation.
func RecordRepositoryLatency(store, operation string, latencyMs float64) {
	globalManager.repositoryLatency.WithLabelValues(store, operation).Observe(latencyMs)
}

// RecordRepositoryError counts a failed repository operation.
func RecordRepositoryError(store, operation string) {
	globalManager.repositoryErrors.WithLabelValues(store, operation).Inc()
}

// UpdateBreakerState sets the state of a named circuit breaker.
func UpdateBreakerState(name string, state int) {
	globalManager.breakerState.WithLabelValues(name).Set(float64(state))
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent counts an error raised by a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint counts an error returned by an endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap memory in use.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records a GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the registry serving /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
