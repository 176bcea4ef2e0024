package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "scholar_score"

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Scoring metrics
	ScoreRequestsTotal *prometheus.CounterVec
	ScoringDuration    *prometheus.HistogramVec
	ScoringErrorsTotal *prometheus.CounterVec
	FinalScores        *prometheus.HistogramVec
	GradesTotal        *prometheus.CounterVec
	PillarScores       *prometheus.HistogramVec

	// Extraction metrics
	ExtractionAttemptsTotal *prometheus.CounterVec
	ExtractionFailuresTotal *prometheus.CounterVec

	// External API metrics
	ExternalAPIRequestsTotal *prometheus.CounterVec
	ExternalAPIErrorsTotal   *prometheus.CounterVec
	ExternalAPIDuration      *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// defaultBuckets are the default histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// scoreBuckets are histogram buckets for final scores (0 to 100)
var scoreBuckets = []float64{10, 20, 30, 40, 55, 70, 85, 100}

// pillarBuckets are histogram buckets for pillar scores (0 to 30)
var pillarBuckets = []float64{0, 5, 10, 15, 20, 25, 30}

// globalMetrics is the global metrics instance
var globalMetrics *Metrics

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	m := &Metrics{
		// Scoring metrics
		ScoreRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scoring",
				Name:      "requests_total",
				Help:      "Total number of scoring requests by extraction source",
			},
			[]string{"source"},
		),
		ScoringDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "scoring",
				Name:      "duration_seconds",
				Help:      "Duration of extraction plus scoring in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"input", "status"},
		),
		ScoringErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scoring",
				Name:      "errors_total",
				Help:      "Total number of failed scoring requests",
			},
			[]string{"input", "error_type"},
		),
		FinalScores: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "scoring",
				Name:      "final_score",
				Help:      "Distribution of final Scholar Scores",
				Buckets:   scoreBuckets,
			},
			[]string{"source"},
		),
		GradesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scoring",
				Name:      "grades_total",
				Help:      "Total number of results by grade",
			},
			[]string{"grade"},
		),
		PillarScores: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "scoring",
				Name:      "pillar_score",
				Help:      "Distribution of pillar scores",
				Buckets:   pillarBuckets,
			},
			[]string{"pillar"},
		),

		// Extraction metrics
		ExtractionAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "extraction",
				Name:      "attempts_total",
				Help:      "Total number of text extraction attempts by strategy",
			},
			[]string{"strategy"},
		),
		ExtractionFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "extraction",
				Name:      "failures_total",
				Help:      "Total number of failed text extraction attempts by strategy",
			},
			[]string{"strategy"},
		),

		// External API metrics
		ExternalAPIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "external_api",
				Name:      "requests_total",
				Help:      "Total number of external API requests",
			},
			[]string{"service", "operation"},
		),
		ExternalAPIErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "external_api",
				Name:      "errors_total",
				Help:      "Total number of external API errors",
			},
			[]string{"service", "operation", "error_type"},
		),
		ExternalAPIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "external_api",
				Name:      "duration_seconds",
				Help:      "Duration of external API calls in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"service", "operation"},
		),

		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "response_size_bytes",
				Help:      "Size of HTTP responses in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),

		// Circuit breaker metrics
		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "circuit_breaker",
				Name:      "state",
				Help:      "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
			},
			[]string{"service"},
		),
		CircuitBreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "circuit_breaker",
				Name:      "trips_total",
				Help:      "Total number of circuit breaker trips",
			},
			[]string{"service"},
		),
	}

	return m
}

// InitMetrics initializes the global metrics instance
func InitMetrics() *Metrics {
	globalMetrics = NewMetrics(nil)
	return globalMetrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	if globalMetrics == nil {
		return InitMetrics()
	}
	return globalMetrics
}

// SetMetrics replaces the global metrics instance (useful for testing)
func SetMetrics(m *Metrics) {
	globalMetrics = m
}

// RecordScoreRequest records a completed scoring request by extraction source
func (m *Metrics) RecordScoreRequest(source string) {
	m.ScoreRequestsTotal.WithLabelValues(source).Inc()
}

// RecordScoringDuration records the duration of one scoring request
func (m *Metrics) RecordScoringDuration(input, status string, duration time.Duration) {
	m.ScoringDuration.WithLabelValues(input, status).Observe(duration.Seconds())
}

// RecordScoringError records a failed scoring request
func (m *Metrics) RecordScoringError(input, errorType string) {
	m.ScoringErrorsTotal.WithLabelValues(input, errorType).Inc()
}

// RecordResult records the final score, grade and pillar breakdown of a result
func (m *Metrics) RecordResult(source, grade string, finalScore float64, pillars map[string]float64) {
	m.FinalScores.WithLabelValues(source).Observe(finalScore)
	m.GradesTotal.WithLabelValues(grade).Inc()
	for pillar, score := range pillars {
		m.PillarScores.WithLabelValues(pillar).Observe(score)
	}
}

// RecordExtractionAttempt records a text extraction attempt
func (m *Metrics) RecordExtractionAttempt(strategy string) {
	m.ExtractionAttemptsTotal.WithLabelValues(strategy).Inc()
}

// RecordExtractionFailure records a failed text extraction attempt
func (m *Metrics) RecordExtractionFailure(strategy string) {
	m.ExtractionFailuresTotal.WithLabelValues(strategy).Inc()
}

// RecordExternalAPIRequest records an external API request
func (m *Metrics) RecordExternalAPIRequest(service, operation string) {
	m.ExternalAPIRequestsTotal.WithLabelValues(service, operation).Inc()
}

// RecordExternalAPIError records an external API error
func (m *Metrics) RecordExternalAPIError(service, operation, errorType string) {
	m.ExternalAPIErrorsTotal.WithLabelValues(service, operation, errorType).Inc()
}

// RecordExternalAPIDuration records the duration of an external API call
func (m *Metrics) RecordExternalAPIDuration(service, operation string, duration time.Duration) {
	m.ExternalAPIDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, duration time.Duration, responseSize int) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// SetCircuitBreakerState sets the current state of a circuit breaker
func (m *Metrics) SetCircuitBreakerState(service string, state int) {
	m.CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(service string) {
	m.CircuitBreakerTrips.WithLabelValues(service).Inc()
}

// Timer is a helper for timing operations
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer creates a new timer
func (m *Metrics) NewTimer() *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: m,
	}
}

// ObserveScoring records the scoring duration and status
func (t *Timer) ObserveScoring(input, status string) {
	t.metrics.RecordScoringDuration(input, status, time.Since(t.start))
}

// ObserveExternalAPI records the external API duration
func (t *Timer) ObserveExternalAPI(service, operation string) {
	t.metrics.RecordExternalAPIDuration(service, operation, time.Since(t.start))
}

// Duration returns the elapsed time
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
