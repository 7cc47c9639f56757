package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds every metric emitted by the ADMET server.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Prediction pipeline
	PredictRequestsTotal    CounterVec
	PredictBatchSize        HistogramVec
	PredictDuration         HistogramVec
	InvalidSMILESTotal      CounterVec
	ModelInferenceDuration  HistogramVec
	ModelInferenceErrors    CounterVec

	// Reference / percentile layer
	PercentileLookupDuration HistogramVec
	ReferenceSetSize         GaugeVec

	// Prediction store
	StoreEntries        GaugeVec
	StoreEvictionsTotal CounterVec
	StoreOpsTotal       CounterVec

	// Rendering
	RenderDuration HistogramVec
	RenderErrors   CounterVec

	// Infrastructure
	DBQueryDuration  HistogramVec
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec

	// System health
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

// Default histogram buckets.
var (
	DefaultHTTPDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultModelDurationBuckets = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 15, 30, 60}
	DefaultBatchSizeBuckets     = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000}
	DefaultDBDurationBuckets    = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// NewAppMetrics registers all metrics against the collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method", "path")

	m.PredictRequestsTotal = collector.RegisterCounter("predict_requests_total", "Prediction requests", "source", "status")
	m.PredictBatchSize = collector.RegisterHistogram("predict_batch_size", "Molecules per prediction request", DefaultBatchSizeBuckets, "source")
	m.PredictDuration = collector.RegisterHistogram("predict_duration_seconds", "End-to-end prediction duration", DefaultModelDurationBuckets, "source")
	m.InvalidSMILESTotal = collector.RegisterCounter("invalid_smiles_total", "SMILES strings rejected during parsing", "source")
	m.ModelInferenceDuration = collector.RegisterHistogram("model_inference_duration_seconds", "Model inference duration", DefaultModelDurationBuckets, "model")
	m.ModelInferenceErrors = collector.RegisterCounter("model_inference_errors_total", "Model inference failures", "model")

	m.PercentileLookupDuration = collector.RegisterHistogram("percentile_lookup_duration_seconds", "DrugBank percentile computation duration", DefaultDBDurationBuckets, "atc_code")
	m.ReferenceSetSize = collector.RegisterGauge("reference_set_size", "Molecules in the loaded reference set", "atc_code")

	m.StoreEntries = collector.RegisterGauge("prediction_store_entries", "Entries in the prediction store", "backend")
	m.StoreEvictionsTotal = collector.RegisterCounter("prediction_store_evictions_total", "Entries evicted from the prediction store", "backend", "reason")
	m.StoreOpsTotal = collector.RegisterCounter("prediction_store_ops_total", "Prediction store operations", "backend", "op", "status")

	m.RenderDuration = collector.RegisterHistogram("render_duration_seconds", "SVG render duration", DefaultHTTPDurationBuckets, "kind")
	m.RenderErrors = collector.RegisterCounter("render_errors_total", "SVG render failures", "kind")

	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DefaultDBDurationBuckets, "db", "operation")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")

	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_type")

	return m
}

// RecordHTTPRequest records the standard per-request HTTP metrics.
func RecordHTTPRequest(metrics *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordPrediction records a completed prediction request.
func RecordPrediction(metrics *AppMetrics, source string, batchSize, invalid int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.PredictRequestsTotal.WithLabelValues(source, status).Inc()
	metrics.PredictBatchSize.WithLabelValues(source).Observe(float64(batchSize))
	metrics.PredictDuration.WithLabelValues(source).Observe(duration.Seconds())
	if invalid > 0 {
		metrics.InvalidSMILESTotal.WithLabelValues(source).Add(float64(invalid))
	}
}

// RecordDBQuery records a database query duration and any failure.
func RecordDBQuery(metrics *AppMetrics, db, operation string, duration time.Duration, err error) {
	metrics.DBQueryDuration.WithLabelValues(db, operation).Observe(duration.Seconds())
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues(db, "query_error").Inc()
	}
}

// RecordCacheAccess records a cache hit or miss.
func RecordCacheAccess(metrics *AppMetrics, cache string, hit bool) {
	if hit {
		metrics.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}
