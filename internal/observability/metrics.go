package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics holds all application metrics implementing the golden 4 signals:
// - Latency: How long requests/jobs take
// - Traffic: Request/job/item throughput
// - Errors: Rate of failures
// - Saturation: Resource utilization (active jobs, pool queue depth)
type Metrics struct {
	meter metric.Meter

	// HTTP metrics (Latency, Traffic, Errors)
	HTTPRequestDuration metric.Float64Histogram
	HTTPRequestsTotal   metric.Int64Counter
	HTTPErrorsTotal     metric.Int64Counter

	// Job metrics (Latency, Traffic, Errors, Saturation)
	JobDuration metric.Float64Histogram
	JobsTotal   metric.Int64Counter
	JobsActive  metric.Int64UpDownCounter
	JobsReaped  metric.Int64Counter

	// Classification metrics (Traffic, Errors)
	ItemsSubmitted  metric.Int64Counter
	ItemsClassified metric.Int64Counter

	// Pool metrics (Errors, Saturation)
	PoolQueueDepth metric.Int64Gauge
	PoolRejected   metric.Int64Counter
}

// NewMetrics creates and registers all metrics with a Prometheus exporter.
func NewMetrics(ctx context.Context) (*Metrics, http.Handler, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter("classifier")
	m := &Metrics{meter: meter}

	// HTTP metrics
	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPErrorsTotal, err = meter.Int64Counter(
		"http_errors_total",
		metric.WithDescription("Total number of HTTP errors (4xx and 5xx)"),
	)
	if err != nil {
		return nil, nil, err
	}

	// Job metrics
	m.JobDuration, err = meter.Float64Histogram(
		"job_duration_seconds",
		metric.WithDescription("Job execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, nil, err
	}

	m.JobsTotal, err = meter.Int64Counter(
		"jobs_total",
		metric.WithDescription("Total number of jobs submitted"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.JobsActive, err = meter.Int64UpDownCounter(
		"jobs_active",
		metric.WithDescription("Number of jobs not yet finished (saturation)"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.JobsReaped, err = meter.Int64Counter(
		"jobs_reaped_total",
		metric.WithDescription("Total expired job records removed by maintenance"),
	)
	if err != nil {
		return nil, nil, err
	}

	// Classification metrics
	m.ItemsSubmitted, err = meter.Int64Counter(
		"items_submitted_total",
		metric.WithDescription("Total items accepted for classification"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.ItemsClassified, err = meter.Int64Counter(
		"items_classified_total",
		metric.WithDescription("Total items classified, labeled by success"),
	)
	if err != nil {
		return nil, nil, err
	}

	// Pool metrics
	m.PoolQueueDepth, err = meter.Int64Gauge(
		"pool_queue_depth",
		metric.WithDescription("Current number of jobs waiting in the pool queue (saturation)"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.PoolRejected, err = meter.Int64Counter(
		"pool_rejected_total",
		metric.WithDescription("Total submissions refused because the pool queue was full"),
	)
	if err != nil {
		return nil, nil, err
	}

	return m, promhttp.Handler(), nil
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, durationSeconds float64) {
	attrs := metric.WithAttributes(
		methodAttr(method),
		pathAttr(path),
		statusAttr(statusCode),
	)

	m.HTTPRequestDuration.Record(ctx, durationSeconds, attrs)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)

	if statusCode >= 400 {
		m.HTTPErrorsTotal.Add(ctx, 1, attrs)
	}
}

// RecordJobSubmitted records an accepted submission and its batch size.
func (m *Metrics) RecordJobSubmitted(ctx context.Context, items int) {
	m.JobsTotal.Add(ctx, 1)
	m.JobsActive.Add(ctx, 1)
	m.ItemsSubmitted.Add(ctx, int64(items))
}

// RecordJobFinished records a job reaching a terminal state. The outcome is
// the terminal status name (completed, failed, aborted).
func (m *Metrics) RecordJobFinished(ctx context.Context, outcome string, durationSeconds float64) {
	m.JobDuration.Record(ctx, durationSeconds, metric.WithAttributes(outcomeAttr(outcome)))
	m.JobsActive.Add(ctx, -1)
}

// RecordItemsClassified records classified items, labeled by success.
func (m *Metrics) RecordItemsClassified(ctx context.Context, count int64, success bool) {
	m.ItemsClassified.Add(ctx, count, metric.WithAttributes(successAttr(success)))
}

// RecordJobsReaped records expired records removed by a maintenance pass.
func (m *Metrics) RecordJobsReaped(ctx context.Context, count int64) {
	m.JobsReaped.Add(ctx, count)
}

// RecordPoolQueueDepth records the current pool queue depth.
func (m *Metrics) RecordPoolQueueDepth(ctx context.Context, depth int64) {
	m.PoolQueueDepth.Record(ctx, depth)
}

// RecordPoolRejected records a submission refused by a full pool queue.
func (m *Metrics) RecordPoolRejected(ctx context.Context) {
	m.PoolRejected.Add(ctx, 1)
}
