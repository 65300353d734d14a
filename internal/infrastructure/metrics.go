package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DashboardMetrics holds the application instruments exported on /metrics.
type DashboardMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	CacheHits           metric.Int64Counter
	CacheMisses         metric.Int64Counter
	SourceLoadDuration  metric.Float64Histogram
	SourceLoadFailures  metric.Int64Counter
	SourceRowsLoaded    metric.Int64Histogram
	RefreshRuns         metric.Int64Counter
	WebSocketBroadcasts metric.Int64Counter
}

// CreateDashboardMetrics registers every instrument on meter.
func CreateDashboardMetrics(meter metric.Meter) (*DashboardMetrics, error) {
	m := &DashboardMetrics{}
	var err error

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}
	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	); err != nil {
		return nil, err
	}
	if m.CacheHits, err = meter.Int64Counter(
		"dashboard_cache_hits_total",
		metric.WithDescription("Snapshot reads served from cache"),
	); err != nil {
		return nil, err
	}
	if m.CacheMisses, err = meter.Int64Counter(
		"dashboard_cache_misses_total",
		metric.WithDescription("Snapshot reads that required a source load"),
	); err != nil {
		return nil, err
	}
	if m.SourceLoadDuration, err = meter.Float64Histogram(
		"dashboard_source_load_duration_seconds",
		metric.WithDescription("Fetch plus normalize duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.SourceLoadFailures, err = meter.Int64Counter(
		"dashboard_source_load_failures_total",
		metric.WithDescription("Source loads that returned an error"),
	); err != nil {
		return nil, err
	}
	if m.SourceRowsLoaded, err = meter.Int64Histogram(
		"dashboard_source_rows",
		metric.WithDescription("Rows in each loaded snapshot"),
	); err != nil {
		return nil, err
	}
	if m.RefreshRuns, err = meter.Int64Counter(
		"dashboard_refresh_runs_total",
		metric.WithDescription("Background refresh executions"),
	); err != nil {
		return nil, err
	}
	if m.WebSocketBroadcasts, err = meter.Int64Counter(
		"dashboard_websocket_broadcasts_total",
		metric.WithDescription("Messages broadcast to websocket clients"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordHit counts a cache hit for source.
func (m *DashboardMetrics) RecordHit(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.CacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// RecordMiss counts a cache miss for source.
func (m *DashboardMetrics) RecordMiss(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.CacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// RecordLoad records one source load. rows is ignored when err is set.
func (m *DashboardMetrics) RecordLoad(ctx context.Context, source string, d time.Duration, rows int, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
		m.SourceLoadFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
	} else {
		m.SourceRowsLoaded.Record(ctx, int64(rows), metric.WithAttributes(attribute.String("source", source)))
	}
	m.SourceLoadDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("status", status),
	))
}

// RecordRefresh counts a background refresh run.
func (m *DashboardMetrics) RecordRefresh(ctx context.Context, success bool) {
	if m == nil {
		return
	}
	m.RefreshRuns.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

// RecordBroadcast counts a websocket broadcast of messageType.
func (m *DashboardMetrics) RecordBroadcast(ctx context.Context, messageType string) {
	if m == nil {
		return
	}
	m.WebSocketBroadcasts.Add(ctx, 1, metric.WithAttributes(attribute.String("type", messageType)))
}

// RecordHTTPRequest records a finished HTTP request.
func (m *DashboardMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, d.Seconds(), attrs)
}

// AddActiveRequests moves the in-flight request gauge by delta.
func (m *DashboardMetrics) AddActiveRequests(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.HTTPActiveRequests.Add(ctx, delta)
}
