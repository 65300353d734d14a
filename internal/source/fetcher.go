// Package source fetches the production spreadsheet export.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"prodtrack/internal/config"
	"prodtrack/internal/dataprocessing"
)

const tracerName = "prodtrack/source"

// Fetcher reads one raw snapshot of the export. Implementations do not
// retry; a failed fetch is reported and the next refresh tries again.
type Fetcher interface {
	Fetch(ctx context.Context) (*dataprocessing.RawRecordSet, error)
	// Describe identifies the source; it is part of the cache key.
	Describe() string
}

// New returns the Fetcher for cfg.Kind. A nil client gets a traced client
// with cfg.Timeout.
func New(ctx context.Context, cfg config.SourceConfig, client *http.Client, logger *slog.Logger) (Fetcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = NewHTTPClient(cfg.Timeout)
	}

	switch cfg.Kind {
	case config.SourceSheets:
		return NewSheetsFetcher(ctx, cfg, logger)
	case config.SourceCSV, config.SourceXLSX, config.SourceAuto, "":
		return NewHTTPFetcher(cfg, client, logger), nil
	default:
		return nil, fmt.Errorf("unsupported source kind %q", cfg.Kind)
	}
}

// NewHTTPClient returns a client whose requests are traced.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

func startSpan(ctx context.Context, name, source string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("source", source)))
}

func endSpan(span trace.Span, raw *dataprocessing.RawRecordSet, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("rows", raw.Len()))
	}
	span.End()
}
