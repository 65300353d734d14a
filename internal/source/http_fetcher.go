package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"prodtrack/internal/config"
	"prodtrack/internal/dataprocessing"
	apperrors "prodtrack/internal/errors"
)

// maxBodySize bounds the export download.
const maxBodySize = 64 << 20

var zipMagic = []byte("PK\x03\x04")

// HTTPFetcher downloads a published CSV or XLSX export.
type HTTPFetcher struct {
	url    string
	format string
	sheet  string
	limit  int64
	client *http.Client
	logger *slog.Logger
}

// NewHTTPFetcher creates a fetcher for cfg.URL.
func NewHTTPFetcher(cfg config.SourceConfig, client *http.Client, logger *slog.Logger) *HTTPFetcher {
	format := cfg.Kind
	if format == "" {
		format = config.SourceAuto
	}
	return &HTTPFetcher{
		url:    cfg.URL,
		format: format,
		sheet:  cfg.XLSXSheet,
		limit:  maxBodySize,
		client: client,
		logger: logger.With(slog.String("component", "http_fetcher")),
	}
}

// Describe returns the export URL.
func (f *HTTPFetcher) Describe() string { return f.url }

// Fetch downloads and parses the export.
func (f *HTTPFetcher) Fetch(ctx context.Context) (raw *dataprocessing.RawRecordSet, err error) {
	ctx, span := startSpan(ctx, "source.http.fetch", f.url)
	defer func() { endSpan(span, raw, err) }()

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, apperrors.NewConnectionError("invalid source request", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperrors.NewConnectionError("source unreachable", err).
			WithContext("url", f.url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewConnectionError(
			fmt.Sprintf("source returned status %d", resp.StatusCode), nil).
			WithContext("url", f.url).
			WithContext("status", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.limit+1))
	if err != nil {
		return nil, apperrors.NewConnectionError("reading source response failed", err).
			WithContext("url", f.url)
	}
	if int64(len(body)) > f.limit {
		return nil, apperrors.NewMalformedDataError("export exceeds size limit", nil).
			WithContext("url", f.url).
			WithContext("limit_bytes", f.limit)
	}

	format := f.detectFormat(resp.Header.Get("Content-Type"), body)
	switch format {
	case config.SourceXLSX:
		raw, err = dataprocessing.ParseXLSX(bytes.NewReader(body), f.sheet)
	default:
		raw, err = dataprocessing.ParseCSV(bytes.NewReader(body))
	}
	if err != nil {
		return nil, err
	}

	f.logger.DebugContext(ctx, "source fetched",
		slog.String("format", format),
		slog.Int("bytes", len(body)),
		slog.Int("rows", raw.Len()),
		slog.Duration("duration", time.Since(start)))

	return raw, nil
}

// detectFormat resolves the auto format from the URL's output parameter,
// then the Content-Type, then the payload itself.
func (f *HTTPFetcher) detectFormat(contentType string, body []byte) string {
	if f.format != config.SourceAuto {
		return f.format
	}

	if u, err := url.Parse(f.url); err == nil {
		q := u.Query()
		for _, key := range []string{"output", "format"} {
			switch strings.ToLower(q.Get(key)) {
			case "csv":
				return config.SourceCSV
			case "xlsx":
				return config.SourceXLSX
			}
		}
	}

	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch {
		case strings.Contains(mediaType, "spreadsheetml"):
			return config.SourceXLSX
		case mediaType == "text/csv":
			return config.SourceCSV
		}
	}

	if bytes.HasPrefix(body, zipMagic) {
		return config.SourceXLSX
	}
	return config.SourceCSV
}
