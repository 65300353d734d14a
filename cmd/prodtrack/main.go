package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"prodtrack/internal/cache"
	"prodtrack/internal/config"
	"prodtrack/internal/exporter"
	"prodtrack/internal/infrastructure"
	"prodtrack/internal/services"
	"prodtrack/internal/source"
	"prodtrack/internal/validation"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run fetches one snapshot, applies the selection and writes either the
// dashboard view as JSON or an export file.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("prodtrack", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a YAML config file")
	sourceURL := fs.String("source", "", "export URL, overrides source.url")
	selection := fs.String("oc", "all", "filter value, or \"all\"")
	out := fs.String("out", "", "write an export to this .csv or .xlsx file instead of JSON to stdout")
	withDates := fs.Bool("dates", false, "include the per-date summary in JSON output")
	level := fs.String("log-level", "warn", "log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadWithOverrides(*configPath, func(c *config.Config) {
		if *sourceURL != "" {
			c.Source.URL = *sourceURL
		}
	})
	if err != nil {
		return err
	}

	logger := infrastructure.NewLogger(stderr, *level)
	ctx = infrastructure.EnsureTraceID(ctx)

	files := validation.NewFileValidator(infrastructure.WithComponent(logger, "validation"))
	if cfg.Source.CredentialsFile != "" {
		if err := files.ValidateFile(cfg.Source.CredentialsFile); err != nil {
			return err
		}
	}

	var format exporter.Format
	if *out != "" {
		if format, err = files.ValidateExportPath(*out); err != nil {
			return err
		}
	}

	fetcher, err := source.New(ctx, cfg.Source, nil, infrastructure.WithComponent(logger, "source"))
	if err != nil {
		return err
	}
	opts := services.NormalizeOptionsFor(cfg.Columns, infrastructure.WithComponent(logger, "normalizer"))
	c := cache.New(services.CacheKey(fetcher, opts), cfg.Cache.TTL, services.NewLoader(fetcher, opts),
		cache.WithLogger(infrastructure.WithComponent(logger, "cache")))
	svc := services.NewDashboardService(c, cfg.Columns, infrastructure.WithComponent(logger, "dashboard"))

	start := time.Now()
	if *out == "" {
		view, err := svc.View(ctx, *selection, *withDates)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	snap, err := svc.Snapshot(ctx, *selection)
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", *out, err)
	}
	if err := exporter.Write(f, format, snap.Table, exporter.Options{
		BOMPrefix: true,
		Classify:  snap.Classify,
		Summary:   &snap.Summary,
	}); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", *out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	logger.InfoContext(ctx, "Export written",
		slog.String("path", *out),
		slog.String("format", string(format)),
		slog.Int("rows", snap.Table.Len()),
		slog.Duration("duration", time.Since(start)))
	return nil
}
