package services

import (
	"context"
	"log/slog"

	"prodtrack/internal/cache"
	"prodtrack/internal/config"
	"prodtrack/internal/dataprocessing"
	"prodtrack/internal/source"
)

// NormalizeOptionsFor maps the column configuration onto the normalizer.
func NormalizeOptionsFor(columns config.ColumnsConfig, logger *slog.Logger) dataprocessing.NormalizeOptions {
	return dataprocessing.NormalizeOptions{
		NumericColumns: columns.NumericColumns(),
		DateColumn:     dataprocessing.CanonicalKey(columns.Date),
		DateLayouts:    columns.DateLayouts,
		Logger:         logger,
	}
}

// CacheKey identifies the snapshot a fetcher and option set produce.
func CacheKey(fetcher source.Fetcher, opts dataprocessing.NormalizeOptions) cache.Key {
	return cache.Key{
		Source:         fetcher.Describe(),
		NumericColumns: opts.NumericColumns,
		DateColumn:     opts.DateColumn,
	}
}

// NewLoader chains the fetcher and the normalizer into a cache loader.
func NewLoader(fetcher source.Fetcher, opts dataprocessing.NormalizeOptions) cache.Loader {
	return func(ctx context.Context) (*dataprocessing.Table, error) {
		if fetcher == nil {
			return nil, ErrNoFetcher
		}
		raw, err := fetcher.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		return dataprocessing.Normalize(raw, opts)
	}
}
