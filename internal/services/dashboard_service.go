package services

import (
	"context"
	"log/slog"

	"prodtrack/internal/cache"
	"prodtrack/internal/config"
	"prodtrack/internal/dataprocessing"
	"prodtrack/pkg/contracts/domain"
)

// DashboardService answers dashboard queries from the cached snapshot.
type DashboardService struct {
	cache  *cache.Cache
	logger *slog.Logger

	filterColumn  string
	totalColumn   string
	pendingColumn string
	dateColumn    string
	numeric       []string
}

// ExportSnapshot is a filtered table plus what an export needs to render it.
type ExportSnapshot struct {
	Table    *dataprocessing.Table
	Summary  dataprocessing.Summary
	Classify func(dataprocessing.Row) dataprocessing.Status
}

// NewDashboardService creates a dashboard service over c. Column names are
// canonicalized here once.
func NewDashboardService(c *cache.Cache, columns config.ColumnsConfig, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		cache:         c,
		logger:        logger.With(slog.String("component", "dashboard_service")),
		filterColumn:  dataprocessing.CanonicalKey(columns.Filter),
		totalColumn:   dataprocessing.CanonicalKey(columns.Total),
		pendingColumn: dataprocessing.CanonicalKey(columns.Pending),
		dateColumn:    dataprocessing.CanonicalKey(columns.Date),
		numeric:       columns.NumericColumns(),
	}
}

// FilterColumn returns the canonical column the selection applies to.
func (s *DashboardService) FilterColumn() string { return s.filterColumn }

// Source describes the snapshot origin.
func (s *DashboardService) Source() string { return s.cache.Key().Source }

// Current returns the cached snapshot, loading it when empty or stale.
func (s *DashboardService) Current(ctx context.Context) (*cache.Entry, error) {
	return s.cache.Get(ctx)
}

// Refresh discards the cached snapshot and loads a new one.
func (s *DashboardService) Refresh(ctx context.Context) (*cache.Entry, error) {
	s.cache.Invalidate()
	entry, err := s.cache.Get(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "manual refresh failed", slog.String("error", err.Error()))
		return nil, err
	}
	s.logger.InfoContext(ctx, "manual refresh completed", slog.Int("rows", entry.Table.Len()))
	return entry, nil
}

// View builds the full dashboard for one selection.
func (s *DashboardService) View(ctx context.Context, selection string, withDates bool) (*domain.DashboardView, error) {
	entry, err := s.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	selection = normalizeSelection(selection)

	filtered := dataprocessing.Apply(entry.Table, s.filterColumn, selection)
	summary := dataprocessing.Summarize(filtered, s.numeric)

	view := &domain.DashboardView{
		Selection:    selection,
		FilterColumn: s.filterColumn,
		Options:      dataprocessing.SelectionOptions(entry.Table, s.filterColumn),
		Columns:      filtered.Columns(),
		Snapshot:     s.snapshot(summary),
		Metrics:      toMetrics(summary),
		RowCount:     filtered.Len(),
		Cache:        s.cacheInfo(entry),
	}

	rows := filtered.Rows()
	view.Rows = make([]domain.RowView, 0, len(rows))
	for _, row := range rows {
		status := dataprocessing.Classify(row, s.pendingColumn)
		if status == dataprocessing.StatusComplete {
			view.Complete++
		} else {
			view.PendingRows++
		}
		view.Rows = append(view.Rows, toRowView(row, status))
	}

	if withDates {
		view.Dates = toBucketViews(dataprocessing.GroupByDate(filtered, s.dateColumn, s.numeric))
	}

	s.logger.DebugContext(ctx, "dashboard view built",
		slog.String("selection", selection),
		slog.Int("rows", view.RowCount),
		slog.Int("complete", view.Complete))
	return view, nil
}

// Options lists the filter picker entries.
func (s *DashboardService) Options(ctx context.Context) (*domain.OptionsView, error) {
	entry, err := s.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.OptionsView{
		FilterColumn: s.filterColumn,
		Options:      dataprocessing.SelectionOptions(entry.Table, s.filterColumn),
	}, nil
}

// DateSummary groups the selected rows by day.
func (s *DashboardService) DateSummary(ctx context.Context, selection string) (*domain.DateSummaryView, error) {
	entry, err := s.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	selection = normalizeSelection(selection)
	filtered := dataprocessing.Apply(entry.Table, s.filterColumn, selection)

	return &domain.DateSummaryView{
		Selection:  selection,
		DateColumn: s.dateColumn,
		Buckets:    toBucketViews(dataprocessing.GroupByDate(filtered, s.dateColumn, s.numeric)),
	}, nil
}

// Snapshot returns the selected rows for an export.
func (s *DashboardService) Snapshot(ctx context.Context, selection string) (*ExportSnapshot, error) {
	entry, err := s.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	filtered := dataprocessing.Apply(entry.Table, s.filterColumn, normalizeSelection(selection))
	return &ExportSnapshot{
		Table:    filtered,
		Summary:  dataprocessing.Summarize(filtered, s.numeric),
		Classify: dataprocessing.ClassifyFunc(s.pendingColumn),
	}, nil
}

// CacheState describes the cached snapshot without loading it.
func (s *DashboardService) CacheState() domain.CacheInfo {
	return s.cacheInfo(s.cache.Peek())
}

// CacheStats returns the cache counters.
func (s *DashboardService) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// Ready succeeds when a snapshot is held or can be loaded now.
func (s *DashboardService) Ready(ctx context.Context) error {
	if s.cache.Peek() != nil {
		return nil
	}
	if _, err := s.cache.Get(ctx); err != nil {
		return err
	}
	return nil
}

func (s *DashboardService) snapshot(summary dataprocessing.Summary) domain.MetricSnapshot {
	var snap domain.MetricSnapshot
	if v, ok := summary.Get(s.totalColumn); ok {
		snap.Programmed = &v
	}
	if v, ok := summary.Get(s.pendingColumn); ok {
		snap.Pending = &v
	}
	return snap
}

func (s *DashboardService) cacheInfo(entry *cache.Entry) domain.CacheInfo {
	info := domain.CacheInfo{
		State: string(s.cache.State()),
		TTL:   s.cache.TTL().String(),
	}
	if entry != nil {
		info.FetchedAt = entry.FetchedAt
	}
	return info
}

// normalizeSelection maps an absent selection to the "all" sentinel.
func normalizeSelection(selection string) string {
	if selection == "" {
		return dataprocessing.AllSelection
	}
	return selection
}

func toMetrics(summary dataprocessing.Summary) []domain.Metric {
	out := make([]domain.Metric, 0, len(summary.Metrics))
	for _, m := range summary.Metrics {
		out = append(out, domain.Metric{Column: m.Column, Value: m.Value})
	}
	return out
}

func toRowView(row dataprocessing.Row, status dataprocessing.Status) domain.RowView {
	keys := row.Keys()
	values := make(map[string]interface{}, len(keys))
	for _, key := range keys {
		v, _ := row.Get(key)
		switch {
		case v.IsNull():
			values[key] = nil
		case v.Kind() == dataprocessing.KindNumber:
			n, _ := v.Number()
			values[key] = n
		default:
			values[key] = v.String()
		}
	}
	return domain.RowView{Status: string(status), Values: values}
}

func toBucketViews(buckets []dataprocessing.DateBucket) []domain.DateBucketView {
	if buckets == nil {
		return nil
	}
	out := make([]domain.DateBucketView, 0, len(buckets))
	for _, b := range buckets {
		view := domain.DateBucketView{Rows: b.Rows, Metrics: toMetrics(b.Sums)}
		if b.Known {
			d := b.Date.Format(dataprocessing.DateFormat)
			view.Date = &d
		}
		out = append(out, view)
	}
	return out
}
