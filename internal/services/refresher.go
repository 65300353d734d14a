package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"prodtrack/internal/cache"
	"prodtrack/internal/dataprocessing"
	"prodtrack/internal/infrastructure"
	"prodtrack/pkg/contracts/events"
)

// Broadcaster pushes refresh outcomes to connected clients.
// *websocket.Hub implements it.
type Broadcaster interface {
	BroadcastDataUpdate(ctx context.Context, update events.DataUpdate)
	BroadcastRefreshFailure(ctx context.Context, failure events.RefreshFailure)
}

// RefreshRecorder counts refresh runs. *infrastructure.DashboardMetrics
// implements it.
type RefreshRecorder interface {
	RecordRefresh(ctx context.Context, success bool)
}

// Refresher reloads the snapshot on a fixed interval and announces every
// new snapshot. A failed run is logged and retried on the next tick.
type Refresher struct {
	service     *DashboardService
	broadcaster Broadcaster
	metrics     RefreshRecorder
	interval    time.Duration
	logger      *slog.Logger

	mu   sync.Mutex
	last *cache.Entry
}

// NewRefresher creates a refresher. broadcaster and metrics may be nil.
func NewRefresher(service *DashboardService, broadcaster Broadcaster, metrics RefreshRecorder, interval time.Duration, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		service:     service,
		broadcaster: broadcaster,
		metrics:     metrics,
		interval:    interval,
		logger:      logger.With(slog.String("component", "refresher")),
	}
}

// Run refreshes once immediately and then on every tick until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	if r.interval <= 0 {
		r.logger.WarnContext(ctx, "background refresh disabled, interval is not positive")
		return
	}
	r.logger.InfoContext(ctx, "background refresh started", slog.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	_ = r.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "background refresh stopped")
			return
		case <-ticker.C:
			_ = r.RunOnce(ctx)
		}
	}
}

// RunOnce brings the snapshot up to date and broadcasts it when it changed
// since the previous run.
func (r *Refresher) RunOnce(ctx context.Context) error {
	ctx = infrastructure.EnsureTraceID(ctx)

	entry, err := r.service.Current(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "background refresh failed",
			slog.String("source", r.service.Source()),
			slog.String("error", err.Error()))
		r.recordRefresh(ctx, false)
		if r.broadcaster != nil {
			r.broadcaster.BroadcastRefreshFailure(ctx, events.RefreshFailure{
				Source:  r.service.Source(),
				Message: err.Error(),
			})
		}
		return err
	}
	r.recordRefresh(ctx, true)

	r.mu.Lock()
	changed := entry != r.last
	r.last = entry
	r.mu.Unlock()

	if !changed {
		r.logger.DebugContext(ctx, "snapshot unchanged")
		return nil
	}

	update := events.DataUpdate{
		Source:    r.service.Source(),
		FetchedAt: entry.FetchedAt,
		Rows:      entry.Table.Len(),
		Options:   dataprocessing.SelectionOptions(entry.Table, r.service.FilterColumn()),
	}
	if r.broadcaster != nil {
		r.broadcaster.BroadcastDataUpdate(ctx, update)
	}
	r.logger.InfoContext(ctx, "snapshot announced",
		slog.Int("rows", update.Rows),
		slog.Time("fetched_at", update.FetchedAt))
	return nil
}

func (r *Refresher) recordRefresh(ctx context.Context, success bool) {
	if r.metrics != nil {
		r.metrics.RecordRefresh(ctx, success)
	}
}
