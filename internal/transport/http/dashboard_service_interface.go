package http

import (
	"context"

	"prodtrack/internal/cache"
	"prodtrack/internal/services"
	"prodtrack/pkg/contracts/domain"
)

// DashboardServiceInterface is what DashboardHandler needs from
// services.DashboardService.
type DashboardServiceInterface interface {
	View(ctx context.Context, selection string, withDates bool) (*domain.DashboardView, error)
	Options(ctx context.Context) (*domain.OptionsView, error)
	DateSummary(ctx context.Context, selection string) (*domain.DateSummaryView, error)
	Refresh(ctx context.Context) (*cache.Entry, error)
	Snapshot(ctx context.Context, selection string) (*services.ExportSnapshot, error)
}
