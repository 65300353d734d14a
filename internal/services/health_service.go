package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"prodtrack/internal/cache"
	"prodtrack/pkg/contracts"
	"prodtrack/pkg/contracts/domain"
)

// SnapshotChecker is the part of DashboardService health checks rely on.
type SnapshotChecker interface {
	Ready(ctx context.Context) error
	CacheState() domain.CacheInfo
	CacheStats() cache.Stats
	Source() string
}

// ClientCounter reports connected websocket clients.
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	snapshots SnapshotChecker
	clients   ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service. clients may be nil.
func NewHealthService(snapshots SnapshotChecker, clients ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		snapshots: snapshots,
		clients:   clients,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	info := hs.snapshots.CacheState()
	stats := hs.snapshots.CacheStats()

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services: map[string]interface{}{
			"cache": map[string]interface{}{
				"source":     hs.snapshots.Source(),
				"state":      info.State,
				"fetched_at": info.FetchedAt,
				"ttl":        info.TTL,
				"hits":       stats.Hits,
				"misses":     stats.Misses,
				"loads":      stats.Loads,
				"failures":   stats.Failures,
			},
			"websocket": map[string]interface{}{
				"clients": hs.clientCount(),
			},
		},
	}
}

// ReadinessCheck reports ready once a snapshot is held or can be loaded.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services:  make(map[string]interface{}),
	}

	source := ServiceHealth{Status: "ready"}
	if err := hs.snapshots.Ready(ctx); err != nil {
		hs.logger.WarnContext(ctx, "readiness check failed", slog.String("error", err.Error()))
		source = ServiceHealth{Status: "not_ready", Message: err.Error()}
		status.Status = "not_ready"
	}
	status.Services["source"] = source

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() contracts.VersionInfo {
	return contracts.GetVersionInfo()
}

func (hs *HealthService) clientCount() int {
	if hs.clients == nil {
		return 0
	}
	return hs.clients.ClientCount()
}
