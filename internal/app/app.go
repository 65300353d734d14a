package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"prodtrack/internal/cache"
	"prodtrack/internal/config"
	"prodtrack/internal/errors"
	"prodtrack/internal/infrastructure"
	customMiddleware "prodtrack/internal/middleware"
	"prodtrack/internal/services"
	"prodtrack/internal/source"
	handlers "prodtrack/internal/transport/http"
	ws "prodtrack/internal/websocket"
	"prodtrack/pkg/contracts"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// AppName is reported in startup logs.
const AppName = "prodtrack"

// Application represents the main application container
type Application struct {
	Config           *config.Config
	Router           *chi.Mux
	Server           *http.Server
	Logger           *slog.Logger
	OTelProviders    *infrastructure.OTelProviders
	Metrics          *infrastructure.DashboardMetrics
	Fetcher          source.Fetcher
	Cache            *cache.Cache
	DashboardService *services.DashboardService
	HealthService    *services.HealthService
	Refresher        *services.Refresher
	WebSocketHub     *ws.Hub
	ErrorHandler     *errors.ErrorHandler

	refreshCancel context.CancelFunc
	refreshDone   sync.WaitGroup
	hubStarted    bool
}

// NewApplication creates a new application instance with dependency injection
func NewApplication(cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return newApplication(cfg, logger, nil)
}

// newApplication wires every component. A nil client lets the fetcher build
// its own traced client.
func newApplication(cfg *config.Config, logger *slog.Logger, client *http.Client) (*Application, error) {
	ctx := infrastructure.EnsureTraceID(context.Background())

	a := &Application{
		Config: cfg,
		Logger: logger,
	}

	otelProviders, err := infrastructure.InitializeOTel(
		infrastructure.NewOTelConfig(cfg.Telemetry, contracts.Version), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	a.OTelProviders = otelProviders

	a.Metrics, err = infrastructure.CreateDashboardMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	if err := a.initializeServices(ctx, client); err != nil {
		return nil, err
	}

	a.setupRouter()
	a.createServer()

	logger.InfoContext(ctx, "Application initialized",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("source", a.Fetcher.Describe()),
		slog.Duration("cache_ttl", cfg.Cache.TTL))

	return a, nil
}

// initializeServices builds the fetch, cache and service layers
func (a *Application) initializeServices(ctx context.Context, client *http.Client) error {
	fetcher, err := source.New(ctx, a.Config.Source, client,
		infrastructure.WithComponent(a.Logger, "source"))
	if err != nil {
		return errors.NewConfigError("failed to create source fetcher", err)
	}
	a.Fetcher = fetcher

	opts := services.NormalizeOptionsFor(a.Config.Columns,
		infrastructure.WithComponent(a.Logger, "normalizer"))

	a.Cache = cache.New(
		services.CacheKey(fetcher, opts),
		a.Config.Cache.TTL,
		services.NewLoader(fetcher, opts),
		cache.WithMetrics(a.Metrics),
		cache.WithLogger(infrastructure.WithComponent(a.Logger, "cache")),
	)

	a.DashboardService = services.NewDashboardService(a.Cache, a.Config.Columns,
		infrastructure.WithComponent(a.Logger, "dashboard"))
	a.WebSocketHub = ws.NewHub(infrastructure.WithComponent(a.Logger, "websocket"), a.Metrics)
	a.HealthService = services.NewHealthService(a.DashboardService, a.WebSocketHub,
		infrastructure.WithComponent(a.Logger, "health"))
	a.Refresher = services.NewRefresher(a.DashboardService, a.WebSocketHub, a.Metrics,
		a.Config.Refresh.Interval, infrastructure.WithComponent(a.Logger, "refresher"))
	a.ErrorHandler = errors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	return nil
}

// setupRouter configures the HTTP router
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.CORS(a.Config.Security.AllowedOrigins))

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	r.Route("/api", a.setupAPIRoutes)

	r.Handle("/ws", handlers.NewWebSocketHandler(a.WebSocketHub,
		a.Config.Security.AllowedOrigins, a.Logger))

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

func (a *Application) setupAPIRoutes(r chi.Router) {
	rl := a.Config.Security.RateLimit
	if rl.Enabled && rl.RPS > 0 {
		r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger).Handler)
	}

	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	r.Mount("/health", healthHandler.Routes())
	r.Get("/version", healthHandler.Version)

	dashboardHandler := handlers.NewDashboardHandler(a.DashboardService, a.Logger, a.ErrorHandler)
	r.Mount("/dashboard", dashboardHandler.Routes())
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start starts background services and the HTTP server. cancel is called
// if the server stops with an error.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	a.WebSocketHub.Start()
	a.hubStarted = true

	if a.Config.Refresh.Enabled {
		refreshCtx, refreshCancel := context.WithCancel(ctx)
		a.refreshCancel = refreshCancel
		a.refreshDone.Add(1)
		go func() {
			defer a.refreshDone.Done()
			a.Refresher.Run(refreshCtx)
		}()
	} else {
		a.warmCache(ctx)
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)),
		slog.Bool("auto_refresh", a.Config.Refresh.Enabled))
	return nil
}

// warmCache loads the first snapshot so the first page view is served from
// cache. A failure is not fatal; requests retry the load.
func (a *Application) warmCache(ctx context.Context) {
	start := time.Now()
	entry, err := a.DashboardService.Current(ctx)
	if err != nil {
		a.Logger.WarnContext(ctx, "Initial snapshot load failed",
			slog.String("source", a.Fetcher.Describe()),
			slog.String("error", err.Error()))
		return
	}
	a.Logger.InfoContext(ctx, "Initial snapshot loaded",
		slog.Int("rows", entry.Table.Len()),
		slog.Duration("duration", time.Since(start)))
}

// Stop gracefully shuts down the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.refreshCancel != nil {
		a.refreshCancel()
		a.refreshDone.Wait()
	}

	if a.hubStarted {
		a.WebSocketHub.Stop()
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")

	if err := infrastructure.CloseLogFile(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}
