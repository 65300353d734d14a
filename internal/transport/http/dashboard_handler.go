package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "prodtrack/internal/errors"
	"prodtrack/internal/exporter"
	prodmw "prodtrack/internal/middleware"
	api "prodtrack/pkg/contracts/api/v1"
)

// unsafeFilename matches characters not allowed in download names.
var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DashboardHandler serves the dashboard API
type DashboardHandler struct {
	service      DashboardServiceInterface
	validator    *prodmw.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	now          func() time.Time
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validator:    prodmw.NewValidator(),
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
		now:          time.Now,
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/", h.GetDashboard)
		r.Get("/options", h.GetOptions)
		r.Get("/dates", h.GetDateSummary)
		r.Post("/refresh", h.Refresh)
	})
	r.Get("/export", h.Export)

	return r
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	query, err := h.parseDashboardQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	view, err := h.service.View(r.Context(), query.Selection, query.Dates)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
	})
}

// GetOptions handles GET /api/dashboard/options
func (h *DashboardHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	options, err := h.service.Options(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   options,
		"count":  len(options.Options),
	})
}

// GetDateSummary handles GET /api/dashboard/dates
func (h *DashboardHandler) GetDateSummary(w http.ResponseWriter, r *http.Request) {
	query := api.DateSummaryQuery{Selection: r.URL.Query().Get("oc")}
	if err := h.validator.Struct(&query); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	summary, err := h.service.DateSummary(r.Context(), query.Selection)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
		"count":  len(summary.Buckets),
	})
}

// Refresh handles POST /api/dashboard/refresh. It reloads the source and
// answers with the view for the requested selection.
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	query, err := h.parseDashboardQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "manual refresh requested",
		slog.String("request_id", middleware.GetReqID(r.Context())))

	if _, err := h.service.Refresh(r.Context()); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	view, err := h.service.View(r.Context(), query.Selection, query.Dates)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
	})
}

// Export handles GET /api/dashboard/export and streams a file download.
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	query := api.ExportQuery{
		Selection: r.URL.Query().Get("oc"),
		Format:    r.URL.Query().Get("format"),
	}
	if query.Format == "" {
		query.Format = string(exporter.FormatCSV)
	}
	if err := h.validator.Struct(&query); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	snap, err := h.service.Snapshot(r.Context(), query.Selection)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	format := exporter.Format(query.Format)
	var buf bytes.Buffer
	err = exporter.Write(&buf, format, snap.Table, exporter.Options{
		BOMPrefix: true,
		Classify:  snap.Classify,
		Summary:   &snap.Summary,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "export failed",
			slog.String("format", query.Format),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	filename := h.exportFilename(query.Selection, format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export write interrupted", slog.String("error", err.Error()))
		return
	}

	h.logger.InfoContext(r.Context(), "export served",
		slog.String("file", filename),
		slog.Int("rows", snap.Table.Len()))
}

func (h *DashboardHandler) parseDashboardQuery(r *http.Request) (api.DashboardQuery, error) {
	q := r.URL.Query()
	query := api.DashboardQuery{Selection: q.Get("oc")}

	if raw := q.Get("dates"); raw != "" {
		dates, err := strconv.ParseBool(raw)
		if err != nil {
			return query, apierrors.ErrValidation("dates", "dates must be a boolean")
		}
		query.Dates = dates
	}

	if err := h.validator.Struct(&query); err != nil {
		return query, err
	}
	return query, nil
}

// exportFilename builds "produccion_<selection>_<date>.<ext>".
func (h *DashboardHandler) exportFilename(selection string, format exporter.Format) string {
	if selection == "" {
		selection = "all"
	}
	selection = unsafeFilename.ReplaceAllString(selection, "_")
	return fmt.Sprintf("produccion_%s_%s.%s", selection, h.now().Format("20060102"), format)
}
