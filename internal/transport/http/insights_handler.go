package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "chainsight/internal/errors"
	"chainsight/internal/forecast"
	"chainsight/internal/services"
)

var validate = validator.New()

// queryDateFormat is the accepted layout of from/to query parameters.
const queryDateFormat = "2006-01-02"

// InsightsHandler handles the insights API requests.
type InsightsHandler struct {
	service      InsightsServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewInsightsHandler creates an insights handler.
func NewInsightsHandler(service InsightsServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *InsightsHandler {
	return &InsightsHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "insights_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the insights routes.
func (h *InsightsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/overview", h.GetOverview)
	r.Get("/customers", h.GetCustomers)
	r.Get("/profiles", h.GetProfiles)
	r.Get("/sales/category", h.GetSalesByCategory)
	r.Get("/sales/region", h.GetSalesByRegion)
	r.Get("/sales/monthly", h.GetMonthlyActuals)
	r.Get("/forecast", h.GetForecast)
	r.Get("/artifacts", h.GetArtifacts)
	r.Post("/reload", h.Reload)

	r.Route("/artifacts/{name}", func(r chi.Router) {
		r.Use(h.ArtifactCtx)
		r.Get("/download", h.DownloadArtifact)
	})

	return r
}

// ArtifactCtx validates the artifact name parameter.
func (h *InsightsHandler) ArtifactCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "name") == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("name", "Artifact name is required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetOverview handles GET /api/insights/overview.
func (h *InsightsHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.success(w, r, overview)
}

// customersQuery carries the exploration filters from the query string.
type customersQuery struct {
	Segment    string   `validate:"max=100"`
	CustomerID string   `validate:"max=100"`
	RecencyMin *float64 `validate:"omitempty,min=0"`
	RecencyMax *float64 `validate:"omitempty,min=0"`
	SalesMin   *float64 `validate:"omitempty"`
	SalesMax   *float64 `validate:"omitempty"`
}

// GetCustomers handles GET /api/insights/customers with filter parameters.
func (h *InsightsHandler) GetCustomers(w http.ResponseWriter, r *http.Request) {
	q := customersQuery{
		Segment:    r.URL.Query().Get("segment"),
		CustomerID: r.URL.Query().Get("customer_id"),
	}

	for param, dst := range map[string]**float64{
		"recency_min": &q.RecencyMin,
		"recency_max": &q.RecencyMax,
		"sales_min":   &q.SalesMin,
		"sales_max":   &q.SalesMax,
	} {
		raw := r.URL.Query().Get(param)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, "must be a number"))
			return
		}
		*dst = &v
	}

	if err := validate.Struct(q); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidationFailed)
		return
	}

	ds, err := h.service.Customers(r.Context(), services.CustomerFilter{
		Segment:    q.Segment,
		CustomerID: q.CustomerID,
		RecencyMin: q.RecencyMin,
		RecencyMax: q.RecencyMax,
		SalesMin:   q.SalesMin,
		SalesMax:   q.SalesMax,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   ds,
		"count":  ds.Len(),
	})
}

// GetProfiles handles GET /api/insights/profiles.
func (h *InsightsHandler) GetProfiles(w http.ResponseWriter, r *http.Request) {
	ds, err := h.service.Profiles(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.success(w, r, ds)
}

// GetSalesByCategory handles GET /api/insights/sales/category.
func (h *InsightsHandler) GetSalesByCategory(w http.ResponseWriter, r *http.Request) {
	totals, err := h.service.SalesByCategory(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.success(w, r, totals)
}

// GetSalesByRegion handles GET /api/insights/sales/region.
func (h *InsightsHandler) GetSalesByRegion(w http.ResponseWriter, r *http.Request) {
	totals, err := h.service.SalesByRegion(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.success(w, r, totals)
}

// GetMonthlyActuals handles GET /api/insights/sales/monthly with optional
// from/to range parameters.
func (h *InsightsHandler) GetMonthlyActuals(w http.ResponseWriter, r *http.Request) {
	from, ok := h.parseDateParam(w, r, "from")
	if !ok {
		return
	}
	to, ok := h.parseDateParam(w, r, "to")
	if !ok {
		return
	}

	series, err := h.service.MonthlyActuals(r.Context(), from, to)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.success(w, r, series)
}

// forecastQuery carries the forecast parameters.
type forecastQuery struct {
	Horizon int `validate:"min=0,max=12"`
}

// GetForecast handles GET /api/insights/forecast?horizon=n.
func (h *InsightsHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	var q forecastQuery
	if raw := r.URL.Query().Get("horizon"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("horizon", "must be an integer"))
			return
		}
		q.Horizon = v
	}
	if err := validate.Struct(q); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("horizon", "must be between 1 and 12"))
		return
	}

	result, err := h.service.Forecast(r.Context(), q.Horizon)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.success(w, r, result)
}

// GetArtifacts handles GET /api/insights/artifacts.
func (h *InsightsHandler) GetArtifacts(w http.ResponseWriter, r *http.Request) {
	statuses := h.service.Artifacts(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   statuses,
		"count":  len(statuses),
	})
}

// DownloadArtifact handles GET /api/insights/artifacts/{name}/download.
func (h *InsightsHandler) DownloadArtifact(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	path, err := h.service.ArtifactPath(r.Context(), name)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", "attachment")
	http.ServeFile(w, r, path)
}

// Reload handles POST /api/insights/reload: it invalidates the whole
// artifact cache.
func (h *InsightsHandler) Reload(w http.ResponseWriter, r *http.Request) {
	dropped := h.service.Reload(r.Context())
	h.logger.InfoContext(r.Context(), "reload requested",
		slog.Int("entries_dropped", dropped))
	render.JSON(w, r, map[string]interface{}{
		"status":          "success",
		"entries_dropped": dropped,
	})
}

func (h *InsightsHandler) parseDateParam(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(queryDateFormat, raw)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(name, "must be a date in YYYY-MM-DD form"))
		return time.Time{}, false
	}
	return t, true
}

func (h *InsightsHandler) success(w http.ResponseWriter, r *http.Request, data interface{}) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   data,
	})
}

// handleServiceError maps service sentinels to API errors.
func (h *InsightsHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNoDataAvailable):
		h.errorHandler.HandleError(w, r, apierrors.ErrNoData)
	case errors.Is(err, services.ErrArtifactNotFound):
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError("artifact"))
	case errors.Is(err, services.ErrInvalidHorizon):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("horizon", "must be between 1 and 12"))
	case errors.Is(err, forecast.ErrInsufficientData):
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusUnprocessableEntity,
			"INSUFFICIENT_DATA",
			"Not enough history to compute a forecast baseline",
		))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}
