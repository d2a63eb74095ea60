// Package http contains the chi handlers for the GULLIVER API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/LeLongFintech/GULLIVER/internal/dataset"
	apierrors "github.com/LeLongFintech/GULLIVER/internal/errors"
	"github.com/LeLongFintech/GULLIVER/internal/middleware"
	"github.com/LeLongFintech/GULLIVER/pkg/contracts"
)

// Query bounds for the risk endpoints.
const (
	defaultHistoryDays = 180
	maxHistoryDays     = 1000
	defaultTopK        = 50
	maxTopK            = 500
)

// RiskServiceInterface is the slice of the risk service the handler
// needs; tests substitute a stub.
type RiskServiceInterface interface {
	Score(ctx context.Context, ticker string, date *time.Time) contracts.ScoreResponse
	History(ctx context.Context, ticker string, days int) contracts.HistoryResponse
	Top(ctx context.Context, date time.Time, k int) contracts.TopResponse
	Health(ctx context.Context) contracts.HealthResponse
}

// RiskHandler serves the risk query surface.
type RiskHandler struct {
	service      RiskServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewRiskHandler creates a new risk handler.
func NewRiskHandler(service RiskServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *RiskHandler {
	return &RiskHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "risk_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the risk routes.
func (h *RiskHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/score", h.GetScore)
	r.Get("/history", h.GetHistory)
	r.Get("/top", h.GetTop)

	return r
}

// GetScore handles GET /api/risk/score?ticker=VCB&date=2024-03-01.
func (h *RiskHandler) GetScore(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	ticker := r.URL.Query().Get("ticker")
	if ticker == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("ticker", "Ticker symbol is required"))
		return
	}

	var date *time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := dataset.ParseDate(raw)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("date", "Date must be an ISO calendar date (YYYY-MM-DD)"))
			return
		}
		date = &parsed
	}

	h.logger.InfoContext(r.Context(), "score lookup",
		slog.String("request_id", reqID),
		slog.String("ticker", ticker),
		slog.Bool("has_date", date != nil),
	)

	render.JSON(w, r, h.service.Score(r.Context(), ticker, date))
}

// GetHistory handles GET /api/risk/history?ticker=VCB&days=90.
func (h *RiskHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	ticker := r.URL.Query().Get("ticker")
	if ticker == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("ticker", "Ticker symbol is required"))
		return
	}

	days, err := boundedIntParam(r, "days", defaultHistoryDays, 1, maxHistoryDays)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "history lookup",
		slog.String("request_id", reqID),
		slog.String("ticker", ticker),
		slog.Int("days", days),
	)

	render.JSON(w, r, h.service.History(r.Context(), ticker, days))
}

// GetTop handles GET /api/risk/top?date=2024-03-01&k=20.
func (h *RiskHandler) GetTop(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	raw := r.URL.Query().Get("date")
	if raw == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("date", "Date is required"))
		return
	}
	date, err := dataset.ParseDate(raw)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("date", "Date must be an ISO calendar date (YYYY-MM-DD)"))
		return
	}

	k, apiErr := boundedIntParam(r, "k", defaultTopK, 1, maxTopK)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	h.logger.InfoContext(r.Context(), "top lookup",
		slog.String("request_id", reqID),
		slog.String("date", date.Format("2006-01-02")),
		slog.Int("k", k),
	)

	render.JSON(w, r, h.service.Top(r.Context(), date, k))
}

// GetHealth handles GET /api/healthz.
func (h *RiskHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Health(r.Context()))
}

// boundedIntParam parses an optional integer query parameter and clamps
// rejection to a validation error rather than silent coercion.
func boundedIntParam(r *http.Request, name string, def, min, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < min || value > max {
		return 0, apierrors.ErrValidation(name,
			"Must be an integer between "+strconv.Itoa(min)+" and "+strconv.Itoa(max))
	}
	return value, nil
}
