package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "github.com/LeLongFintech/GULLIVER/internal/errors"
	"github.com/LeLongFintech/GULLIVER/internal/fundamentals"
	"github.com/LeLongFintech/GULLIVER/internal/middleware"
	"github.com/LeLongFintech/GULLIVER/pkg/contracts"
)

// DiagnoseServiceInterface is the slice of the diagnose service the
// handler needs.
type DiagnoseServiceInterface interface {
	Diagnose(ctx context.Context, symbol string) (contracts.DiagnoseResponse, error)
}

// DiagnoseHandler serves fundamentals diagnoses.
type DiagnoseHandler struct {
	service      DiagnoseServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
}

// NewDiagnoseHandler creates a new diagnose handler.
func NewDiagnoseHandler(service DiagnoseServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DiagnoseHandler {
	return &DiagnoseHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "diagnose_handler")),
		errorHandler: errorHandler,
		validate:     validator.New(),
	}
}

// Routes returns the diagnose routes.
func (h *DiagnoseHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Post("/diagnose", h.PostDiagnose)
	return r
}

// PostDiagnose handles POST /api/ai/diagnose.
func (h *DiagnoseHandler) PostDiagnose(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var req contracts.DiagnoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrInvalidRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("symbol", "Symbol must be 2-10 characters"))
		return
	}

	h.logger.InfoContext(r.Context(), "diagnose requested",
		slog.String("request_id", reqID),
		slog.String("symbol", req.Symbol),
	)

	resp, err := h.service.Diagnose(r.Context(), req.Symbol)
	if err != nil {
		if errors.Is(err, fundamentals.ErrUnknownSymbol) {
			h.errorHandler.HandleError(w, r, apierrors.NotFoundError("fundamentals for "+req.Symbol))
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, resp)
}
