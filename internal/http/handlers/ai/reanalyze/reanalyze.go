// Package reanalyze реализует HTTP-обработчик повторного анализа документа гарантии.
package reanalyze

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/warranty-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/warranty-tracker/internal/http/response"
	"github.com/magabrotheeeer/warranty-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/warranty-tracker/internal/models"
)

// Handler обрабатывает POST /api/v1/ai/reanalyze/{id}.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики повторного анализа.
type Service interface {
	Reanalyze(ctx context.Context, userID, id string, req models.ReanalyzeWarrantyRequest) (*models.WarrantyView, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP заменяет условия гарантии новым результатом анализа.
//
// @Summary Повторный анализ документа гарантии
// @Tags ai
// @Accept json
// @Produce json
// @Param id path string true "ID гарантии"
// @Param request body models.ReanalyzeWarrantyRequest true "Новый результат анализа"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 429 {object} response.ErrorResponse
// @Router /api/v1/ai/reanalyze/{id} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ai.reanalyze"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFromContext(r.Context())
	if !ok {
		log.Error("user id not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		log.Info("invalid warranty id", slog.String("id", id))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid warranty id"))
		return
	}

	var req models.ReanalyzeWarrantyRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			log.Info("validation failed", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		log.Error("validator failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	view, err := h.service.Reanalyze(r.Context(), userID, id, req)
	if err != nil {
		status, resp := response.FromDomainError(err)
		log.Error("failed to reanalyze warranty", sl.Err(err))
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("warranty reanalyzed", slog.String("id", id), slog.String("status", string(view.Status)))
	render.JSON(w, r, response.StatusOKWithData(view))
}
