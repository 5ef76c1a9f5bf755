// Package analyze реализует HTTP-обработчик, принимающий данные, извлеченные
// моделью распознавания из фотографии товара, и регистрирующий по ним гарантию.
//
// Срок гарантии приходит свободным текстом ("2 years", "lifetime") и
// разбирается сервисом. Эндпоинт относится к категории лимитов ai.
package analyze

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/warranty-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/warranty-tracker/internal/http/response"
	"github.com/magabrotheeeer/warranty-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/warranty-tracker/internal/models"
)

// Handler обрабатывает POST /api/v1/ai/analyze.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс создания гарантии по результату анализа.
type Service interface {
	CreateFromAnalysis(ctx context.Context, userID string, req models.AnalyzedWarrantyRequest) (*models.WarrantyView, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP обрабатывает HTTP-запрос с результатом анализа.
//
// @Summary Гарантия по результату распознавания
// @Tags ai
// @Accept json
// @Produce json
// @Param request body models.AnalyzedWarrantyRequest true "Извлеченные данные"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 429 {object} response.ErrorResponse
// @Router /api/v1/ai/analyze [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ai.analyze"

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

	var req models.AnalyzedWarrantyRequest
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

	view, err := h.service.CreateFromAnalysis(r.Context(), userID, req)
	if err != nil {
		status, resp := response.FromDomainError(err)
		log.Error("failed to create warranty from analysis", sl.Err(err))
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("warranty created from analysis", slog.String("id", view.ID), slog.String("type", string(view.Type)))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(view))
}
