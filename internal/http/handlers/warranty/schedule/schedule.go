// Package schedule реализует HTTP-обработчик, возвращающий будущие
// напоминания по гарантии с учетом настроек пользователя.
package schedule

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/warranty-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/warranty-tracker/internal/http/response"
	"github.com/magabrotheeeer/warranty-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/warranty-tracker/internal/models"
)

// Handler обрабатывает GET /api/v1/warranties/{id}/schedule.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс построения расписания.
type Service interface {
	Schedule(ctx context.Context, userID, id string) (models.NotificationSchedule, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP обрабатывает HTTP-запрос на получение расписания.
//
// @Summary Расписание напоминаний
// @Tags warranties
// @Produce json
// @Param id path string true "ID гарантии"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/warranties/{id}/schedule [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.warranty.schedule"

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
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid warranty id"))
		return
	}

	schedule, err := h.service.Schedule(r.Context(), userID, id)
	if err != nil {
		status, resp := response.FromDomainError(err)
		log.Error("failed to build schedule", sl.Err(err))
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"notifications": schedule,
	}))
}
