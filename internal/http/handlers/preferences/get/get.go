// Package get реализует HTTP-обработчик чтения настроек уведомлений.
// Если пользователь еще не сохранял настройки, создаются значения по умолчанию.
package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/warranty-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/warranty-tracker/internal/http/response"
	"github.com/magabrotheeeer/warranty-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/warranty-tracker/internal/models"
)

// Handler обрабатывает GET /api/v1/preferences.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс чтения настроек.
type Service interface {
	Preferences(ctx context.Context, userID string) (*models.WarrantyPreferences, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP обрабатывает HTTP-запрос на чтение настроек.
//
// @Summary Настройки уведомлений
// @Tags preferences
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/preferences [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.preferences.get"

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

	prefs, err := h.service.Preferences(r.Context(), userID)
	if err != nil {
		status, resp := response.FromDomainError(err)
		log.Error("failed to load preferences", sl.Err(err))
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(prefs))
}
