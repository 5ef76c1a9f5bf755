// Package mark реализует HTTP-обработчики, выставляющие гарантии
// необратимые флаги: обращение по гарантии (claim) и аннулирование (void).
package mark

import (
	"context"
	"fmt"
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

// Action выставляемый флаг.
type Action string

const (
	Claim Action = "claim"
	Void  Action = "void"
)

// Service описывает интерфейс бизнес-логики флагов.
type Service interface {
	MarkClaimed(ctx context.Context, userID, id string) (*models.WarrantyView, error)
	MarkVoid(ctx context.Context, userID, id string) (*models.WarrantyView, error)
}

// Handler обрабатывает POST /api/v1/warranties/{id}/claim и /void.
type Handler struct {
	log     *slog.Logger
	service Service
	action  Action
}

// New создает новый Handler для действия action.
func New(log *slog.Logger, service Service, action Action) *Handler {
	return &Handler{
		log:     log,
		service: service,
		action:  action,
	}
}

// ServeHTTP обрабатывает HTTP-запрос на выставление флага.
//
// @Summary Обращение по гарантии или аннулирование
// @Tags warranties
// @Produce json
// @Param id path string true "ID гарантии"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/warranties/{id}/claim [post]
// @Router /api/v1/warranties/{id}/void [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	op := fmt.Sprintf("handlers.warranty.%s", h.action)

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

	var (
		view *models.WarrantyView
		err  error
	)
	switch h.action {
	case Claim:
		view, err = h.service.MarkClaimed(r.Context(), userID, id)
	case Void:
		view, err = h.service.MarkVoid(r.Context(), userID, id)
	default:
		err = fmt.Errorf("%s: unknown action %q", op, h.action)
	}
	if err != nil {
		status, resp := response.FromDomainError(err)
		log.Error("failed to update warranty", sl.Err(err))
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("warranty updated", slog.String("id", id), slog.String("status", string(view.Status)))
	render.JSON(w, r, response.StatusOKWithData(view))
}
