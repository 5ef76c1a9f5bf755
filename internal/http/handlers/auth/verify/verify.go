// Package verify реализует проверку токена, выпущенного сервисом
// аутентификации. Эндпоинт публичный и ограничивается категорией auth,
// поэтому перебор токенов с одного адреса быстро упирается в лимит.
package verify

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/warranty-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/warranty-tracker/internal/http/response"
	"github.com/magabrotheeeer/warranty-tracker/internal/lib/sl"
)

// Request тело запроса.
type Request struct {
	Token string `json:"token"`
}

// Result сведения о валидном токене.
type Result struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Handler обрабатывает POST /api/v1/auth/verify.
type Handler struct {
	log    *slog.Logger
	parser middlewarectx.TokenParser
}

// New создает новый Handler.
func New(log *slog.Logger, parser middlewarectx.TokenParser) *Handler {
	return &Handler{
		log:    log,
		parser: parser,
	}
}

// ServeHTTP обрабатывает HTTP-запрос на проверку токена.
//
// @Summary Проверка токена
// @Tags auth
// @Accept json
// @Produce json
// @Param request body Request true "Токен"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 429 {object} response.ErrorResponse
// @Router /api/v1/auth/verify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.verify"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil || req.Token == "" {
		log.Info("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("token is required"))
		return
	}

	claims, err := h.parser.ParseToken(req.Token)
	if err != nil {
		log.Info("token rejected", sl.Err(err))
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid or expired token"))
		return
	}

	res := Result{UserID: claims.UserID(), Email: claims.Email}
	if claims.ExpiresAt != nil {
		res.ExpiresAt = claims.ExpiresAt.UTC()
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}
