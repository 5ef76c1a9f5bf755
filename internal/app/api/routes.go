package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/warranty-tracker/internal/http/handlers/ai/analyze"
	"github.com/magabrotheeeer/warranty-tracker/internal/http/handlers/ai/reanalyze"
	"github.com/magabrotheeeer/warranty-tracker/internal/http/handlers/auth/verify"
	"github.com/magabrotheeeer/warranty-tracker/internal/http/handlers/health"
	preferencesget "github.com/magabrotheeeer/warranty-tracker/internal/http/handlers/preferences/get"
	preferencesupdate "github.com/magabrotheeeer/warranty-tracker/internal/http/handlers/preferences/update"
	"github.com/magabrotheeeer/warranty-tracker/internal/http/handlers/warranty/create"
	"github.com/magabrotheeeer/warranty-tracker/internal/http/handlers/warranty/extend"
	"github.com/magabrotheeeer/warranty-tracker/internal/http/handlers/warranty/mark"
	"github.com/magabrotheeeer/warranty-tracker/internal/http/handlers/warranty/read"
	"github.com/magabrotheeeer/warranty-tracker/internal/http/handlers/warranty/schedule"
	"github.com/magabrotheeeer/warranty-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/warranty-tracker/internal/models"
	"github.com/magabrotheeeer/warranty-tracker/internal/ratelimit"
)

// WarrantyService операции над гарантиями, которые нужны обработчикам.
type WarrantyService interface {
	Create(ctx context.Context, userID string, req models.CreateWarrantyRequest) (*models.WarrantyView, error)
	CreateFromAnalysis(ctx context.Context, userID string, req models.AnalyzedWarrantyRequest) (*models.WarrantyView, error)
	Reanalyze(ctx context.Context, userID, id string, req models.ReanalyzeWarrantyRequest) (*models.WarrantyView, error)
	Get(ctx context.Context, userID, id string) (*models.WarrantyView, error)
	Extend(ctx context.Context, userID, id string, months int) (*models.ExtensionResult, error)
	MarkClaimed(ctx context.Context, userID, id string) (*models.WarrantyView, error)
	MarkVoid(ctx context.Context, userID, id string) (*models.WarrantyView, error)
	Schedule(ctx context.Context, userID, id string) (models.NotificationSchedule, error)
	Preferences(ctx context.Context, userID string) (*models.WarrantyPreferences, error)
	UpdatePreferences(ctx context.Context, userID string, req models.UpdatePreferencesRequest) (*models.WarrantyPreferences, error)
}

// Deps зависимости маршрутов.
type Deps struct {
	Logger         *slog.Logger
	Warranties     WarrantyService
	Tokens         middlewarectx.TokenParser
	Limiter        middlewarectx.Limiter
	LimitRoutes    []ratelimit.Route
	Metrics        middlewarectx.HTTPRecorder
	Gatherer       prometheus.Gatherer
	Pingers        map[string]health.Pinger
	AllowedOrigins []string
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins:   d.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		middlewarectx.Metrics(d.Metrics),
	)

	r.Get("/health", health.New(d.Logger, d.Pingers).ServeHTTP)

	limit := middlewarectx.RateLimitMiddleware(d.Logger, d.Limiter, d.LimitRoutes)

	r.Route("/api/v1", func(r chi.Router) {
		// Лимит считается до аутентификации. Валидный токен только
		// переключает ключ AI-запросов с адреса на пользователя.
		r.Use(middlewarectx.IdentifyMiddleware(d.Tokens))
		r.Use(limit)

		// Открытые конечные точки
		r.Post("/auth/verify", verify.New(d.Logger, d.Tokens).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(d.Tokens, d.Logger))

			r.Post("/ai/analyze", analyze.New(d.Logger, d.Warranties).ServeHTTP)
			r.Post("/ai/reanalyze/{id}", reanalyze.New(d.Logger, d.Warranties).ServeHTTP)

			r.Post("/warranties", create.New(d.Logger, d.Warranties).ServeHTTP)
			r.Get("/warranties/{id}", read.New(d.Logger, d.Warranties).ServeHTTP)
			r.Post("/warranties/{id}/extend", extend.New(d.Logger, d.Warranties).ServeHTTP)
			r.Post("/warranties/{id}/claim", mark.New(d.Logger, d.Warranties, mark.Claim).ServeHTTP)
			r.Post("/warranties/{id}/void", mark.New(d.Logger, d.Warranties, mark.Void).ServeHTTP)
			r.Get("/warranties/{id}/schedule", schedule.New(d.Logger, d.Warranties).ServeHTTP)

			r.Get("/preferences", preferencesget.New(d.Logger, d.Warranties).ServeHTTP)
			r.Put("/preferences", preferencesupdate.New(d.Logger, d.Warranties).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
