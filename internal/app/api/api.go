// Package api собирает HTTP API гарантий: хранилище, кеш, ограничитель
// запросов и маршруты.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/magabrotheeeer/warranty-tracker/internal/cache"
	"github.com/magabrotheeeer/warranty-tracker/internal/config"
	"github.com/magabrotheeeer/warranty-tracker/internal/http/handlers/health"
	"github.com/magabrotheeeer/warranty-tracker/internal/lib/clock"
	"github.com/magabrotheeeer/warranty-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/warranty-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/warranty-tracker/internal/lib/warranty"
	"github.com/magabrotheeeer/warranty-tracker/internal/metrics"
	"github.com/magabrotheeeer/warranty-tracker/internal/migrations"
	"github.com/magabrotheeeer/warranty-tracker/internal/ratelimit"
	warrantyservice "github.com/magabrotheeeer/warranty-tracker/internal/services/warranty"
	"github.com/magabrotheeeer/warranty-tracker/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App HTTP сервер API.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	db      *repository.Storage
	cache   *cache.Cache
	limiter *ratelimit.Limiter
	sweep   time.Duration
}

// New подключает зависимости, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.api.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.New(reg)

	var store ratelimit.Store
	switch cfg.RateLimit.Store {
	case "redis":
		store = ratelimit.NewRedisStore(cacheRedis.Db, "ratelimit")
	default:
		store = ratelimit.NewMemoryStore()
	}
	limiter := ratelimit.NewLimiter(store, cfg.RateLimit.Configs(), clock.Real{}, logger, collector)

	tokens := jwt.NewJWTMaker(cfg.JWTSecretKey)
	warrantyService := warrantyservice.NewWarrantyService(db, cacheRedis, warranty.NewCalculator(clock.Real{}), logger)

	router := chi.NewRouter()
	RegisterRoutes(router, Deps{
		Logger:      logger,
		Warranties:  warrantyService,
		Tokens:      tokens,
		Limiter:     limiter,
		LimitRoutes: ratelimit.DefaultRoutes,
		Metrics:     collector,
		Gatherer:    reg,
		Pingers: map[string]health.Pinger{
			"postgres": db,
			"redis":    cacheRedis,
		},
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:  srv,
		logger:  logger,
		db:      db,
		cache:   cacheRedis,
		limiter: limiter,
		sweep:   cfg.RateLimit.SweepInterval,
	}, nil
}

// Run обслуживает запросы до отмены ctx, затем мягко останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	a.limiter.Start(ctx, a.sweep)
	defer a.limiter.Stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}

	if cerr := a.cache.Close(); cerr != nil {
		a.logger.Error("failed to close cache", sl.Err(cerr))
	}
	if cerr := a.db.Close(); cerr != nil {
		a.logger.Error("failed to close storage", sl.Err(cerr))
	}
	return err
}
