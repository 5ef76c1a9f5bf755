package middlewarectx

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/warranty-tracker/internal/http/response"
	"github.com/magabrotheeeer/warranty-tracker/internal/ratelimit"
)

// Limiter принимает решение по запросу.
type Limiter interface {
	Check(ctx context.Context, category ratelimit.Category, identifier string) ratelimit.Decision
}

// RateLimitMiddleware ограничивает запросы скользящим окном. Категория
// определяется по префиксу пути, идентификатор по адресу клиента.
// Для категории ai используется пользователь, если IdentifyMiddleware
// уже положил его в контекст.
func RateLimitMiddleware(log *slog.Logger, limiter Limiter, routes []ratelimit.Route) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			category, ok := ratelimit.CategoryForPath(routes, r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			identifier := ClientIP(r)
			if category == ratelimit.CategoryAI {
				if userID, ok := UserIDFromContext(r.Context()); ok {
					identifier = "user:" + userID
				}
			}

			d := limiter.Check(r.Context(), category, identifier)
			if d.Limit > 0 {
				h := w.Header()
				h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
				h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
				h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetTime.Unix(), 10))
			}

			if !d.Allowed {
				seconds := int(math.Ceil(d.RetryAfter.Seconds()))
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				log.Warn("too many requests",
					slog.String("category", string(category)),
					slog.String("identifier", identifier),
					slog.String("request_id", middleware.GetReqID(r.Context())))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP возвращает адрес клиента: первый адрес X-Forwarded-For,
// затем X-Real-IP, затем адрес соединения.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
