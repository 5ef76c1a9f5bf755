// Package metrics содержит счетчики Prometheus сервисов гарантий.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "warranty"

// Collector хранит счетчики одного процесса. Все методы безопасны для nil.
type Collector struct {
	rateLimitDecisions *prometheus.CounterVec
	rateLimitSwept     prometheus.Counter
	statusChanges      *prometheus.CounterVec
	notifications      *prometheus.CounterVec
	emails             *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
}

// New создает счетчики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		rateLimitDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "decisions_total",
			Help:      "Rate limit decisions by category and outcome.",
		}, []string{"category", "allowed"}),
		rateLimitSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "swept_keys_total",
			Help:      "Rate limit keys removed by the sweeper.",
		}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "status_changes_total",
			Help:      "Stored warranty status transitions.",
		}, []string{"from", "to"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "published_total",
			Help:      "Expiry notifications handed to the broker.",
		}, []string{"type", "outcome"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sender",
			Name:      "emails_total",
			Help:      "Emails processed by the notification sender.",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}

	reg.MustRegister(
		c.rateLimitDecisions,
		c.rateLimitSwept,
		c.statusChanges,
		c.notifications,
		c.emails,
		c.httpRequests,
	)
	return c
}

// ObserveRateLimit учитывает решение ограничителя.
func (c *Collector) ObserveRateLimit(category string, allowed bool) {
	if c == nil {
		return
	}
	c.rateLimitDecisions.WithLabelValues(category, strconv.FormatBool(allowed)).Inc()
}

// ObserveRateLimitSweep учитывает удаленные при очистке ключи.
func (c *Collector) ObserveRateLimitSweep(removed int) {
	if c == nil || removed <= 0 {
		return
	}
	c.rateLimitSwept.Add(float64(removed))
}

// ObserveStatusChange учитывает переход статуса гарантии.
func (c *Collector) ObserveStatusChange(from, to string) {
	if c == nil {
		return
	}
	c.statusChanges.WithLabelValues(from, to).Inc()
}

// ObserveNotification учитывает публикацию уведомления; outcome — "published" или "failed".
func (c *Collector) ObserveNotification(notificationType, outcome string) {
	if c == nil {
		return
	}
	c.notifications.WithLabelValues(notificationType, outcome).Inc()
}

// ObserveEmail учитывает обработку письма: "sent", "skipped" или "failed".
func (c *Collector) ObserveEmail(outcome string) {
	if c == nil {
		return
	}
	c.emails.WithLabelValues(outcome).Inc()
}

// ObserveHTTP учитывает обработанный HTTP-запрос.
func (c *Collector) ObserveHTTP(route string, code int) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
