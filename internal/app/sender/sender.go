// Package sender содержит сервис доставки уведомлений: потребитель очереди
// RabbitMQ, отправляющий письма по SMTP.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/warranty-tracker/internal/config"
	"github.com/magabrotheeeer/warranty-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/warranty-tracker/internal/lib/smtp"
	"github.com/magabrotheeeer/warranty-tracker/internal/metrics"
	"github.com/magabrotheeeer/warranty-tracker/internal/rabbitmq"
	senderservice "github.com/magabrotheeeer/warranty-tracker/internal/services/sender"
)

// App представляет приложение отправителя.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	queue         string
	concurrency   int
	metricsAddr   string
	registry      *prometheus.Registry
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New подключается к брокеру и собирает сервис отправки.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.sender.New"

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	concurrency := max(cfg.RabbitMQ.Concurrency, 1)
	topology := rabbitmq.NotificationTopology(cfg.RabbitMQ.Exchange, cfg.RabbitMQ.Queue, cfg.RabbitMQ.RoutingKey, concurrency)
	ch, err := rabbitmq.SetupChannel(conn, topology)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var limiter *rate.Limiter
	if cfg.SMTP.SendsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.SMTP.SendsPerSecond), 1)
	}

	reg := prometheus.NewRegistry()
	collector := metrics.New(reg)
	senderService := senderservice.NewSenderService(smtp.NewTransport(cfg.SMTP, logger), limiter, collector, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		queue:         cfg.RabbitMQ.Queue,
		concurrency:   concurrency,
		metricsAddr:   cfg.MetricsAddress,
		registry:      reg,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run потребляет очередь до отмены ctx и дожидается завершения обработчиков.
func (a *App) Run(ctx context.Context) error {
	go func() {
		if err := metrics.Serve(ctx, a.metricsAddr, a.registry, a.logger); err != nil {
			a.logger.Error("metrics server stopped", sl.Err(err))
		}
	}()

	done, err := rabbitmq.ConsumerMessage(ctx, a.ch, a.queue, a.concurrency, a.logger, a.senderService.HandleEvent)
	if err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", a.queue), sl.Err(err))
		a.close()
		return err
	}
	a.logger.Info("consuming notifications", slog.String("queue", a.queue), slog.Int("concurrency", a.concurrency))

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")
	// Дожидаемся обработчиков, чтобы они успели подтвердить сообщения.
	<-done
	a.close()
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}
